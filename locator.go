package sheetsync

import "fmt"

// LocateColumn returns the 1-based index of the first column in headerRow
// whose value equals name exactly.
func LocateColumn(sheet Sheet, headerRow int, name string) (int, error) {
	maxCol, err := sheet.MaxColumn()
	if err != nil {
		return 0, fmt.Errorf("failed to get sheet dimensions: %w", err)
	}

	for col := 1; col <= maxCol; col++ {
		value, err := sheet.Value(headerRow, col)
		if err != nil {
			return 0, fmt.Errorf("failed to read header cell (%d, %d): %w", headerRow, col, err)
		}
		if value == name {
			return col, nil
		}
	}

	return 0, &ColumnError{Sheet: sheet.Name(), Header: name, Row: headerRow}
}
