package sheetsync

import "fmt"

// ApplyMapping copies the mapped remote values of a match into its
// spreadsheet row and returns the number of cells written. Fields the
// remote row lacks are skipped; nil values never overwrite a cell. Every
// needed column is located before the first write, so a missing header
// leaves the row untouched.
func ApplyMapping(match MatchResult, fieldMappings Mappings, columns *ColumnCache) (int, error) {
	type write struct {
		col   int
		value interface{}
	}

	writes := make([]write, 0, len(fieldMappings))
	for _, mp := range fieldMappings {
		value, ok := match.Remote.Get(mp.Remote)
		if !ok {
			continue
		}
		col, err := columns.Locate(mp.Column)
		if err != nil {
			return 0, err
		}
		if value == nil {
			continue
		}
		writes = append(writes, write{col: col, value: value})
	}

	written := 0
	for _, w := range writes {
		if err := columns.sheet.SetValue(match.Row, w.col, w.value); err != nil {
			return written, fmt.Errorf("failed to write cell (%d, %d): %w", match.Row, w.col, err)
		}
		written++
	}
	return written, nil
}
