package sheetsync

import (
	"fmt"
	"iter"
	"strings"
)

// MatchResult pairs a remote row with the spreadsheet row it reconciles into
type MatchResult struct {
	Remote *RemoteRow
	Row    int // 1-based spreadsheet row
}

// MatchRows pairs each remote row with the first spreadsheet row, scanning
// from dataStartRow to the last used row, whose relation cell equals the
// row's relation value after normalization. Remote rows without a
// counterpart are skipped. Precondition failures are returned before any
// row is compared; read errors during iteration are yielded and end it.
func MatchRows(
	rows []*RemoteRow,
	columns *ColumnCache,
	relationField string,
	relationMappings Mappings,
	dataStartRow int,
	strategy MatchStrategy,
) (iter.Seq2[MatchResult, error], error) {
	header, ok := relationMappings.Lookup(relationField)
	if !ok {
		return nil, &SpecError{
			Field:   relationField,
			Message: "relation field is not a key of relation_field_mappings",
			Err:     ErrRelationMappingMissing,
		}
	}

	relCol, err := columns.Locate(header)
	if err != nil {
		return nil, err
	}

	maxRow, err := columns.sheet.MaxRow()
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet dimensions: %w", err)
	}

	m := &matcher{
		sheet:         columns.sheet,
		rows:          rows,
		relationField: relationField,
		relCol:        relCol,
		firstRow:      dataStartRow,
		lastRow:       maxRow,
	}
	if strategy == MatchScan {
		return m.scan, nil
	}
	return m.index, nil
}

type matcher struct {
	sheet         Sheet
	rows          []*RemoteRow
	relationField string
	relCol        int
	firstRow      int
	lastRow       int
}

// key returns the normalized relation value of a remote row, "" when it has none
func (m *matcher) key(row *RemoteRow) string {
	v, _ := row.Get(m.relationField)
	return normalize(v)
}

func (m *matcher) cell(row int) (string, error) {
	v, err := m.sheet.Value(row, m.relCol)
	if err != nil {
		return "", fmt.Errorf("failed to read relation cell at row %d: %w", row, err)
	}
	return strings.TrimSpace(v), nil
}

// column reads every relation cell from firstRow to lastRow before any
// row is yielded, so writes made while iterating never change the pairing
func (m *matcher) column() ([]string, error) {
	if m.lastRow < m.firstRow {
		return nil, nil
	}
	cells := make([]string, 0, m.lastRow-m.firstRow+1)
	for r := m.firstRow; r <= m.lastRow; r++ {
		v, err := m.cell(r)
		if err != nil {
			return nil, err
		}
		cells = append(cells, v)
	}
	return cells, nil
}

func (m *matcher) scan(yield func(MatchResult, error) bool) {
	cells, err := m.column()
	if err != nil {
		yield(MatchResult{}, err)
		return
	}

	for _, remote := range m.rows {
		key := m.key(remote)
		if key == "" {
			continue
		}
		for i, v := range cells {
			if v == key {
				if !yield(MatchResult{Remote: remote, Row: m.firstRow + i}, nil) {
					return
				}
				break
			}
		}
	}
}

func (m *matcher) index(yield func(MatchResult, error) bool) {
	cells, err := m.column()
	if err != nil {
		yield(MatchResult{}, err)
		return
	}

	idx := make(map[string]int, len(cells))
	for i, v := range cells {
		if v == "" {
			continue
		}
		// first row wins on duplicate keys
		if _, ok := idx[v]; !ok {
			idx[v] = m.firstRow + i
		}
	}

	for _, remote := range m.rows {
		key := m.key(remote)
		if key == "" {
			continue
		}
		if r, ok := idx[key]; ok {
			if !yield(MatchResult{Remote: remote, Row: r}, nil) {
				return
			}
		}
	}
}
