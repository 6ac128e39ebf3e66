package sheetsync_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	sheetsync "github.com/ideamans/go-sheetsync"
)

// memSheet is an in-memory worksheet. Row 1 is the first row passed to newMemSheet.
type memSheet struct {
	name    string
	cells   map[[2]int]interface{}
	writes  int
	readErr error // returned by every Value call when set
}

func newMemSheet(name string, rows ...[]interface{}) *memSheet {
	s := &memSheet{name: name, cells: make(map[[2]int]interface{})}
	for r, row := range rows {
		for c, v := range row {
			if v != nil {
				s.cells[[2]int{r + 1, c + 1}] = v
			}
		}
	}
	return s
}

func (s *memSheet) Name() string { return s.name }

func (s *memSheet) Value(row, col int) (string, error) {
	if s.readErr != nil {
		return "", s.readErr
	}
	v, ok := s.cells[[2]int{row, col}]
	if !ok {
		return "", nil
	}
	return fmt.Sprint(v), nil
}

func (s *memSheet) SetValue(row, col int, v interface{}) error {
	s.cells[[2]int{row, col}] = v
	s.writes++
	return nil
}

func (s *memSheet) MaxRow() (int, error) {
	max := 0
	for k := range s.cells {
		if k[0] > max {
			max = k[0]
		}
	}
	return max, nil
}

func (s *memSheet) MaxColumn() (int, error) {
	max := 0
	for k := range s.cells {
		if k[1] > max {
			max = k[1]
		}
	}
	return max, nil
}

// get returns the raw value stored at (row, col)
func (s *memSheet) get(row, col int) interface{} {
	return s.cells[[2]int{row, col}]
}

// memWorkbook holds sheets in memory and saves them as JSON
type memWorkbook struct {
	sheets  map[string]*memSheet
	saveErr error
	saves   []string
	closed  bool
}

func newMemWorkbook(sheets ...*memSheet) *memWorkbook {
	wb := &memWorkbook{sheets: make(map[string]*memSheet)}
	for _, s := range sheets {
		wb.sheets[s.name] = s
	}
	return wb
}

func (w *memWorkbook) Sheet(name string) (sheetsync.Sheet, error) {
	s, ok := w.sheets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", sheetsync.ErrSheetNotFound, name)
	}
	return s, nil
}

func (w *memWorkbook) Save(path string) error {
	if w.saveErr != nil {
		return w.saveErr
	}
	dump := make(map[string]map[string]interface{})
	for name, s := range w.sheets {
		cells := make(map[string]interface{})
		for k, v := range s.cells {
			cells[fmt.Sprintf("%d,%d", k[0], k[1])] = v
		}
		dump[name] = cells
	}
	data, err := json.Marshal(dump)
	if err != nil {
		return err
	}
	w.saves = append(w.saves, path)
	return os.WriteFile(path, data, 0o644)
}

func (w *memWorkbook) Close() error {
	w.closed = true
	return nil
}

// memOpener hands out pre-built workbooks by path
type memOpener struct {
	workbooks map[string]*memWorkbook
	opened    []string
}

func (o *memOpener) Open(path string) (sheetsync.Workbook, error) {
	o.opened = append(o.opened, path)
	wb, ok := o.workbooks[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return wb, nil
}

// memSource is a RemoteSource backed by fixed tables
type memSource struct {
	mu          sync.Mutex
	schema      *sheetsync.Schema
	rows        map[string][]*sheetsync.RemoteRow
	schemaErr   error
	listErr     error
	schemaCalls int
	listCalls   int
}

func (m *memSource) GetSchema(ctx context.Context) (*sheetsync.Schema, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemaCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.schemaErr != nil {
		return nil, m.schemaErr
	}
	return m.schema, nil
}

func (m *memSource) ListRows(ctx context.Context, table string) ([]*sheetsync.RemoteRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	rows, ok := m.rows[table]
	if !ok {
		return nil, errors.New("no such table")
	}
	return rows, nil
}

// remoteRow builds a row from alternating field/value pairs
func remoteRow(kv ...interface{}) *sheetsync.RemoteRow {
	row := sheetsync.NewRemoteRow()
	for i := 0; i+1 < len(kv); i += 2 {
		row.Set(kv[i].(string), kv[i+1])
	}
	return row
}

// schemaOf builds a single-table schema with untyped columns
func schemaOf(table string, fields ...string) *sheetsync.Schema {
	ts := sheetsync.TableSchema{Name: table}
	for _, f := range fields {
		ts.Columns = append(ts.Columns, sheetsync.Column{Name: f})
	}
	return &sheetsync.Schema{Tables: []sheetsync.TableSchema{ts}}
}
