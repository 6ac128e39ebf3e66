package excel

import (
	"fmt"
	"os"
	"sync"

	sheetsync "github.com/ideamans/go-sheetsync"
	"github.com/xuri/excelize/v2"
)

// Opener implements sheetsync.WorkbookOpener for Excel files
type Opener struct {
	config Config
}

// New creates a new Excel opener with the given configuration
func New(config *Config) *Opener {
	o := &Opener{}
	if config != nil {
		// Create a copy of config to avoid external modifications
		o.config = *config
	}
	return o
}

// Open opens an existing workbook
func (o *Opener) Open(path string) (sheetsync.Workbook, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("workbook does not exist: %w", err)
		}
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}

	return &Workbook{file: f, config: o.config, sheets: make(map[string]*Sheet)}, nil
}

// Workbook wraps an open excelize file
type Workbook struct {
	mu     sync.Mutex
	file   *excelize.File
	config Config
	sheets map[string]*Sheet
}

// Sheet returns the named worksheet
func (w *Workbook) Sheet(name string) (sheetsync.Sheet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if s, ok := w.sheets[name]; ok {
		return s, nil
	}

	sheetIndex, err := w.file.GetSheetIndex(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet index: %w", err)
	}
	if sheetIndex == -1 {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}

	s := &Sheet{file: w.file, name: name, raw: !w.config.FormattedValues}
	w.sheets[name] = s
	return s, nil
}

// Save writes the workbook to path
func (w *Workbook) Save(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := validatePath(path); err != nil {
		return err
	}
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

// Close releases the workbook's temporary files
func (w *Workbook) Close() error {
	return w.file.Close()
}

// Sheet is one worksheet of a Workbook
type Sheet struct {
	file *excelize.File
	name string
	raw  bool

	// used range, loaded on first use and grown by SetValue
	loaded bool
	maxRow int
	maxCol int
}

// Name returns the sheet name
func (s *Sheet) Name() string {
	return s.name
}

// Value returns the cell value as text
func (s *Sheet) Value(row, col int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", err
	}
	return s.file.GetCellValue(s.name, cell, excelize.Options{RawCellValue: s.raw})
}

// SetValue writes v keeping its Go type (numbers, bools, times, strings)
func (s *Sheet) SetValue(row, col int, v interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := s.file.SetCellValue(s.name, cell, cellValue(v)); err != nil {
		return fmt.Errorf("failed to set %s: %w", cell, err)
	}

	if err := s.loadDimensions(); err != nil {
		return err
	}
	if row > s.maxRow {
		s.maxRow = row
	}
	if col > s.maxCol {
		s.maxCol = col
	}
	return nil
}

// MaxRow returns the last used row
func (s *Sheet) MaxRow() (int, error) {
	if err := s.loadDimensions(); err != nil {
		return 0, err
	}
	return s.maxRow, nil
}

// MaxColumn returns the last used column
func (s *Sheet) MaxColumn() (int, error) {
	if err := s.loadDimensions(); err != nil {
		return 0, err
	}
	return s.maxCol, nil
}

func (s *Sheet) loadDimensions() error {
	if s.loaded {
		return nil
	}

	rows, err := s.file.GetRows(s.name, excelize.Options{RawCellValue: true})
	if err != nil {
		return fmt.Errorf("failed to get rows: %w", err)
	}

	s.maxRow = len(rows)
	s.maxCol = 0
	for _, row := range rows {
		if len(row) > s.maxCol {
			s.maxCol = len(row)
		}
	}
	s.loaded = true
	return nil
}

// cellValue flattens composite remote values excelize cannot store natively
func cellValue(v interface{}) interface{} {
	switch val := v.(type) {
	case []interface{}:
		return joinValues(val)
	case []string:
		items := make([]interface{}, len(val))
		for i, item := range val {
			items[i] = item
		}
		return joinValues(items)
	case map[string]interface{}:
		if display, ok := val["display_value"]; ok {
			return cellValue(display)
		}
		if name, ok := val["name"]; ok {
			return cellValue(name)
		}
		return fmt.Sprintf("%v", val)
	default:
		return v
	}
}

func joinValues(items []interface{}) string {
	result := ""
	for i, item := range items {
		if i > 0 {
			result += ", "
		}
		result += fmt.Sprintf("%v", cellValue(item))
	}
	return result
}
