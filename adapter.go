package sheetsync

import "context"

// Column describes one field of a remote table
type Column struct {
	Name string
	Type string // backend specific, e.g. "text", "number", "date"
}

// TableSchema describes one remote table
type TableSchema struct {
	Name    string
	Columns []Column
}

// Schema is the full schema description of a remote source
type Schema struct {
	Tables []TableSchema
}

// Table returns the first table named name, or false
func (s *Schema) Table(name string) (*TableSchema, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// RemoteSource is the read-only view of the remote table backend.
// Authentication and transport are the implementation's concern.
type RemoteSource interface {
	// GetSchema retrieves the description of every table in the source
	GetSchema(ctx context.Context) (*Schema, error)

	// ListRows retrieves all rows of a table in source order
	ListRows(ctx context.Context, table string) ([]*RemoteRow, error)
}

// Sheet is one worksheet of an open workbook. Rows and columns are 1-based.
type Sheet interface {
	Name() string

	// Value returns the cell's displayed value, "" for empty cells
	Value(row, col int) (string, error)

	// SetValue writes v with its native type
	SetValue(row, col int, v interface{}) error

	// MaxRow returns the last used row
	MaxRow() (int, error)

	// MaxColumn returns the last used column
	MaxColumn() (int, error)
}

// Workbook is an open spreadsheet file
type Workbook interface {
	// Sheet returns the named sheet or an error wrapping ErrSheetNotFound
	Sheet(name string) (Sheet, error)

	// Save writes the whole workbook to path
	Save(path string) error

	Close() error
}

// WorkbookOpener opens workbooks from disk
type WorkbookOpener interface {
	Open(path string) (Workbook, error)
}
