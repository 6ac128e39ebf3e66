package sheetsync

import (
	"errors"
	"fmt"
)

var (
	ErrSchemaNotFound         = errors.New("table not found in remote schema")
	ErrFieldNotFound          = errors.New("field not found in remote schema")
	ErrColumnNotFound         = errors.New("column not found in header row")
	ErrRelationMappingMissing = errors.New("relation field mapping missing")
	ErrSnapshotWriteFailed    = errors.New("snapshot write failed")
	ErrSheetNotFound          = errors.New("sheet not found")
	ErrInvalidSpec            = errors.New("invalid table spec")
)

// SchemaError reports a table or field the remote schema does not expose.
type SchemaError struct {
	Table string
	Field string // empty when the table itself is missing
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("field %q not found in remote table %q", e.Field, e.Table)
	}
	return fmt.Sprintf("table %q not found in remote schema", e.Table)
}

// Is implements errors.Is support
func (e *SchemaError) Is(target error) bool {
	if e.Field != "" {
		return target == ErrFieldNotFound
	}
	return target == ErrSchemaNotFound
}

// ColumnError reports a header missing from a sheet's header row.
type ColumnError struct {
	Sheet  string
	Header string
	Row    int
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q not found in header row %d of sheet %q", e.Header, e.Row, e.Sheet)
}

// Is implements errors.Is support
func (e *ColumnError) Is(target error) bool {
	return target == ErrColumnNotFound
}

// SpecError reports a defect in a TableSpec detected before any remote call.
type SpecError struct {
	Table   string
	Field   string
	Message string
	Err     error
}

func (e *SpecError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("table %q: %s: %s", e.Table, e.Field, e.Message)
	}
	return fmt.Sprintf("table %q: %s", e.Table, e.Message)
}

func (e *SpecError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidSpec
}

// SnapshotStage identifies which of the two snapshot writes failed.
type SnapshotStage string

const (
	StageSave SnapshotStage = "save"
	StageCopy SnapshotStage = "copy"
)

// SnapshotError carries both paths so the operator can redo the copy by hand.
// When Stage is StageCopy the live file has already been overwritten.
type SnapshotError struct {
	Stage     SnapshotStage
	LivePath  string
	DatedPath string
	Err       error
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("snapshot %s failed (live %s, dated copy %s): %v", e.Stage, e.LivePath, e.DatedPath, e.Err)
}

func (e *SnapshotError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *SnapshotError) Is(target error) bool {
	return target == ErrSnapshotWriteFailed
}

// LiveUpdated reports whether the live workbook was written before the failure.
func (e *SnapshotError) LiveUpdated() bool {
	return e.Stage == StageCopy
}
