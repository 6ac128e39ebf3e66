package sheetsync_test

import (
	"errors"
	"reflect"
	"testing"

	sheetsync "github.com/ideamans/go-sheetsync"
)

func validSpec() sheetsync.TableSpec {
	return sheetsync.TableSpec{
		Table:                 "Employees",
		SpreadsheetPath:       "/data/Employees.xlsx",
		SheetName:             "Staff",
		RelationField:         "id",
		RelationFieldMappings: sheetsync.Mappings{{Remote: "id", Column: "Employee No"}},
		FieldMappings:         sheetsync.Mappings{{Remote: "name", Column: "Name"}},
	}.WithDefaults()
}

func TestTableSpec_WithDefaults(t *testing.T) {
	spec := sheetsync.TableSpec{}.WithDefaults()
	if spec.HeaderRow != 2 || spec.DataStartRow != 3 {
		t.Errorf("defaults = header %d, data %d, want 2, 3", spec.HeaderRow, spec.DataStartRow)
	}

	spec = sheetsync.TableSpec{HeaderRow: 1}.WithDefaults()
	if spec.DataStartRow != 2 {
		t.Errorf("DataStartRow = %d, want 2", spec.DataStartRow)
	}

	spec = sheetsync.TableSpec{HeaderRow: 4, DataStartRow: 7}.WithDefaults()
	if spec.HeaderRow != 4 || spec.DataStartRow != 7 {
		t.Errorf("explicit rows overridden: %d, %d", spec.HeaderRow, spec.DataStartRow)
	}
}

func TestTableSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*sheetsync.TableSpec)
		wantErr error
	}{
		{name: "valid", modify: func(*sheetsync.TableSpec) {}},
		{name: "missing table", modify: func(s *sheetsync.TableSpec) { s.Table = "" }, wantErr: sheetsync.ErrInvalidSpec},
		{name: "missing path", modify: func(s *sheetsync.TableSpec) { s.SpreadsheetPath = "" }, wantErr: sheetsync.ErrInvalidSpec},
		{name: "missing sheet", modify: func(s *sheetsync.TableSpec) { s.SheetName = "" }, wantErr: sheetsync.ErrInvalidSpec},
		{name: "missing relation field", modify: func(s *sheetsync.TableSpec) { s.RelationField = "" }, wantErr: sheetsync.ErrInvalidSpec},
		{
			name:    "relation field not mapped",
			modify:  func(s *sheetsync.TableSpec) { s.RelationField = "code" },
			wantErr: sheetsync.ErrRelationMappingMissing,
		},
		{
			name:    "data above header",
			modify:  func(s *sheetsync.TableSpec) { s.DataStartRow = 2 },
			wantErr: sheetsync.ErrInvalidSpec,
		},
		{
			name:    "empty column",
			modify:  func(s *sheetsync.TableSpec) { s.FieldMappings = append(s.FieldMappings, sheetsync.Mapping{Remote: "x"}) },
			wantErr: sheetsync.ErrInvalidSpec,
		},
		{
			name: "bad filter",
			modify: func(s *sheetsync.TableSpec) {
				s.Filters = []sheetsync.Condition{{Column: "status", Operator: "like", Value: "a"}}
			},
			wantErr: sheetsync.ErrInvalidSpec,
		},
		{
			name:   "no field mappings",
			modify: func(s *sheetsync.TableSpec) { s.FieldMappings = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.modify(&spec)
			err := spec.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			var specErr *sheetsync.SpecError
			if !errors.As(err, &specErr) {
				t.Errorf("Validate() error %T is not a SpecError", err)
			}
		})
	}
}

func TestTableSpec_RelationColumn(t *testing.T) {
	spec := validSpec()
	col, err := spec.RelationColumn()
	if err != nil || col != "Employee No" {
		t.Errorf("RelationColumn() = %q, %v", col, err)
	}
}

func TestMappings(t *testing.T) {
	m := sheetsync.Mappings{
		{Remote: "name", Column: "Name"},
		{Remote: "full_name", Column: "Name"},
		{Remote: "dept", Column: "Department"},
	}

	if col, ok := m.Lookup("dept"); !ok || col != "Department" {
		t.Errorf("Lookup(dept) = %q, %v", col, ok)
	}
	if _, ok := m.Lookup("salary"); ok {
		t.Error("Lookup(salary) should miss")
	}
	if got := m.Headers(); !reflect.DeepEqual(got, []string{"Name", "Department"}) {
		t.Errorf("Headers() = %v", got)
	}
}

func TestErrors(t *testing.T) {
	if !errors.Is(&sheetsync.SchemaError{Table: "T"}, sheetsync.ErrSchemaNotFound) {
		t.Error("table SchemaError should match ErrSchemaNotFound")
	}
	fieldErr := &sheetsync.SchemaError{Table: "T", Field: "f"}
	if !errors.Is(fieldErr, sheetsync.ErrFieldNotFound) || errors.Is(fieldErr, sheetsync.ErrSchemaNotFound) {
		t.Error("field SchemaError should match ErrFieldNotFound only")
	}
	if !errors.Is(&sheetsync.ColumnError{Header: "h"}, sheetsync.ErrColumnNotFound) {
		t.Error("ColumnError should match ErrColumnNotFound")
	}
}

func TestReports(t *testing.T) {
	batch := &sheetsync.BatchReport{Tables: []*sheetsync.TableReport{
		{Table: "A", Written: 3},
		{Table: "B", Written: 1, Err: errors.New("boom")},
		{Table: "C", Written: 2},
	}}
	if got := batch.TotalWritten(); got != 6 {
		t.Errorf("TotalWritten() = %d, want 6", got)
	}
	failed := batch.Failed()
	if len(failed) != 1 || failed[0].Table != "B" || failed[0].OK() {
		t.Errorf("Failed() = %+v", failed)
	}
}
