// Package sourcetest holds a conformance suite every sheetsync.RemoteSource
// implementation is run through, against fakes and live backends alike.
package sourcetest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	sheetsync "github.com/ideamans/go-sheetsync"
)

// Case describes what a source is expected to serve
type Case struct {
	Name   string
	Source sheetsync.RemoteSource

	Table        string   // a table that exists
	Fields       []string // its fields in schema order, nil skips the check
	MinRows      int      // rows ListRows must return at least
	UnknownTable string   // a table that does not exist, "" skips the check
}

// Run checks the behavior the sync engine relies on
func Run(t *testing.T, tc Case) {
	t.Helper()

	t.Run(tc.Name+"/schema", func(t *testing.T) {
		schema, err := tc.Source.GetSchema(context.Background())
		if err != nil {
			t.Fatalf("GetSchema() error = %v", err)
		}
		if _, ok := schema.Table(tc.Table); !ok {
			t.Fatalf("GetSchema() has no table %q", tc.Table)
		}

		fields, err := sheetsync.ResolveFields(context.Background(), tc.Source, tc.Table)
		if err != nil {
			t.Fatalf("ResolveFields() error = %v", err)
		}
		if tc.Fields != nil && !reflect.DeepEqual(fields, tc.Fields) {
			t.Errorf("ResolveFields() = %v, want %v", fields, tc.Fields)
		}

		_, err = sheetsync.ResolveFields(context.Background(), tc.Source, "no such table ~")
		if !errors.Is(err, sheetsync.ErrSchemaNotFound) {
			t.Errorf("ResolveFields(missing) error = %v, want ErrSchemaNotFound", err)
		}
	})

	t.Run(tc.Name+"/rows", func(t *testing.T) {
		rows, err := tc.Source.ListRows(context.Background(), tc.Table)
		if err != nil {
			t.Fatalf("ListRows() error = %v", err)
		}
		if rows == nil {
			t.Fatal("ListRows() returned nil slice")
		}
		if len(rows) < tc.MinRows {
			t.Fatalf("ListRows() got %d rows, want at least %d", len(rows), tc.MinRows)
		}

		for i, row := range rows {
			if len(row.Fields) != len(row.Values) {
				t.Errorf("row %d: %d fields but %d values", i, len(row.Fields), len(row.Values))
			}
			for _, f := range row.Fields {
				if !row.Has(f) {
					t.Errorf("row %d: field %q listed without a value", i, f)
				}
			}
			if tc.Fields != nil && !inSchemaOrder(row.Fields, tc.Fields) {
				t.Errorf("row %d fields = %v, want schema order %v", i, row.Fields, tc.Fields)
			}
		}
	})

	if tc.UnknownTable != "" {
		t.Run(tc.Name+"/unknown table", func(t *testing.T) {
			if _, err := tc.Source.ListRows(context.Background(), tc.UnknownTable); err == nil {
				t.Errorf("ListRows(%q) should fail", tc.UnknownTable)
			}
		})
	}

	t.Run(tc.Name+"/canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := tc.Source.ListRows(ctx, tc.Table); err == nil {
			t.Error("ListRows() with canceled context should fail")
		}
	})
}

// inSchemaOrder reports whether the schema fields of a row come first and
// in schema order. Absent fields are allowed.
func inSchemaOrder(fields, schema []string) bool {
	index := make(map[string]int, len(schema))
	for i, f := range schema {
		index[f] = i
	}

	last := -1
	extra := false
	for _, f := range fields {
		i, ok := index[f]
		if !ok {
			extra = true
			continue
		}
		if extra || i <= last {
			return false
		}
		last = i
	}
	return true
}
