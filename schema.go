package sheetsync

import (
	"context"
	"fmt"
)

// ResolveFields returns the column names a remote table declares, in order.
// It fails with ErrSchemaNotFound when the source has no such table.
func ResolveFields(ctx context.Context, source RemoteSource, table string) ([]string, error) {
	schema, err := source.GetSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get remote schema: %w", err)
	}

	ts, ok := schema.Table(table)
	if !ok {
		return nil, &SchemaError{Table: table}
	}

	fields := make([]string, len(ts.Columns))
	for i, col := range ts.Columns {
		fields[i] = col.Name
	}
	return fields, nil
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}
