package sheetsync

import (
	"context"
	"sync"
)

// ColumnCache memoizes header -> column index lookups for one sheet and
// header row. It lives for the duration of one table's sync.
type ColumnCache struct {
	mu        sync.RWMutex
	sheet     Sheet
	headerRow int
	columns   map[string]int // header -> 1-based column
	lookups   int            // header row scans performed
}

// NewColumnCache creates a new ColumnCache instance
func NewColumnCache(sheet Sheet, headerRow int) *ColumnCache {
	return &ColumnCache{
		sheet:     sheet,
		headerRow: headerRow,
		columns:   make(map[string]int),
	}
}

// Locate returns the column for a header, scanning the header row only the
// first time a header is asked for. Misses are not cached.
func (c *ColumnCache) Locate(name string) (int, error) {
	c.mu.RLock()
	col, ok := c.columns[name]
	c.mu.RUnlock()
	if ok {
		return col, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if col, ok := c.columns[name]; ok {
		return col, nil
	}

	c.lookups++
	col, err := LocateColumn(c.sheet, c.headerRow, name)
	if err != nil {
		return 0, err
	}
	c.columns[name] = col
	return col, nil
}

// Resolve locates every header, stopping at the first one missing
func (c *ColumnCache) Resolve(names []string) error {
	for _, name := range names {
		if _, err := c.Locate(name); err != nil {
			return err
		}
	}
	return nil
}

// Lookups returns how many header row scans were performed
func (c *ColumnCache) Lookups() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lookups
}

// Size returns the number of cached headers
func (c *ColumnCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.columns)
}

// Clear removes all cached headers
func (c *ColumnCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.columns = make(map[string]int)
}

// SchemaCache wraps a RemoteSource and fetches the schema only once.
// Failed fetches are not cached.
type SchemaCache struct {
	RemoteSource
	mu     sync.Mutex
	schema *Schema
}

// NewSchemaCache creates a new SchemaCache around source
func NewSchemaCache(source RemoteSource) *SchemaCache {
	return &SchemaCache{RemoteSource: source}
}

// GetSchema returns the memoized schema, fetching it on first use
func (c *SchemaCache) GetSchema(ctx context.Context) (*Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.schema != nil {
		return c.schema, nil
	}

	schema, err := c.RemoteSource.GetSchema(ctx)
	if err != nil {
		return nil, err
	}
	c.schema = schema
	return schema, nil
}

// Invalidate drops the memoized schema
func (c *SchemaCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.schema = nil
}
