// Package config loads batch sync configurations. A batch file lists the
// remote tables to pull and the workbook each one updates; it may be JSON
// or YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	sheetsync "github.com/ideamans/go-sheetsync"
)

// Source types
const (
	SourceSeaTable     = "seatable"
	SourceGoogleSheets = "googlesheets"
)

const defaultWorkbookExt = ".xlsx"

var (
	// ErrNoTables is returned when a batch declares no tables
	ErrNoTables = errors.New("config declares no tables")
	// ErrUnknownTable is returned when a table is not part of the batch
	ErrUnknownTable = errors.New("table not in config")
)

// Batch is one configuration file
type Batch struct {
	MenuDescription string        `yaml:"menu_description" json:"menu_description"`
	Source          SourceConfig  `yaml:"source" json:"source"`
	Tables          []TableConfig `yaml:"tables" json:"tables"`

	// Path is the file the batch was loaded from
	Path string `yaml:"-" json:"-"`
}

// SourceConfig selects and locates the remote backend. Secrets come from
// the environment, never from the file.
type SourceConfig struct {
	Type            string `yaml:"type" json:"type"` // seatable (default) or googlesheets
	ServerURL       string `yaml:"server_url" json:"server_url"`
	SpreadsheetID   string `yaml:"spreadsheet_id" json:"spreadsheet_id"`
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
	HeaderRow       int    `yaml:"header_row" json:"header_row"`
}

// TableConfig describes one remote table and the sheet it updates
type TableConfig struct {
	TableName             string         `yaml:"table_name" json:"table_name"`
	ExcelDirectory        string         `yaml:"excel_directory" json:"excel_directory"`
	ExcelFileName         string         `yaml:"excel_file_name" json:"excel_file_name"` // without extension means .xlsx
	ExcelPath             string         `yaml:"excel_path" json:"excel_path"`           // overrides directory + file name
	SheetName             string         `yaml:"sheet_name" json:"sheet_name"`
	RelationField         string         `yaml:"relation_field" json:"relation_field"`
	RelationFieldMappings FieldMap       `yaml:"relation_field_mappings" json:"relation_field_mappings"`
	FieldMappings         FieldMap       `yaml:"field_mappings" json:"field_mappings"`
	HeaderRow             int            `yaml:"header_row" json:"header_row"`
	DataStartRow          int            `yaml:"data_start_row" json:"data_start_row"`
	Filters               []FilterConfig `yaml:"filters" json:"filters"`
}

// FilterConfig is one row filter
type FilterConfig struct {
	Column   string      `yaml:"column" json:"column"`
	Operator string      `yaml:"operator" json:"operator"`
	Value    interface{} `yaml:"value" json:"value"`
}

// FieldMap is a remote field -> column header mapping that keeps the
// order of the file.
type FieldMap sheetsync.Mappings

// UnmarshalYAML decodes a mapping in document order
func (m *FieldMap) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var items yaml.MapSlice
	if err := unmarshal(&items); err != nil {
		return err
	}

	result := make(FieldMap, 0, len(items))
	for _, item := range items {
		remote := fmt.Sprint(item.Key)
		column, ok := item.Value.(string)
		if !ok {
			if item.Value == nil {
				return fmt.Errorf("mapping for %q has no column", remote)
			}
			column = fmt.Sprint(item.Value)
		}
		result = append(result, sheetsync.Mapping{Remote: remote, Column: column})
	}
	*m = result
	return nil
}

// Load reads and validates a batch file
func Load(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	b.Path = path

	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return b, nil
}

// Parse decodes a batch from JSON or YAML
func Parse(data []byte) (*Batch, error) {
	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	if b.Source.Type == "" {
		b.Source.Type = SourceSeaTable
	}
	b.Source.Type = strings.ToLower(b.Source.Type)
	return &b, nil
}

// Name is the file name without extension, e.g. "memo-ana2025"
func (b *Batch) Name() string {
	base := filepath.Base(b.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DisplayName is the menu description followed by the file name
func (b *Batch) DisplayName() string {
	if b.MenuDescription == "" {
		return b.Name()
	}
	return fmt.Sprintf("%s (%s)", b.MenuDescription, b.Name())
}

// Validate checks the batch and every table spec it produces
func (b *Batch) Validate() error {
	switch b.Source.Type {
	case SourceSeaTable:
	case SourceGoogleSheets:
		if b.Source.SpreadsheetID == "" {
			return errors.New("source.spreadsheet_id is required for googlesheets")
		}
	default:
		return fmt.Errorf("unknown source type %q", b.Source.Type)
	}

	if len(b.Tables) == 0 {
		return ErrNoTables
	}

	seen := make(map[string]bool, len(b.Tables))
	for i, t := range b.Tables {
		if t.ExcelPath == "" && t.ExcelFileName == "" {
			return fmt.Errorf("tables[%d]: excel_path or excel_file_name is required", i)
		}
		spec := b.spec(t)
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("tables[%d]: %w", i, err)
		}
		key := t.TableName + "\x00" + spec.SpreadsheetPath + "\x00" + t.SheetName
		if seen[key] {
			return fmt.Errorf("tables[%d]: %s is listed twice for the same sheet", i, t.TableName)
		}
		seen[key] = true
	}
	return nil
}

// Specs converts every table into an engine spec, in file order
func (b *Batch) Specs() []sheetsync.TableSpec {
	specs := make([]sheetsync.TableSpec, len(b.Tables))
	for i, t := range b.Tables {
		specs[i] = b.spec(t)
	}
	return specs
}

// Select returns the specs of the named tables, in the order given.
// No names selects every table.
func (b *Batch) Select(names []string) ([]sheetsync.TableSpec, error) {
	all := b.Specs()
	if len(names) == 0 {
		return all, nil
	}

	selected := make([]sheetsync.TableSpec, 0, len(names))
	for _, name := range names {
		found := false
		for _, spec := range all {
			if spec.Table == name {
				selected = append(selected, spec)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
		}
	}
	return selected, nil
}

// WorkbookPath returns where a table's live workbook lives. Relative
// paths are resolved against the config file's directory.
func (b *Batch) WorkbookPath(t TableConfig) string {
	path := t.ExcelPath
	if path == "" {
		name := t.ExcelFileName
		if filepath.Ext(name) == "" {
			name += defaultWorkbookExt
		}
		path = filepath.Join(t.ExcelDirectory, name)
	}
	if !filepath.IsAbs(path) && b.Path != "" {
		path = filepath.Join(filepath.Dir(b.Path), path)
	}
	return filepath.Clean(path)
}

func (b *Batch) spec(t TableConfig) sheetsync.TableSpec {
	filters := make([]sheetsync.Condition, len(t.Filters))
	for i, f := range t.Filters {
		filters[i] = sheetsync.Condition{Column: f.Column, Operator: f.Operator, Value: f.Value}
	}

	return sheetsync.TableSpec{
		Table:                 t.TableName,
		SpreadsheetPath:       b.WorkbookPath(t),
		SheetName:             t.SheetName,
		RelationField:         t.RelationField,
		RelationFieldMappings: sheetsync.Mappings(t.RelationFieldMappings),
		FieldMappings:         sheetsync.Mappings(t.FieldMappings),
		HeaderRow:             t.HeaderRow,
		DataStartRow:          t.DataStartRow,
		Filters:               filters,
	}.WithDefaults()
}
