package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sheetsync "github.com/ideamans/go-sheetsync"
)

const jsonBatch = `{
  "menu_description": "2025 staff memo",
  "tables": [
    {
      "table_name": "Employees",
      "excel_directory": "books",
      "excel_file_name": "Employees",
      "sheet_name": "Staff",
      "relation_field": "id",
      "relation_field_mappings": {"id": "Employee No"},
      "field_mappings": {"name": "Name", "dept": "Department", "email": "Email"}
    }
  ]
}`

const yamlBatch = `
menu_description: Projects
source:
  type: GoogleSheets
  spreadsheet_id: sheet-123
  credentials_file: sa.json
tables:
  - table_name: Projects
    excel_path: /data/projects.xlsm
    sheet_name: Board
    relation_field: code
    relation_field_mappings:
      code: Code
    field_mappings:
      status: Status
      deadline: Deadline
      budget: Budget
    header_row: 1
    filters:
      - column: status
        operator: in
        value: [open, blocked]
      - column: budget
        operator: ">="
        value: 1000
`

func writeBatch(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_JSON(t *testing.T) {
	path := writeBatch(t, "memo-ana2025.json", jsonBatch)

	b, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SourceSeaTable, b.Source.Type)
	assert.Equal(t, "memo-ana2025", b.Name())
	assert.Equal(t, "2025 staff memo (memo-ana2025)", b.DisplayName())

	specs := b.Specs()
	require.Len(t, specs, 1)
	spec := specs[0]

	assert.Equal(t, "Employees", spec.Table)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "books", "Employees.xlsx"), spec.SpreadsheetPath)
	assert.Equal(t, 2, spec.HeaderRow)
	assert.Equal(t, 3, spec.DataStartRow)
	assert.Equal(t, sheetsync.Mappings{{Remote: "id", Column: "Employee No"}}, spec.RelationFieldMappings)

	// mapping order follows the file, not the alphabet
	assert.Equal(t, sheetsync.Mappings{
		{Remote: "name", Column: "Name"},
		{Remote: "dept", Column: "Department"},
		{Remote: "email", Column: "Email"},
	}, spec.FieldMappings)
}

func TestLoad_YAML(t *testing.T) {
	path := writeBatch(t, "projects.yaml", yamlBatch)

	b, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SourceGoogleSheets, b.Source.Type)
	assert.Equal(t, "Projects (projects)", b.DisplayName())

	spec := b.Specs()[0]
	assert.Equal(t, "/data/projects.xlsm", spec.SpreadsheetPath)
	assert.Equal(t, 1, spec.HeaderRow)
	assert.Equal(t, 2, spec.DataStartRow)
	assert.Equal(t, []string{"Status", "Deadline", "Budget"}, spec.FieldMappings.Headers())

	require.Len(t, spec.Filters, 2)
	assert.Equal(t, "in", spec.Filters[0].Operator)
	assert.Equal(t, []interface{}{"open", "blocked"}, spec.Filters[0].Value)
	require.NoError(t, sheetsync.ValidateConditions(spec.Filters))

	row := sheetsync.NewRemoteRow()
	row.Set("status", "open")
	row.Set("budget", 1500.0)
	assert.True(t, row.Matches(spec.Filters))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "no tables",
			content: `{"menu_description": "empty"}`,
			want:    "no tables",
		},
		{
			name:    "unknown source",
			content: `{"source": {"type": "airtable"}, "tables": []}`,
			want:    "unknown source type",
		},
		{
			name:    "googlesheets without id",
			content: `{"source": {"type": "googlesheets"}, "tables": []}`,
			want:    "spreadsheet_id",
		},
		{
			name: "no workbook",
			content: `{"tables": [{"table_name": "T", "sheet_name": "S", "relation_field": "id", "relation_field_mappings": {"id": "ID"}}]}`,
			want: "excel_path or excel_file_name",
		},
		{
			name: "relation field not mapped",
			content: `{"tables": [{"table_name": "T", "excel_file_name": "t", "sheet_name": "S", "relation_field": "id", "relation_field_mappings": {"code": "Code"}}]}`,
			want: "relation field",
		},
		{
			name: "duplicate table",
			content: `{"tables": [ {"table_name": "T", "excel_file_name": "t", "sheet_name": "S", "relation_field": "id", "relation_field_mappings": {"id": "ID"}}, {"table_name": "T", "excel_file_name": "t", "sheet_name": "S", "relation_field": "id", "relation_field_mappings": {"id": "ID"}} ]}`,
			want: "listed twice",
		},
		{
			name: "bad filter",
			content: `{"tables": [{"table_name": "T", "excel_file_name": "t", "sheet_name": "S", "relation_field": "id", "relation_field_mappings": {"id": "ID"}, "filters": [{"column": "x", "operator": "like", "value": "a"}]}]}`,
			want: "invalid operator",
		},
		{
			name:    "malformed",
			content: `{"tables": [`,
			want:    "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeBatch(t, "batch.json", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestBatch_Select(t *testing.T) {
	b, err := Parse([]byte(`{"tables": [ {"table_name": "A", "excel_file_name": "a", "sheet_name": "S", "relation_field": "id", "relation_field_mappings": {"id": "ID"}}, {"table_name": "B", "excel_file_name": "b", "sheet_name": "S", "relation_field": "id", "relation_field_mappings": {"id": "ID"}} ]}`))
	require.NoError(t, err)

	all, err := b.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	picked, err := b.Select([]string{"B"})
	require.NoError(t, err)
	require.Len(t, picked, 1)
	assert.Equal(t, "B", picked[0].Table)
	assert.Equal(t, "b.xlsx", picked[0].SpreadsheetPath)

	_, err = b.Select([]string{"C"})
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestFieldMap_RejectsEmptyColumn(t *testing.T) {
	_, err := Parse([]byte("tables:\n  - field_mappings:\n      name:\n"))
	assert.Error(t, err)
}

func TestTokenEnvName(t *testing.T) {
	assert.Equal(t, "MEMO_ANA2025_SEATABLE_API_TOKEN", TokenEnvName("memo-ana2025"))
	assert.Equal(t, "STAFF_SEATABLE_API_TOKEN", TokenEnvName("staff"))
}

func TestBatch_Credentials(t *testing.T) {
	t.Run("seatable batch token wins over default", func(t *testing.T) {
		t.Setenv(EnvServerURL, "https://cloud.seatable.io")
		t.Setenv(EnvDefaultAPIToken, "default-token")
		t.Setenv("MEMO_ANA2025_SEATABLE_API_TOKEN", "memo-token")

		b := &Batch{Path: "/cfg/memo-ana2025.json", Source: SourceConfig{Type: SourceSeaTable}}
		creds, err := b.Credentials(NewViper())
		require.NoError(t, err)
		assert.Equal(t, "https://cloud.seatable.io", creds.ServerURL)
		assert.Equal(t, "memo-token", creds.APIToken)
	})

	t.Run("seatable default token", func(t *testing.T) {
		t.Setenv(EnvServerURL, "https://env.example")
		t.Setenv(EnvDefaultAPIToken, "default-token")

		b := &Batch{Path: "/cfg/other.json", Source: SourceConfig{Type: SourceSeaTable, ServerURL: "https://file.example"}}
		creds, err := b.Credentials(NewViper())
		require.NoError(t, err)
		assert.Equal(t, "https://file.example", creds.ServerURL)
		assert.Equal(t, "default-token", creds.APIToken)
	})

	t.Run("seatable missing token", func(t *testing.T) {
		t.Setenv(EnvServerURL, "https://env.example")
		t.Setenv(EnvDefaultAPIToken, "")

		b := &Batch{Path: "/cfg/lonely.json", Source: SourceConfig{Type: SourceSeaTable}}
		_, err := b.Credentials(NewViper())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LONELY_SEATABLE_API_TOKEN")
	})

	t.Run("googlesheets credentials relative to config", func(t *testing.T) {
		t.Setenv(EnvGoogleCredentials, "/etc/adc.json")

		b := &Batch{Path: "/cfg/sheets.yaml", Source: SourceConfig{Type: SourceGoogleSheets, CredentialsFile: "sa.json"}}
		creds, err := b.Credentials(NewViper())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/cfg", "sa.json"), creds.CredentialsFile)

		b.Source.CredentialsFile = ""
		creds, err = b.Credentials(NewViper())
		require.NoError(t, err)
		assert.Equal(t, "/etc/adc.json", creds.CredentialsFile)
	})
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SHEETSYNC_TEST_A=env\nSHEETSYNC_TEST_B=env\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("SHEETSYNC_TEST_A=local\n"), 0o644))

	// register cleanup for variables godotenv sets
	t.Setenv("SHEETSYNC_TEST_A", "")
	t.Setenv("SHEETSYNC_TEST_B", "")
	os.Unsetenv("SHEETSYNC_TEST_A")
	os.Unsetenv("SHEETSYNC_TEST_B")

	loaded := LoadEnvFiles(dir)
	assert.Len(t, loaded, 2)
	assert.Equal(t, "local", os.Getenv("SHEETSYNC_TEST_A"))
	assert.Equal(t, "env", os.Getenv("SHEETSYNC_TEST_B"))
}

func TestBatch_GoogleHeaderRow(t *testing.T) {
	assert.Equal(t, 1, (&Batch{}).GoogleHeaderRow())
	assert.Equal(t, 3, (&Batch{Source: SourceConfig{HeaderRow: 3}}).GoogleHeaderRow())
}
