package googlesheets

import (
	"context"
	"fmt"
	"strings"

	sheetsync "github.com/ideamans/go-sheetsync"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Source implements sheetsync.RemoteSource for a Google Sheets spreadsheet.
// Every sheet tab is a table whose header row names its columns.
type Source struct {
	service       *sheets.Service
	spreadsheetID string
	headerRow     int
}

// NewSource creates a new Google Sheets source with provided options
func NewSource(ctx context.Context, config Config, opts ...option.ClientOption) (*Source, error) {
	if config.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required")
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Source{
		service:       service,
		spreadsheetID: config.SpreadsheetID,
		headerRow:     config.headerRow(),
	}, nil
}

// GetSchema lists the sheet tabs and their header rows
func (s *Source) GetSchema(ctx context.Context) (*sheetsync.Schema, error) {
	resp, err := s.service.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	schema := &sheetsync.Schema{Tables: make([]sheetsync.TableSchema, 0, len(resp.Sheets))}
	for _, sh := range resp.Sheets {
		if sh.Properties == nil {
			continue
		}
		title := sh.Properties.Title

		headerRange := fmt.Sprintf("%s!%d:%d", quoteSheet(title), s.headerRow, s.headerRow)
		values, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get header of %s: %w", title, err)
		}

		table := sheetsync.TableSchema{Name: title}
		if len(values.Values) > 0 {
			for _, name := range headerNames(values.Values[0]) {
				if name != "" {
					table.Columns = append(table.Columns, sheetsync.Column{Name: name})
				}
			}
		}
		schema.Tables = append(schema.Tables, table)
	}

	return schema, nil
}

// ListRows reads every non-empty row below the header of a sheet tab.
// Blank cells come back as nil.
func (s *Source) ListRows(ctx context.Context, table string) ([]*sheetsync.RemoteRow, error) {
	readRange := fmt.Sprintf("%s!A%d:ZZ", quoteSheet(table), s.headerRow)
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, readRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet data: %w", err)
	}

	if len(resp.Values) == 0 {
		return []*sheetsync.RemoteRow{}, nil
	}

	header := headerNames(resp.Values[0])

	rows := make([]*sheetsync.RemoteRow, 0, len(resp.Values)-1)
	for i := 1; i < len(resp.Values); i++ {
		cells := resp.Values[i]
		if isBlankRow(cells) {
			continue
		}

		row := sheetsync.NewRemoteRow()
		for j, name := range header {
			if name == "" {
				continue
			}
			var value interface{}
			if j < len(cells) {
				value = convertCellValue(cells[j])
			}
			row.Set(name, value)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func headerNames(cells []interface{}) []string {
	names := make([]string, len(cells))
	for i, cell := range cells {
		names[i] = strings.TrimSpace(fmt.Sprintf("%v", cell))
	}
	return names
}

func isBlankRow(cells []interface{}) bool {
	for _, cell := range cells {
		if convertCellValue(cell) != nil {
			return false
		}
	}
	return true
}

// quoteSheet quotes a sheet title for A1 notation when it needs it
func quoteSheet(title string) string {
	for _, r := range title {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			return "'" + strings.ReplaceAll(title, "'", "''") + "'"
		}
	}
	return title
}

// convertCellValue converts a Google Sheets cell value to Go type
func convertCellValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if val == "" {
			return nil
		}
		return val
	case float64:
		// Check if it's actually an integer
		if val == float64(int64(val)) {
			return int64(val)
		}
		return val
	case bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
