package seatable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	sheetsync "github.com/ideamans/go-sheetsync"
	"golang.org/x/oauth2"
)

// Source implements sheetsync.RemoteSource for a SeaTable base
type Source struct {
	config Config
	http   *http.Client

	tokenMu sync.Mutex
	token   *oauth2.Token // app access token, nil until the first request

	mu      sync.Mutex
	columns map[string][]sheetsync.Column // table -> columns from the last metadata fetch
}

// New creates a SeaTable source. The access token is fetched lazily on
// the first request, under that request's context, and reused until it
// expires.
func New(ctx context.Context, config *Config) (*Source, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	cfg := config.withDefaults()
	return &Source{
		config:  cfg,
		http:    cfg.HTTPClient,
		columns: make(map[string][]sheetsync.Column),
	}, nil
}

type metadataResponse struct {
	Metadata struct {
		Tables []struct {
			Name    string `json:"name"`
			Columns []struct {
				Key  string `json:"key"`
				Name string `json:"name"`
				Type string `json:"type"`
			} `json:"columns"`
		} `json:"tables"`
	} `json:"metadata"`
}

type rowsResponse struct {
	Rows []map[string]interface{} `json:"rows"`
}

// GetSchema fetches the base metadata
func (s *Source) GetSchema(ctx context.Context) (*sheetsync.Schema, error) {
	token, base, err := s.endpoint(ctx)
	if err != nil {
		return nil, err
	}

	var resp metadataResponse
	if err := getJSON(ctx, s.http, base+"/metadata/", token, s.config.MaxRetries, &resp); err != nil {
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}

	schema := &sheetsync.Schema{Tables: make([]sheetsync.TableSchema, 0, len(resp.Metadata.Tables))}
	columns := make(map[string][]sheetsync.Column, len(resp.Metadata.Tables))
	for _, t := range resp.Metadata.Tables {
		table := sheetsync.TableSchema{Name: t.Name, Columns: make([]sheetsync.Column, 0, len(t.Columns))}
		for _, c := range t.Columns {
			table.Columns = append(table.Columns, sheetsync.Column{Name: c.Name, Type: c.Type})
		}
		schema.Tables = append(schema.Tables, table)
		if _, seen := columns[t.Name]; !seen {
			columns[t.Name] = table.Columns
		}
	}

	s.mu.Lock()
	s.columns = columns
	s.mu.Unlock()

	return schema, nil
}

// ListRows pages through every row of a table. Date columns become
// time.Time; fields keep the schema's column order.
func (s *Source) ListRows(ctx context.Context, table string) ([]*sheetsync.RemoteRow, error) {
	columns, err := s.tableColumns(ctx, table)
	if err != nil {
		return nil, err
	}

	token, base, err := s.endpoint(ctx)
	if err != nil {
		return nil, err
	}

	var rows []*sheetsync.RemoteRow
	for start := 0; ; start += s.config.PageSize {
		query := url.Values{}
		query.Set("table_name", table)
		query.Set("start", strconv.Itoa(start))
		query.Set("limit", strconv.Itoa(s.config.PageSize))
		query.Set("convert_link_id", "true")

		var page rowsResponse
		if err := getJSON(ctx, s.http, base+"/rows/?"+query.Encode(), token, s.config.MaxRetries, &page); err != nil {
			return nil, fmt.Errorf("failed to list rows of %s: %w", table, err)
		}

		for _, raw := range page.Rows {
			rows = append(rows, convertRow(raw, columns))
		}
		if len(page.Rows) < s.config.PageSize {
			break
		}
	}

	if rows == nil {
		rows = []*sheetsync.RemoteRow{}
	}
	return rows, nil
}

// endpoint returns the access token and the API root of the base
func (s *Source) endpoint(ctx context.Context) (*oauth2.Token, string, error) {
	token, err := s.accessToken(ctx)
	if err != nil {
		return nil, "", err
	}
	base, err := baseEndpoint(token)
	return token, base, err
}

// tableColumns returns the cached columns of table, fetching metadata once when unknown
func (s *Source) tableColumns(ctx context.Context, table string) ([]sheetsync.Column, error) {
	s.mu.Lock()
	columns, ok := s.columns[table]
	s.mu.Unlock()
	if ok {
		return columns, nil
	}

	if _, err := s.GetSchema(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.columns[table], nil
}

// convertRow orders fields by schema column, then the remaining keys
// (_id, _mtime, ...) alphabetically.
func convertRow(raw map[string]interface{}, columns []sheetsync.Column) *sheetsync.RemoteRow {
	row := sheetsync.NewRemoteRow()

	known := make(map[string]bool, len(columns))
	for _, col := range columns {
		known[col.Name] = true
		value, ok := raw[col.Name]
		if !ok {
			continue
		}
		row.Set(col.Name, convertValue(value, col.Type))
	}

	extra := make([]string, 0, len(raw))
	for key := range raw {
		if !known[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		row.Set(key, raw[key])
	}

	return row
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// convertValue maps a JSON value to its native Go type for the column type
func convertValue(v interface{}, columnType string) interface{} {
	switch columnType {
	case "date", "ctime", "mtime":
		s, ok := v.(string)
		if !ok {
			return v
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
		return s
	default:
		return v
	}
}

// getJSON performs a GET and decodes the JSON body into out, retrying
// 429/5xx responses and transport failures with exponential backoff.
func getJSON(ctx context.Context, client *http.Client, endpoint string, token *oauth2.Token, maxRetries int, out interface{}) error {
	var err error
	for i := 0; i <= maxRetries; i++ {
		var retry bool
		retry, err = getOnce(ctx, client, endpoint, token, out)
		if err == nil || !retry {
			return err
		}

		if i < maxRetries {
			// Exponential backoff with reasonable limits
			backoff := time.Duration(1<<uint(i)) * 100 * time.Millisecond
			if backoff > 2*time.Second {
				backoff = 2 * time.Second
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, err)
}

func getOnce(ctx context.Context, client *http.Client, endpoint string, token *oauth2.Token, out interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	token.SetAuthHeader(req)

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{StatusCode: resp.StatusCode, Endpoint: req.URL.Path, Message: string(body)}
		return apiErr.Temporary(), apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode response from %s: %w", req.URL.Path, err)
	}
	return false, nil
}
