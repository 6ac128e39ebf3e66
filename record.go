package sheetsync

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RemoteRow is one record fetched from a remote table. Fields keeps the
// order the source returned them in.
type RemoteRow struct {
	Fields []string               // field order
	Values map[string]interface{} // field name -> value, nil for null
}

// NewRemoteRow creates an empty row
func NewRemoteRow() *RemoteRow {
	return &RemoteRow{Values: make(map[string]interface{})}
}

// Set stores a value, appending the field to the order on first use
func (r *RemoteRow) Set(field string, value interface{}) {
	if r.Values == nil {
		r.Values = make(map[string]interface{})
	}
	if _, ok := r.Values[field]; !ok {
		r.Fields = append(r.Fields, field)
	}
	r.Values[field] = value
}

// Get returns the value of a field and whether the field is present
func (r *RemoteRow) Get(field string) (interface{}, bool) {
	if r == nil || r.Values == nil {
		return nil, false
	}
	v, ok := r.Values[field]
	return v, ok
}

// Has reports whether the row carries field, even with a nil value
func (r *RemoteRow) Has(field string) bool {
	_, ok := r.Get(field)
	return ok
}

// GetAsString returns the value as string or defaultValue if not found
func (r *RemoteRow) GetAsString(field string, defaultValue string) string {
	v, ok := r.Get(field)
	if !ok {
		return defaultValue
	}
	return stringify(v)
}

// GetAsFloat64 returns the value as float64 or defaultValue if not found
func (r *RemoteRow) GetAsFloat64(field string, defaultValue float64) float64 {
	v, ok := r.Get(field)
	if !ok {
		return defaultValue
	}
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// GetAsTime returns the value as time.Time or defaultValue if not found
func (r *RemoteRow) GetAsTime(field string, defaultValue time.Time) time.Time {
	v, ok := r.Get(field)
	if !ok {
		return defaultValue
	}
	switch val := v.(type) {
	case time.Time:
		return val
	case string:
		if t, ok := parseTime(val); ok {
			return t
		}
	}
	return defaultValue
}

// stringify renders a value the way spreadsheet cells display it
func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int, int64, int32:
		return fmt.Sprintf("%d", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	case []string:
		return strings.Join(val, ",")
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// normalize is the relation-key form used for matching
func normalize(v interface{}) string {
	return strings.TrimSpace(stringify(v))
}

func parseTime(s string) (time.Time, bool) {
	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, strings.TrimSpace(s)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
