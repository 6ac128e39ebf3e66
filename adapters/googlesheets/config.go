package googlesheets

// Config represents configuration specific to the Google Sheets source
type Config struct {
	SpreadsheetID string
	HeaderRow     int // row holding column names, default 1
}

func (c Config) headerRow() int {
	if c.HeaderRow <= 0 {
		return 1
	}
	return c.HeaderRow
}
