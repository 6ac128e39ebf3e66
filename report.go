package sheetsync

import "time"

// TableReport is the outcome of one table's sync
type TableReport struct {
	Table        string
	Fetched      int // remote rows listed
	Considered   int // remote rows left after filters
	Matched      int // remote rows paired with a spreadsheet row
	Written      int // cells overwritten
	LivePath     string
	SnapshotPath string
	Duration     time.Duration
	Err          error
}

// OK reports whether the table synced and committed without error
func (r *TableReport) OK() bool {
	return r.Err == nil
}

// BatchReport collects table reports in processing order
type BatchReport struct {
	Tables []*TableReport
}

// Failed returns the reports of tables that ended with an error
func (b *BatchReport) Failed() []*TableReport {
	var failed []*TableReport
	for _, r := range b.Tables {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// TotalWritten sums the written cells of every table
func (b *BatchReport) TotalWritten() int {
	total := 0
	for _, r := range b.Tables {
		total += r.Written
	}
	return total
}
