package app

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	sheetsync "github.com/ideamans/go-sheetsync"
)

// renderTable writes rows under headers with tablewriter
func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewTable(w)

	head := make([]any, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	table.Header(head...)

	for _, row := range rows {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}

// renderReport prints one line per table of a finished batch
func renderReport(w io.Writer, report *sheetsync.BatchReport) error {
	rows := make([][]string, 0, len(report.Tables))
	for _, r := range report.Tables {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		snapshot := ""
		if r.SnapshotPath != "" {
			snapshot = filepath.Base(r.SnapshotPath)
		}
		rows = append(rows, []string{
			r.Table,
			strconv.Itoa(r.Fetched),
			strconv.Itoa(r.Matched),
			strconv.Itoa(r.Written),
			snapshot,
			r.Duration.Round(time.Millisecond).String(),
			status,
		})
	}

	if err := renderTable(w, []string{"Table", "Fetched", "Matched", "Written", "Snapshot", "Duration", "Status"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d table(s), %d failed, %d cell(s) written\n",
		len(report.Tables), len(report.Failed()), report.TotalWritten())
	return err
}
