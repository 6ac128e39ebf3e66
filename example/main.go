package main

import (
	"context"
	"fmt"
	"os"
	"time"

	sheetsync "github.com/ideamans/go-sheetsync"
	"github.com/ideamans/go-sheetsync/adapters/excel"
	"github.com/ideamans/go-sheetsync/adapters/googlesheets"
	"github.com/ideamans/go-sheetsync/internal/logging"
	"github.com/rs/zerolog"
)

func main() {
	logger := logging.NewConsole(os.Stderr)
	if err := run(&logger); err != nil {
		logger.Fatal().Err(err).Msg("Sync failed")
	}
}

func run(logger *zerolog.Logger) error {
	ctx := context.Background()

	// Every tab of the spreadsheet is a remote table; row 1 holds field names
	sourceConfig := googlesheets.Config{
		SpreadsheetID: "your-spreadsheet-id",
	}

	// Initialize Google Sheets source with JSON key file
	source, err := googlesheets.NewWithJSONKeyFile(ctx, sourceConfig, "./service-account.json")
	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}

	syncer := sheetsync.New(source, excel.New(nil), &sheetsync.Config{
		RemoteTimeout: 30 * time.Second,
		Logger:        logger,
	})

	// The "Employees" tab updates the Staff sheet of a local workbook,
	// pairing rows by employee number.
	spec := sheetsync.TableSpec{
		Table:           "Employees",
		SpreadsheetPath: "./Employees.xlsx",
		SheetName:       "Staff",
		RelationField:   "id",
		RelationFieldMappings: sheetsync.Mappings{
			{Remote: "id", Column: "Employee No"},
		},
		FieldMappings: sheetsync.Mappings{
			{Remote: "name", Column: "Name"},
			{Remote: "department", Column: "Department"},
			{Remote: "joined_at", Column: "Joined"},
		},
		Filters: []sheetsync.Condition{
			{Column: "active", Operator: "==", Value: true},
		},
	}

	report, err := syncer.SyncTable(ctx, spec)
	if err != nil {
		return fmt.Errorf("failed to sync %s: %w", spec.Table, err)
	}

	fmt.Printf("Matched %d of %d rows, wrote %d cells\n", report.Matched, report.Considered, report.Written)
	fmt.Printf("Live workbook: %s\n", report.LivePath)
	fmt.Printf("Snapshot:      %s\n", report.SnapshotPath)
	return nil
}
