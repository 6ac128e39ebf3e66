package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	sheetsync "github.com/ideamans/go-sheetsync"
	"github.com/ideamans/go-sheetsync/adapters/excel"
	"github.com/ideamans/go-sheetsync/adapters/seatable"
	"github.com/ideamans/go-sheetsync/internal/logging"
	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"
)

const workbookPath = "./example_data.xlsx"

func main() {
	// SEATABLE_SERVER_URL and SEATABLE_API_TOKEN may come from .env
	_ = godotenv.Load()
	logger := logging.NewConsole(os.Stderr)

	source, err := seatable.New(context.Background(), &seatable.Config{
		ServerURL: os.Getenv("SEATABLE_SERVER_URL"),
		APIToken:  os.Getenv("SEATABLE_API_TOKEN"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create SeaTable source")
	}

	// 1. Create a workbook to sync into if there is none yet
	if _, err := os.Stat(workbookPath); errors.Is(err, os.ErrNotExist) {
		logger.Info().Str("path", workbookPath).Msg("Creating workbook")
		if err := createWorkbook(workbookPath); err != nil {
			logger.Fatal().Err(err).Msg("Failed to create workbook")
		}
	}

	// 2. Sync two tables into two sheets of the same workbook
	specs := []sheetsync.TableSpec{
		{
			Table:                 "Users",
			SpreadsheetPath:       workbookPath,
			SheetName:             "users",
			RelationField:         "email",
			RelationFieldMappings: sheetsync.Mappings{{Remote: "email", Column: "Email"}},
			FieldMappings: sheetsync.Mappings{
				{Remote: "name", Column: "Name"},
				{Remote: "department", Column: "Department"},
				{Remote: "active", Column: "Active"},
			},
		},
		{
			Table:                 "Projects",
			SpreadsheetPath:       workbookPath,
			SheetName:             "projects",
			RelationField:         "code",
			RelationFieldMappings: sheetsync.Mappings{{Remote: "code", Column: "Code"}},
			FieldMappings: sheetsync.Mappings{
				{Remote: "status", Column: "Status"},
				{Remote: "deadline", Column: "Deadline"},
			},
		},
	}

	syncer := sheetsync.New(source, excel.New(nil), &sheetsync.Config{Logger: &logger})
	batch := syncer.SyncAll(context.Background(), specs)

	// 3. Print the outcome of each table
	for _, report := range batch.Tables {
		if !report.OK() {
			fmt.Printf("  %-10s FAILED: %v\n", report.Table, report.Err)
			continue
		}
		fmt.Printf("  %-10s matched %d, wrote %d cells, snapshot %s\n",
			report.Table, report.Matched, report.Written, report.SnapshotPath)
	}

	if len(batch.Failed()) > 0 {
		os.Exit(1)
	}
}

// createWorkbook writes a title row and a header row for each sheet, plus
// the relation keys the sync will fill in.
func createWorkbook(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := map[string][][]interface{}{
		"users": {
			{"Users"},
			{"Email", "Name", "Department", "Active"},
			{"alice@example.com"},
			{"bob@example.com"},
			{"charlie@example.com"},
		},
		"projects": {
			{"Projects"},
			{"Code", "Status", "Deadline"},
			{"P-001"},
			{"P-002"},
		},
	}

	for name, rows := range sheets {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return err
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	return f.SaveAs(path)
}
