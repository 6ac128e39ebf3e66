package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	sheetsync "github.com/ideamans/go-sheetsync"
)

const dateFlagLayout = "20060102"

func (a *App) newTablesCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables of a config and the workbooks they update",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			batch, err := a.loadBatch(configPath)
			if err != nil {
				return err
			}

			if _, err := fmt.Fprintf(a.out, "%s [%s]\n", batch.DisplayName(), batch.Source.Type); err != nil {
				return err
			}

			rows := make([][]string, 0, len(batch.Tables))
			for _, spec := range batch.Specs() {
				column, _ := spec.RelationColumn()
				rows = append(rows, []string{
					spec.Table,
					spec.SheetName,
					spec.SpreadsheetPath,
					spec.RelationField + " -> " + column,
					fmt.Sprint(len(spec.FieldMappings)),
				})
			}
			return renderTable(a.out, []string{"Table", "Sheet", "Workbook", "Relation", "Fields"}, rows)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "batch config file (JSON or YAML)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func (a *App) newSnapshotPathCommand() *cobra.Command {
	var (
		configPath string
		tables     []string
		date       string
		snapshot   string
	)

	cmd := &cobra.Command{
		Use:   "snapshot-path",
		Short: "Print where the dated copy of a workbook is written",
		Long: `Print the path the next sync would copy each workbook to. Under the
sequence policy, copies already made that day are skipped over.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			policy, err := ParseSnapshotPolicy(snapshot)
			if err != nil {
				return err
			}
			day := a.now()
			if date != "" {
				parsed, err := time.ParseInLocation(dateFlagLayout, date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date %q, want YYYYMMDD", date)
				}
				day = parsed
			}

			batch, err := a.loadBatch(configPath)
			if err != nil {
				return err
			}
			specs, err := batch.Select(tables)
			if err != nil {
				return err
			}

			for _, spec := range specs {
				path, err := sheetsync.NextDatedPath(spec.SpreadsheetPath, day, policy)
				if err != nil {
					return fmt.Errorf("failed to resolve snapshot path for %s: %w", spec.Table, err)
				}
				if _, err := fmt.Fprintln(a.out, path); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "batch config file (JSON or YAML)")
	cmd.Flags().StringSliceVarP(&tables, "table", "t", nil, "table name (repeatable, default all)")
	cmd.Flags().StringVar(&date, "date", "", "snapshot date as YYYYMMDD (default today)")
	cmd.Flags().StringVar(&snapshot, "snapshot", "sequence", "same-day snapshot policy: sequence or overwrite")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
