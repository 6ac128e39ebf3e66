package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"

	sheetsync "github.com/ideamans/go-sheetsync"
	"github.com/ideamans/go-sheetsync/internal/logging"
)

const defaultRemoteTimeout = 30 * time.Second

type syncOptions struct {
	configPath string
	tables     []string
	strategy   string
	snapshot   string
	timeout    time.Duration
	strict     bool
}

func (a *App) newSyncCommand() *cobra.Command {
	var opts syncOptions

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the tables of a config into their workbooks",
		Example: `  sheetsync sync --config memo-ana2025.json
  sheetsync sync --config projects.yaml --table Projects --strategy scan`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSync(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "batch config file (JSON or YAML)")
	flags.StringSliceVarP(&opts.tables, "table", "t", nil, "only sync these tables (repeatable)")
	flags.StringVar(&opts.strategy, "strategy", "index", "row matching strategy: index or scan")
	flags.StringVar(&opts.snapshot, "snapshot", "sequence", "same-day snapshot policy: sequence or overwrite")
	flags.DurationVar(&opts.timeout, "timeout", defaultRemoteTimeout, "timeout per remote call, 0 disables")
	flags.BoolVar(&opts.strict, "strict", false, "fail a table when a mapped field is missing remotely")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func (a *App) runSync(ctx context.Context, opts syncOptions) error {
	strategy, err := ParseStrategy(opts.strategy)
	if err != nil {
		return err
	}
	policy, err := ParseSnapshotPolicy(opts.snapshot)
	if err != nil {
		return err
	}

	batch, err := a.loadBatch(opts.configPath)
	if err != nil {
		return err
	}
	specs, err := batch.Select(opts.tables)
	if err != nil {
		return err
	}
	creds, err := batch.Credentials(a.viper)
	if err != nil {
		return err
	}

	ctx = logging.WithRunID(logging.WithLogger(ctx, &a.logger), uuid.NewString())
	log := logging.FromContext(ctx)

	source, err := a.openSource(ctx, batch, creds)
	if err != nil {
		return fmt.Errorf("failed to open %s source: %w", batch.Source.Type, err)
	}

	syncer := sheetsync.New(source, a.opener, &sheetsync.Config{
		MatchStrategy:  strategy,
		SnapshotPolicy: policy,
		RemoteTimeout:  opts.timeout,
		StrictFields:   opts.strict,
		Now:            a.now,
		Logger:         log,
	})

	log.Info().
		Str("config", batch.DisplayName()).
		Str("source", batch.Source.Type).
		Int("tables", len(specs)).
		Stringer("strategy", strategy).
		Stringer("snapshot", policy).
		Msg("Sync started")

	report := syncer.SyncAll(ctx, specs)

	if err := renderReport(a.out, report); err != nil {
		return err
	}

	failed := report.Failed()
	log.Info().
		Int("tables", len(report.Tables)).
		Int("failed", len(failed)).
		Int("written", report.TotalWritten()).
		Msg("Sync finished")

	if len(failed) > 0 {
		return fmt.Errorf("%w: %d of %d", ErrTablesFailed, len(failed), len(report.Tables))
	}
	return nil
}

// ParseStrategy maps a flag value to a match strategy
func ParseStrategy(s string) (sheetsync.MatchStrategy, error) {
	switch foldFlag(s) {
	case "", "index":
		return sheetsync.MatchIndex, nil
	case "scan":
		return sheetsync.MatchScan, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q (want index or scan)", s)
	}
}

// ParseSnapshotPolicy maps a flag value to a snapshot policy
func ParseSnapshotPolicy(s string) (sheetsync.SnapshotPolicy, error) {
	switch foldFlag(s) {
	case "", "sequence":
		return sheetsync.SnapshotSequence, nil
	case "overwrite":
		return sheetsync.SnapshotOverwrite, nil
	default:
		return 0, fmt.Errorf("unknown snapshot policy %q (want sequence or overwrite)", s)
	}
}

// foldFlag makes enum flag values case-insensitive
func foldFlag(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
