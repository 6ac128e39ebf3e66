// Package app wires the sheetsync command line: flags, logging, config
// loading and the remote source for a batch.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	sheetsync "github.com/ideamans/go-sheetsync"
	"github.com/ideamans/go-sheetsync/adapters/excel"
	"github.com/ideamans/go-sheetsync/adapters/googlesheets"
	"github.com/ideamans/go-sheetsync/adapters/seatable"
	"github.com/ideamans/go-sheetsync/internal/config"
	"github.com/ideamans/go-sheetsync/internal/logging"
)

// ErrTablesFailed is returned by sync when at least one table failed
var ErrTablesFailed = errors.New("tables failed")

// SourceFactory opens the remote source a batch reads from
type SourceFactory func(ctx context.Context, batch *config.Batch, creds config.Credentials) (sheetsync.RemoteSource, error)

// App holds the state shared by every command
type App struct {
	version string
	out     io.Writer
	errOut  io.Writer

	viper  *viper.Viper
	logger zerolog.Logger

	openSource SourceFactory
	opener     sheetsync.WorkbookOpener
	now        func() time.Time
}

// New creates the application writing command output to out and logs to errOut
func New(version string, out, errOut io.Writer) *App {
	return &App{
		version:    version,
		out:        out,
		errOut:     errOut,
		viper:      config.NewViper(),
		logger:     zerolog.Nop(),
		openSource: OpenSource,
		opener:     excel.New(nil),
		now:        time.Now,
	}
}

// Execute runs the CLI with the given arguments
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.RootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// RootCommand builds the command tree
func (a *App) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "sheetsync",
		Short:   "Copy remote table fields into Excel workbooks",
		Version: a.version,
		Long: `sheetsync pulls rows from a SeaTable base or a Google Sheets spreadsheet,
matches them to the rows of an Excel sheet by a relation field and
overwrites the mapped cells. Each updated workbook is saved in place and
copied to a dated snapshot next to it.`,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().BoolP("verbose", "v", false, "verbose output (debug logs)")
	root.PersistentFlags().BoolP("quiet", "q", false, "only log warnings and errors")
	root.PersistentFlags().String("log-format", "", "log format: auto, console, json")
	_ = a.viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	_ = a.viper.BindPFlag("quiet", root.PersistentFlags().Lookup("quiet"))
	_ = a.viper.BindPFlag("log_format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(a.newSyncCommand())
	root.AddCommand(a.newTablesCommand())
	root.AddCommand(a.newSnapshotPathCommand())

	return root
}

// setup configures logging once flags are parsed
func (a *App) setup(_ *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	cfg.Output = "stderr"
	switch {
	case a.viper.GetBool("verbose"):
		cfg.Level = "debug"
	case a.viper.GetBool("quiet"):
		cfg.Level = "warn"
	}
	if format := a.viper.GetString("log_format"); format != "" {
		cfg.Format = format
	}

	cfg.Fields["app"] = "sheetsync"
	cfg.Fields["version"] = a.version

	if a.errOut == os.Stderr {
		a.logger = logging.Configure(cfg)
		return nil
	}
	cfg.Writer = a.errOut
	if cfg.Format == "auto" {
		cfg.Format = "console"
	}
	a.logger = logging.NewLoggerFromConfig(cfg)
	return nil
}

// loadBatch loads .env files next to the config and in the working
// directory, then the config itself.
func (a *App) loadBatch(path string) (*config.Batch, error) {
	if path == "" {
		return nil, errors.New("--config is required")
	}
	for _, loaded := range config.LoadEnvFiles(filepath.Dir(path)) {
		a.logger.Debug().Str("file", loaded).Msg("Loaded env file")
	}
	if wd, err := os.Getwd(); err == nil && wd != filepath.Dir(path) {
		for _, loaded := range config.LoadEnvFiles(wd) {
			a.logger.Debug().Str("file", loaded).Msg("Loaded env file")
		}
	}
	return config.Load(path)
}

// OpenSource builds the remote source named by the batch
func OpenSource(ctx context.Context, batch *config.Batch, creds config.Credentials) (sheetsync.RemoteSource, error) {
	switch batch.Source.Type {
	case config.SourceGoogleSheets:
		cfg := googlesheets.Config{
			SpreadsheetID: batch.Source.SpreadsheetID,
			HeaderRow:     batch.GoogleHeaderRow(),
		}
		var (
			src *googlesheets.Source
			err error
		)
		if creds.CredentialsFile != "" {
			src, err = googlesheets.NewWithJSONKeyFile(ctx, cfg, creds.CredentialsFile)
		} else {
			src, err = googlesheets.NewWithDefaultCredentials(ctx, cfg)
		}
		if err != nil {
			return nil, err
		}
		return src, nil

	case config.SourceSeaTable:
		src, err := seatable.New(ctx, &seatable.Config{
			ServerURL: creds.ServerURL,
			APIToken:  creds.APIToken,
		})
		if err != nil {
			return nil, err
		}
		return src, nil

	default:
		return nil, fmt.Errorf("unknown source type %q", batch.Source.Type)
	}
}

// ContextWithSignals cancels the context on SIGINT or SIGTERM
func ContextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// ExitOnError prints err and exits with status 1
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString("sheetsync: " + err.Error() + "\n")
		os.Exit(1)
	}
}
