package sheetsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Syncer reconciles remote tables into spreadsheet files. It runs one
// table at a time on the calling goroutine.
type Syncer struct {
	config Config
	source RemoteSource
	opener WorkbookOpener
	log    zerolog.Logger
}

// New creates a Syncer reading from source and writing workbooks opened by opener
func New(source RemoteSource, opener WorkbookOpener, config *Config) *Syncer {
	// Use default config if not provided
	if config == nil {
		config = &Config{}
	}

	s := &Syncer{
		config: *config,
		source: source,
		opener: opener,
		log:    zerolog.Nop(),
	}

	if s.config.Now == nil {
		s.config.Now = time.Now
	}
	if config.Logger != nil {
		s.log = *config.Logger
	}

	return s
}

// SyncAll syncs every spec in order. A failing table is recorded in its
// report and the batch moves on; cancellation stops before the next table.
// The remote schema is fetched once for the whole batch.
func (s *Syncer) SyncAll(ctx context.Context, specs []TableSpec) *BatchReport {
	batch := &BatchReport{Tables: make([]*TableReport, 0, len(specs))}

	cached := *s
	cached.source = NewSchemaCache(s.source)

	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			batch.Tables = append(batch.Tables, &TableReport{
				Table: spec.Table,
				Err:   fmt.Errorf("batch canceled: %w", err),
			})
			continue
		}

		report, err := cached.SyncTable(ctx, spec)
		if err != nil {
			s.log.Error().Err(err).Str("table", spec.Table).Msg("Table sync failed")
		}
		batch.Tables = append(batch.Tables, report)
	}

	return batch
}

// SyncTable reconciles one remote table into its spreadsheet and commits
// the live file plus its dated snapshot. The returned report is never nil;
// its Err mirrors the returned error.
func (s *Syncer) SyncTable(ctx context.Context, spec TableSpec) (*TableReport, error) {
	started := time.Now()
	report := &TableReport{Table: spec.Table, LivePath: spec.SpreadsheetPath}

	err := s.syncTable(ctx, spec.WithDefaults(), report)
	report.Duration = time.Since(started)
	report.Err = err
	return report, err
}

func (s *Syncer) syncTable(ctx context.Context, spec TableSpec, report *TableReport) error {
	log := s.log.With().Str("table", spec.Table).Logger()

	// configuration defects surface before any remote call
	if err := spec.Validate(); err != nil {
		return err
	}

	fields, err := s.resolveFields(ctx, spec.Table)
	if err != nil {
		return err
	}
	log.Debug().Strs("fields", fields).Msg("Resolved remote fields")

	if !containsField(fields, spec.RelationField) {
		return &SchemaError{Table: spec.Table, Field: spec.RelationField}
	}
	mappings, err := s.knownMappings(spec, fields, log)
	if err != nil {
		return err
	}

	rows, err := s.listRows(ctx, spec.Table)
	if err != nil {
		return err
	}
	report.Fetched = len(rows)
	rows = FilterRows(rows, spec.Filters)
	report.Considered = len(rows)
	log.Info().Int("fetched", report.Fetched).Int("considered", report.Considered).Msg("Fetched remote rows")

	wb, err := s.opener.Open(spec.SpreadsheetPath)
	if err != nil {
		return fmt.Errorf("failed to open workbook %s: %w", spec.SpreadsheetPath, err)
	}
	defer wb.Close()

	sheet, err := wb.Sheet(spec.SheetName)
	if err != nil {
		return err
	}

	// resolve every header before touching a cell
	columns := NewColumnCache(sheet, spec.HeaderRow)
	if err := columns.Resolve(mappings.Headers()); err != nil {
		return err
	}

	matches, err := MatchRows(rows, columns, spec.RelationField, spec.RelationFieldMappings, spec.DataStartRow, s.config.MatchStrategy)
	if err != nil {
		return err
	}

	for match, err := range matches {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("sync canceled after %d matched rows: %w", report.Matched, err)
		}

		written, err := ApplyMapping(match, mappings, columns)
		if err != nil {
			return err
		}
		report.Matched++
		report.Written += written
		log.Debug().Int("row", match.Row).Int("written", written).Msg("Updated row")
	}

	snap, err := Commit(spec.SpreadsheetPath, wb, s.config.Now(), s.config.SnapshotPolicy)
	if err != nil {
		var snapErr *SnapshotError
		if errors.As(err, &snapErr) && snapErr.LiveUpdated() {
			log.Warn().Str("live", snapErr.LivePath).Str("dated", snapErr.DatedPath).Msg("Live workbook saved but dated copy failed")
		}
		return err
	}
	report.SnapshotPath = snap.DatedPath

	log.Info().
		Int("matched", report.Matched).
		Int("written", report.Written).
		Str("snapshot", snap.DatedPath).
		Msg("Table synced")
	return nil
}

// knownMappings drops field mappings the remote schema does not expose,
// or fails on them when StrictFields is set.
func (s *Syncer) knownMappings(spec TableSpec, fields []string, log zerolog.Logger) (Mappings, error) {
	known := make(Mappings, 0, len(spec.FieldMappings))
	for _, mp := range spec.FieldMappings {
		if containsField(fields, mp.Remote) {
			known = append(known, mp)
			continue
		}
		if s.config.StrictFields {
			return nil, &SchemaError{Table: spec.Table, Field: mp.Remote}
		}
		log.Warn().Str("field", mp.Remote).Msg("Mapped field not in remote schema, skipping")
	}
	return known, nil
}

func (s *Syncer) resolveFields(ctx context.Context, table string) ([]string, error) {
	ctx, cancel := s.remoteContext(ctx)
	defer cancel()

	return ResolveFields(ctx, s.source, table)
}

func (s *Syncer) listRows(ctx context.Context, table string) ([]*RemoteRow, error) {
	ctx, cancel := s.remoteContext(ctx)
	defer cancel()

	rows, err := s.source.ListRows(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows of %s: %w", table, err)
	}
	return rows, nil
}

func (s *Syncer) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.RemoteTimeout > 0 {
		return context.WithTimeout(ctx, s.config.RemoteTimeout)
	}
	return context.WithCancel(ctx)
}
