package sheetsync

import (
	"time"

	"github.com/rs/zerolog"
)

// MatchStrategy selects how remote rows are paired with spreadsheet rows
type MatchStrategy int

const (
	// MatchIndex builds a normalized key -> first row index once per table
	MatchIndex MatchStrategy = iota
	// MatchScan compares every remote row against every spreadsheet row
	MatchScan
)

func (s MatchStrategy) String() string {
	switch s {
	case MatchScan:
		return "scan"
	default:
		return "index"
	}
}

// SnapshotPolicy decides what happens to an existing dated copy of the same day
type SnapshotPolicy int

const (
	// SnapshotSequence keeps earlier same-day snapshots by suffixing -2, -3, ...
	SnapshotSequence SnapshotPolicy = iota
	// SnapshotOverwrite replaces the same-day snapshot
	SnapshotOverwrite
)

func (p SnapshotPolicy) String() string {
	switch p {
	case SnapshotOverwrite:
		return "overwrite"
	default:
		return "sequence"
	}
}

// Config represents configuration for the Syncer
type Config struct {
	MatchStrategy  MatchStrategy    // default: MatchIndex
	SnapshotPolicy SnapshotPolicy   // default: SnapshotSequence
	RemoteTimeout  time.Duration    // per remote call, 0 disables
	StrictFields   bool             // unknown mapped fields fail the table instead of being skipped
	Now            func() time.Time // clock for the snapshot date (default: time.Now)
	Logger         *zerolog.Logger  // default: no-op
}
