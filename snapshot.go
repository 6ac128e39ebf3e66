package sheetsync

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	snapshotSeparator  = "@"
	snapshotDateLayout = "20060102"
)

// Snapshot is the result of a successful commit
type Snapshot struct {
	LivePath  string // overwritten workbook
	DatedPath string // byte-identical dated copy
}

// DatedPath returns <dir>/<base>@<YYYYMMDD><ext> for path
func DatedPath(path string, date time.Time) string {
	return sequencedPath(path, date, 1)
}

func sequencedPath(path string, date time.Time, n int) string {
	ext := filepath.Ext(path)
	name := strings.TrimSuffix(filepath.Base(path), ext)
	stamp := date.Format(snapshotDateLayout)
	if n > 1 {
		stamp = fmt.Sprintf("%s-%d", stamp, n)
	}
	return filepath.Join(filepath.Dir(path), name+snapshotSeparator+stamp+ext)
}

// NextDatedPath returns the path the next Commit on date would copy to.
// Under SnapshotSequence it is the first of @YYYYMMDD, @YYYYMMDD-2, ...
// that does not exist yet.
func NextDatedPath(path string, date time.Time, policy SnapshotPolicy) (string, error) {
	if policy == SnapshotOverwrite {
		return DatedPath(path, date), nil
	}
	for n := 1; ; n++ {
		candidate := sequencedPath(path, date, n)
		_, err := os.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return candidate, err
		}
	}
}

// Commit saves wb over path, then copies the saved file byte for byte to
// its dated sibling. A failure of the copy leaves the live file updated;
// the returned *SnapshotError says which stage failed.
func Commit(path string, wb Workbook, date time.Time, policy SnapshotPolicy) (*Snapshot, error) {
	if err := wb.Save(path); err != nil {
		return nil, &SnapshotError{Stage: StageSave, LivePath: path, DatedPath: DatedPath(path, date), Err: err}
	}

	// the dated name is picked only once the live file exists
	dated, err := NextDatedPath(path, date, policy)
	if err != nil {
		return nil, &SnapshotError{Stage: StageCopy, LivePath: path, DatedPath: dated, Err: err}
	}

	if err := copyFile(path, dated); err != nil {
		return nil, &SnapshotError{Stage: StageCopy, LivePath: path, DatedPath: dated, Err: err}
	}

	return &Snapshot{LivePath: path, DatedPath: dated}, nil
}

// copyFile writes src to a temp file next to dst and renames it into place
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open saved workbook: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat saved workbook: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		return fmt.Errorf("failed to copy workbook: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to flush copy: %w", err)
	}
	if err = tmp.Chmod(info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set copy permissions: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close copy: %w", err)
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to move copy into place: %w", err)
	}
	return nil
}
