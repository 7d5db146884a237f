// Package wal provides write-ahead logging for the in-memory backend.
package wal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultRetainCount is the default number of WAL segments to retain
// after compaction.
const DefaultRetainCount = 2

// Compactor deletes WAL segments made redundant by snapshots.
type Compactor struct {
	walDir      string
	retainCount int
}

// CompactorOption configures the Compactor.
type CompactorOption func(*Compactor)

// WithRetainCount sets the number of WAL segments to retain.
func WithRetainCount(count int) CompactorOption {
	return func(c *Compactor) {
		if count > 0 {
			c.retainCount = count
		}
	}
}

// NewCompactor creates a new WAL compactor.
func NewCompactor(walDir string, opts ...CompactorOption) *Compactor {
	c := &Compactor{
		walDir:      walDir,
		retainCount: DefaultRetainCount,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compact removes segments fully covered by the given snapshot offset:
// those whose ULID sorts before the offset's segment. The segment the
// offset points into is never removed, and at least retainCount
// segments are kept. Returns the number of segments deleted.
func (c *Compactor) Compact(snapshotOffset Offset) (int, error) {
	if snapshotOffset.IsZero() {
		return 0, nil
	}

	files, err := c.listSegmentFiles()
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}

	var toDelete []string
	for _, file := range files {
		id, ok := parseSegmentFilename(filepath.Base(file))
		if !ok {
			continue
		}
		if id < snapshotOffset.Segment {
			toDelete = append(toDelete, file)
		}
	}

	// Keep at least retainCount segments.
	if len(files)-len(toDelete) < c.retainCount {
		keepCount := c.retainCount - (len(files) - len(toDelete))
		if keepCount > len(toDelete) {
			keepCount = len(toDelete)
		}
		toDelete = toDelete[:len(toDelete)-keepCount]
	}

	var errs []error
	deleted := 0
	for _, file := range toDelete {
		if err := os.Remove(file); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", file, err))
			continue
		}
		deleted++
	}

	if len(errs) > 0 {
		return deleted, fmt.Errorf("wal: failed to delete %d segments: %w", len(errs), errors.Join(errs...))
	}

	return deleted, nil
}

// TotalSize returns the total size of all WAL segments in bytes.
func (c *Compactor) TotalSize() (int64, error) {
	files, err := c.listSegmentFiles()
	if err != nil {
		return 0, err
	}

	var total int64
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		total += info.Size()
	}

	return total, nil
}

// FileCount returns the number of WAL segments.
func (c *Compactor) FileCount() (int, error) {
	files, err := c.listSegmentFiles()
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

// CleanAll removes all WAL segments. Use with caution.
func (c *Compactor) CleanAll() error {
	files, err := c.listSegmentFiles()
	if err != nil {
		return err
	}

	var errs []error
	for _, file := range files {
		if err := os.Remove(file); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", file, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("wal: failed to delete %d segments: %w", len(errs), errors.Join(errs...))
	}

	return nil
}

// listSegmentFiles returns all segment files sorted oldest first.
func (c *Compactor) listSegmentFiles() ([]string, error) {
	entries, err := os.ReadDir(c.walDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := parseSegmentFilename(entry.Name()); ok {
			files = append(files, filepath.Join(c.walDir, entry.Name()))
		}
	}

	// ULID filenames sort by creation time.
	sort.Strings(files)
	return files, nil
}
