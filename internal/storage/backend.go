// Package storage provides storage abstractions for Blobnom.
//
// This file defines the Backend interface implemented by the in-memory
// and Badger-backed blob stores, plus the Badger tuning surface.
//
// @req RQ-0101
// @design DS-0102
package storage

import (
	"context"

	"github.com/iamd3vil/blobnom/internal/core/domain"
)

// Common errors. These alias the coded domain sentinels so callers at
// any layer match them with errors.Is without translation.
var (
	ErrKeyNotFound = domain.ErrKeyNotFound
	ErrClosed      = domain.ErrStorageClosed

	// ErrSnapshotsUnsupported is returned by snapshot operations when
	// the configured backend manages its own durability.
	ErrSnapshotsUnsupported = domain.ErrSnapshotUnsupported
)

// Backend is the key-value store holding blob values.
//
// Implementations must be safe for concurrent use. Get returns
// ErrKeyNotFound for missing keys; every method returns ErrClosed after
// Close. Implementations must not retain or alias caller-provided value
// slices, and must not hand out internal ones.
type Backend interface {
	// Get retrieves the value stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Del removes key, reporting whether it existed.
	Del(ctx context.Context, key string) (bool, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Keys returns all stored keys in no particular order.
	Keys(ctx context.Context) ([]string, error)

	// Len returns the number of stored keys.
	Len(ctx context.Context) (int64, error)

	// Stats returns current backend statistics.
	Stats() BackendStats

	// Close releases the backend's resources.
	Close() error
}

// BackendStats contains point-in-time backend statistics.
type BackendStats struct {
	// Keys is the number of stored blobs.
	Keys int64

	// StoredBytes is the total payload size of all stored values.
	StoredBytes int64
}

// Snapshotter is implemented by backends whose contents live only in
// process memory and therefore need the engine's WAL and snapshot
// machinery for durability.
type Snapshotter interface {
	// All returns a deep copy of every stored entry.
	All() []domain.Entry

	// LoadSnapshot replaces the backend's contents with entries.
	LoadSnapshot(entries []domain.Entry) error
}

// WithoutSnapshots narrows b to the plain Backend method set, so the
// engine runs it without WAL or snapshot machinery even when the
// underlying type implements Snapshotter. Used when the WAL is
// disabled by configuration and the cache is purely ephemeral.
func WithoutSnapshots(b Backend) Backend {
	return ephemeralBackend{b}
}

type ephemeralBackend struct {
	Backend
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic value log GC runs.
	// Default: 10m
	GCInterval string

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Higher values trigger GC more aggressively.
	// Default: 0.5 (rewrite a value log file when 50% of it is stale)
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 1GB
	ValueLogFileSize int64

	// NumMemtables is the number of memtables.
	// Default: 2
	NumMemtables int

	// NumLevelZeroTables is the number of Level 0 tables before compaction.
	// Default: 5
	NumLevelZeroTables int

	// NumLevelZeroTablesStall is the number of Level 0 tables that triggers write stall.
	// Default: 10
	NumLevelZeroTablesStall int

	// SyncWrites enables sync writes (fsync after each write).
	// Default: false (cache semantics tolerate losing the last writes)
	SyncWrites bool

	// DetectConflicts enables transaction conflict detection.
	// Default: false (writes are serialized by the backend)
	DetectConflicts bool
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:              "10m",
		GCThreshold:             0.5,
		CacheSize:               64 << 20, // 64MB
		ValueLogFileSize:        1 << 30,  // 1GB
		NumMemtables:            2,
		NumLevelZeroTables:      5,
		NumLevelZeroTablesStall: 10,
		SyncWrites:              false,
		DetectConflicts:         false,
	}
}
