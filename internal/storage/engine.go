// Package storage provides the storage engine for Blobnom.
//
// The engine pairs a Backend with a WAL (Write-Ahead Log) and
// snapshots so the in-memory backend survives restarts.
//
// @req RQ-0101
// @design DS-0102
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iamd3vil/blobnom/internal/core/domain"
	"github.com/iamd3vil/blobnom/internal/storage/snapshot"
	"github.com/iamd3vil/blobnom/internal/storage/wal"
	"github.com/iamd3vil/blobnom/internal/telemetry/logger"
	"github.com/iamd3vil/blobnom/internal/telemetry/metric"
	"github.com/iamd3vil/blobnom/pkg/crypto/adaptive"
)

// Default configuration values.
const (
	DefaultSnapshotInterval = time.Hour
	DefaultWALDir           = "wal"
	DefaultSnapshotDir      = "snapshots"
)

// Config configures the storage engine.
type Config struct {
	// DataDir is the base directory for all storage files.
	DataDir string

	// WAL configuration
	WAL wal.Config

	// Snapshot configuration
	Snapshot snapshot.Config

	// MaxValueSize caps a single value in bytes.
	// Zero means domain.DefaultMaxValueSize.
	MaxValueSize int64

	// SnapshotInterval is the interval between automatic snapshots.
	// Zero means DefaultSnapshotInterval; negative disables them.
	SnapshotInterval time.Duration

	// Cipher optionally encrypts snapshot data at rest.
	Cipher adaptive.Cipher

	// Metrics receives persistence and cache events when set.
	Metrics *metric.Registry

	// Logger is the structured logger.
	Logger logger.Logger
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:          dataDir,
		WAL:              wal.DefaultConfig(filepath.Join(dataDir, DefaultWALDir)),
		Snapshot:         snapshot.DefaultConfig(filepath.Join(dataDir, DefaultSnapshotDir)),
		MaxValueSize:     domain.DefaultMaxValueSize,
		SnapshotInterval: DefaultSnapshotInterval,
	}
}

// Engine validates operations, keeps them durable, and tracks cache
// statistics on top of a Backend.
//
// When the backend implements Snapshotter, every Set and Del is
// appended to the WAL before the backend applies it, and periodic
// snapshots bound replay time. Backends that persist their own data
// (Badger) run without either.
type Engine struct {
	cfg     Config
	backend Backend
	logger  logger.Logger
	metrics *metric.Registry

	// Persistence components, nil unless the backend is a Snapshotter.
	snapshotter Snapshotter
	wal         *wal.Writer
	snapshots   *snapshot.Manager
	compactor   *wal.Compactor

	// snapMu orders writes against snapshot cuts. Writers hold the
	// read side across WAL append plus backend apply, so a cut taken
	// under the write side sees both effects of an operation or
	// neither.
	snapMu sync.RWMutex

	hits     atomic.Uint64
	misses   atomic.Uint64
	sets     atomic.Uint64
	dels     atomic.Uint64
	commands atomic.Uint64
	pruned   atomic.Uint64

	lastSnapshot atomic.Pointer[snapshot.Info]

	closed atomic.Bool
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewEngine creates a storage engine on top of backend.
//
// This initializes all components but does NOT perform recovery.
// Call Recover() after NewEngine() to load existing data.
func NewEngine(cfg Config, backend Backend) (*Engine, error) {
	if backend == nil {
		return nil, fmt.Errorf("storage: backend is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.SnapshotInterval == 0 {
		cfg.SnapshotInterval = DefaultSnapshotInterval
	}

	snapshotter, needsPersistence := backend.(Snapshotter)
	if needsPersistence {
		if cfg.DataDir == "" && (cfg.WAL.Dir == "" || cfg.Snapshot.Dir == "") {
			return nil, fmt.Errorf("storage: data_dir is required for the in-memory backend")
		}
		if cfg.WAL.Dir == "" {
			cfg.WAL = wal.DefaultConfig(filepath.Join(cfg.DataDir, DefaultWALDir))
		}
		if cfg.Snapshot.Dir == "" {
			cfg.Snapshot = snapshot.DefaultConfig(filepath.Join(cfg.DataDir, DefaultSnapshotDir))
		}
		cfg.Snapshot.Cipher = cfg.Cipher
		if cfg.Snapshot.Logger == nil {
			cfg.Snapshot.Logger = cfg.Logger
		}
	}

	e := &Engine{
		cfg:     cfg,
		backend: backend,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	if needsPersistence {
		walWriter, err := wal.NewWriter(cfg.WAL)
		if err != nil {
			return nil, fmt.Errorf("storage: create wal writer: %w", err)
		}

		snapMgr, err := snapshot.NewManager(cfg.Snapshot)
		if err != nil {
			walWriter.Close()
			return nil, fmt.Errorf("storage: create snapshot manager: %w", err)
		}

		e.snapshotter = snapshotter
		e.wal = walWriter
		e.snapshots = snapMgr
		e.compactor = wal.NewCompactor(cfg.WAL.Dir)
	}

	if e.snapshotter != nil && cfg.SnapshotInterval > 0 {
		go e.backgroundLoop()
	} else {
		close(e.doneCh)
	}

	return e, nil
}

// Recover loads the newest valid snapshot and replays the WAL records
// written after it. Backends that persist their own data recover
// nothing here.
func (e *Engine) Recover(ctx context.Context) error {
	if e.snapshotter == nil {
		e.logger.Debug("backend persists its own data, skipping recovery")
		return nil
	}

	start := time.Now()
	e.logger.Info("storage recovery started")

	var offset wal.Offset
	entries, info, err := e.snapshots.Load()
	switch {
	case errors.Is(err, snapshot.ErrNoSnapshots):
		e.logger.Info("no snapshot found, replaying the full write-ahead log")
	case err != nil:
		return fmt.Errorf("storage: load snapshot: %w", err)
	default:
		if err := e.snapshotter.LoadSnapshot(entries); err != nil {
			return fmt.Errorf("storage: restore snapshot: %w", err)
		}
		offset = info.WALOffset
		e.lastSnapshot.Store(info)
		e.logger.Info("snapshot restored",
			"id", info.ID,
			"entries", info.EntryCount,
			"wal_offset", offset.String())
	}

	applied, err := e.replayWAL(ctx, offset)
	if err != nil {
		return fmt.Errorf("storage: replay wal: %w", err)
	}

	keys, _ := e.backend.Len(ctx)
	e.logger.Info("recovery completed",
		"keys", keys,
		"wal_records_applied", applied,
		"elapsed", time.Since(start))
	return nil
}

// replayWAL applies WAL records from the given offset to the backend.
func (e *Engine) replayWAL(ctx context.Context, from wal.Offset) (int, error) {
	reader, err := wal.NewReader(e.cfg.WAL.Dir)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	if err := reader.Seek(from); err != nil {
		return 0, err
	}

	applied := 0
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return applied, err
		}

		switch rec.Op {
		case wal.OpTypeSet:
			err = e.backend.Set(ctx, rec.Key, rec.Value)
		case wal.OpTypeDel:
			_, err = e.backend.Del(ctx, rec.Key)
		default:
			e.logger.Warn("unknown wal op during replay", "op", rec.Op.String())
			continue
		}
		if err != nil {
			e.logger.Warn("apply wal record failed",
				"op", rec.Op.String(),
				"key", rec.Key,
				"error", err)
			continue
		}
		applied++
	}

	if reader.Truncated() {
		e.logger.Warn("wal ends in a torn record, dropping the tail",
			"position", reader.Position().String())
	}
	return applied, nil
}

// Get retrieves the value stored under key.
func (e *Engine) Get(ctx context.Context, key string) ([]byte, error) {
	e.commands.Add(1)
	if err := domain.ValidateKey(key); err != nil {
		return nil, err
	}

	value, err := e.backend.Get(ctx, key)
	switch {
	case err == nil:
		e.hits.Add(1)
		if e.metrics != nil {
			e.metrics.IncCacheHit()
		}
	case errors.Is(err, ErrKeyNotFound):
		e.misses.Add(1)
		if e.metrics != nil {
			e.metrics.IncCacheMiss()
		}
	}
	return value, err
}

// Set stores value under key.
//
// For the in-memory backend the record is written to the WAL before
// the backend sees it.
func (e *Engine) Set(ctx context.Context, key string, value []byte) error {
	e.commands.Add(1)
	if err := domain.ValidateKey(key); err != nil {
		return err
	}
	if err := domain.ValidateValueSize(int64(len(value)), e.cfg.MaxValueSize); err != nil {
		return err
	}
	if e.closed.Load() {
		return ErrClosed
	}

	if e.wal != nil {
		e.snapMu.RLock()
		defer e.snapMu.RUnlock()

		rec := wal.NewSetEntry(key, value)
		if err := e.wal.Append(rec); err != nil {
			return fmt.Errorf("storage: wal append: %w", err)
		}
		e.recordWALAppend(rec)
	}

	if err := e.backend.Set(ctx, key, value); err != nil {
		return err
	}
	e.sets.Add(1)
	return nil
}

// Del removes key, reporting whether it existed.
func (e *Engine) Del(ctx context.Context, key string) (bool, error) {
	e.commands.Add(1)
	if err := domain.ValidateKey(key); err != nil {
		return false, err
	}
	if e.closed.Load() {
		return false, ErrClosed
	}

	if e.wal != nil {
		e.snapMu.RLock()
		defer e.snapMu.RUnlock()

		rec := wal.NewDelEntry(key)
		if err := e.wal.Append(rec); err != nil {
			return false, fmt.Errorf("storage: wal append: %w", err)
		}
		e.recordWALAppend(rec)
	}

	existed, err := e.backend.Del(ctx, key)
	if err != nil {
		return false, err
	}
	e.dels.Add(1)
	return existed, nil
}

// Exists reports whether key is present.
func (e *Engine) Exists(ctx context.Context, key string) (bool, error) {
	e.commands.Add(1)
	if err := domain.ValidateKey(key); err != nil {
		return false, err
	}
	return e.backend.Exists(ctx, key)
}

// Keys returns all stored keys.
func (e *Engine) Keys(ctx context.Context) ([]string, error) {
	return e.backend.Keys(ctx)
}

// Len returns the number of stored keys.
func (e *Engine) Len(ctx context.Context) (int64, error) {
	return e.backend.Len(ctx)
}

func (e *Engine) recordWALAppend(rec *wal.Entry) {
	if e.metrics == nil {
		return
	}
	e.metrics.IncWALRecord()
	e.metrics.AddWALWriteBytes(float64(rec.EncodedSize()))
}

// TriggerSnapshot creates a snapshot now.
//
// Called by the admin API and the background loop. Returns
// ErrSnapshotsUnsupported when the backend persists its own data.
func (e *Engine) TriggerSnapshot(ctx context.Context) (*snapshot.Info, error) {
	if e.snapshotter == nil {
		return nil, ErrSnapshotsUnsupported
	}

	start := time.Now()

	// Block writers while capturing the cut so the recorded offset and
	// the entry set agree exactly.
	e.snapMu.Lock()
	offset := e.wal.CurrentOffset()
	entries := e.snapshotter.All()
	e.snapMu.Unlock()

	info, err := e.snapshots.Create(entries, offset)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordSnapshot("error")
		}
		return nil, fmt.Errorf("storage: create snapshot: %w", err)
	}
	e.lastSnapshot.Store(info)

	if e.metrics != nil {
		e.metrics.RecordSnapshot("success")
		e.metrics.ObserveSnapshotWriteTime(time.Since(start).Seconds())
		e.metrics.SetSnapshotSizeBytes(float64(info.Size))
	}

	e.logger.Info("snapshot created",
		"id", info.ID,
		"entries", info.EntryCount,
		"size_bytes", info.Size,
		"wal_offset", info.WALOffset.String(),
		"elapsed", time.Since(start))

	if pruned, err := e.snapshots.Prune(); err != nil {
		e.logger.Warn("snapshot prune failed", "error", err)
	} else if pruned > 0 {
		e.pruned.Add(uint64(pruned))
		e.logger.Info("expired snapshots pruned", "count", pruned)
	}

	if deleted, err := e.compactor.Compact(info.WALOffset); err != nil {
		e.logger.Warn("wal compaction failed", "error", err)
	} else if deleted > 0 {
		e.logger.Debug("wal segments compacted", "deleted", deleted)
	}

	return info, nil
}

// LastSnapshot returns metadata of the most recent snapshot, or nil.
func (e *Engine) LastSnapshot() *snapshot.Info {
	return e.lastSnapshot.Load()
}

// PersistenceEnabled reports whether WAL and snapshots are active.
func (e *Engine) PersistenceEnabled() bool {
	return e.snapshotter != nil
}

// WALSegments returns the number of WAL segment files on disk.
func (e *Engine) WALSegments() int {
	if e.compactor == nil {
		return 0
	}
	n, err := e.compactor.FileCount()
	if err != nil {
		return 0
	}
	return n
}

// PrunedSnapshots returns how many snapshots retention has removed.
func (e *Engine) PrunedSnapshots() uint64 {
	return e.pruned.Load()
}

// Ready reports whether the engine can serve requests. It returns
// ErrClosed once Close has been called.
func (e *Engine) Ready() error {
	if e.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Stats returns cumulative cache statistics.
func (e *Engine) Stats() domain.CacheStats {
	bs := e.backend.Stats()
	return domain.CacheStats{
		Keys:              bs.Keys,
		BytesStored:       bs.StoredBytes,
		Hits:              e.hits.Load(),
		Misses:            e.misses.Load(),
		Sets:              e.sets.Load(),
		Dels:              e.dels.Load(),
		CommandsProcessed: e.commands.Load(),
	}
}

// MetricStats feeds the scrape-time Prometheus collector.
func (e *Engine) MetricStats() metric.Stats {
	bs := e.backend.Stats()
	s := metric.Stats{
		Keys:        bs.Keys,
		StoredBytes: bs.StoredBytes,
	}
	if e.compactor != nil {
		if n, err := e.compactor.TotalSize(); err == nil {
			s.WALBytes = n
		}
	}
	if e.snapshots != nil {
		if infos, err := e.snapshots.List(); err == nil {
			s.Snapshots = int64(len(infos))
		}
	}
	return s
}

// backgroundLoop runs periodic snapshot creation.
func (e *Engine) backgroundLoop() {
	defer close(e.doneCh)

	ticker := time.NewTicker(e.cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if _, err := e.TriggerSnapshot(ctx); err != nil {
				e.logger.Error("auto snapshot failed", "error", err)
			}
			cancel()

		case <-e.stopCh:
			return
		}
	}
}

// Close takes a final snapshot, syncs the WAL, and closes the backend.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	e.logger.Info("shutting down storage engine")
	close(e.stopCh)
	<-e.doneCh

	var errs []error
	if e.snapshotter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := e.TriggerSnapshot(ctx); err != nil {
			e.logger.Error("final snapshot failed", "error", err)
			errs = append(errs, err)
		}
		cancel()

		if err := e.wal.Close(); err != nil {
			e.logger.Error("close wal failed", "error", err)
			errs = append(errs, err)
		}
	}

	if err := e.backend.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	e.logger.Info("storage engine shutdown complete")
	return nil
}
