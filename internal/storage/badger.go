// Package storage provides the Badger-backed blob store.
//
// @req RQ-0101
// @design DS-0102
// @adr AD-0402
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iamd3vil/blobnom/internal/telemetry/logger"
)

// badgerGCDefaultInterval is used when GCInterval is unset or invalid.
const badgerGCDefaultInterval = 10 * time.Minute

// BadgerBackend implements Backend on Badger v3. Values are durable on
// disk, so the engine skips its WAL and snapshot machinery for it.
type BadgerBackend struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger logger.Logger

	// writeMu serializes Set/Del so the key and byte counters stay
	// exact. Reads are not serialized.
	writeMu     sync.Mutex
	keys        atomic.Int64
	storedBytes atomic.Int64
	closed      atomic.Bool

	// Prometheus gauges, nil until RegisterMetrics.
	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsTotalSize    prometheus.Gauge

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewBadgerBackend opens (or creates) a Badger database in dir.
func NewBadgerBackend(dir string, cfg BadgerConfig, log logger.Logger) (*BadgerBackend, error) {
	if dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if log == nil {
		log = logger.Default()
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = &badgerLogger{logger: log}
	if cfg.CacheSize > 0 {
		opts.BlockCacheSize = cfg.CacheSize
	}
	if cfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	if cfg.NumMemtables > 0 {
		opts.NumMemtables = cfg.NumMemtables
	}
	if cfg.NumLevelZeroTables > 0 {
		opts.NumLevelZeroTables = cfg.NumLevelZeroTables
	}
	if cfg.NumLevelZeroTablesStall > 0 {
		opts.NumLevelZeroTablesStall = cfg.NumLevelZeroTablesStall
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.DetectConflicts = cfg.DetectConflicts

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	b := &BadgerBackend{
		db:     db,
		cfg:    cfg,
		logger: log,
		stopCh: make(chan struct{}),
	}

	if err := b.countExisting(); err != nil {
		db.Close()
		return nil, fmt.Errorf("badger: scan existing keys: %w", err)
	}

	b.wg.Add(1)
	go b.gcLoop()

	log.Info("badger backend started",
		"dir", dir,
		"keys", b.keys.Load(),
		"stored_bytes", b.storedBytes.Load(),
		"gc_interval", cfg.GCInterval)

	return b, nil
}

// countExisting seeds the key and byte counters from the keys already
// on disk. Value sizes come from item headers, no values are fetched.
func (b *BadgerBackend) countExisting() error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var keys, bytes int64
		for it.Rewind(); it.Valid(); it.Next() {
			keys++
			bytes += it.Item().ValueSize()
		}
		b.keys.Store(keys)
		b.storedBytes.Store(bytes)
		return nil
	})
}

// Get retrieves the value stored under key.
func (b *BadgerBackend) Get(_ context.Context, key string) ([]byte, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}

	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (b *BadgerBackend) Set(_ context.Context, key string, value []byte) error {
	if b.closed.Load() {
		return ErrClosed
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	var delta int64
	newKey := false
	err := b.db.Update(func(txn *badger.Txn) error {
		newKey = false
		k := []byte(key)
		switch item, err := txn.Get(k); {
		case err == nil:
			delta = int64(len(value)) - item.ValueSize()
		case errors.Is(err, badger.ErrKeyNotFound):
			delta = int64(len(value))
			newKey = true
		default:
			return err
		}
		return txn.Set(k, value)
	})
	if err != nil {
		return fmt.Errorf("badger: set: %w", err)
	}

	if newKey {
		b.keys.Add(1)
	}
	b.storedBytes.Add(delta)
	return nil
}

// Del removes key, reporting whether it existed.
func (b *BadgerBackend) Del(_ context.Context, key string) (bool, error) {
	if b.closed.Load() {
		return false, ErrClosed
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	existed := false
	var freed int64
	err := b.db.Update(func(txn *badger.Txn) error {
		existed, freed = false, 0
		k := []byte(key)
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		existed = true
		freed = item.ValueSize()
		return txn.Delete(k)
	})
	if err != nil {
		return false, fmt.Errorf("badger: delete: %w", err)
	}

	if existed {
		b.keys.Add(-1)
		b.storedBytes.Add(-freed)
	}
	return existed, nil
}

// Exists reports whether key is present.
func (b *BadgerBackend) Exists(_ context.Context, key string) (bool, error) {
	if b.closed.Load() {
		return false, ErrClosed
	}

	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Keys returns all stored keys.
func (b *BadgerBackend) Keys(_ context.Context) ([]string, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}

	keys := make([]string, 0, b.keys.Load())
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().Key()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Len returns the number of stored keys.
func (b *BadgerBackend) Len(_ context.Context) (int64, error) {
	if b.closed.Load() {
		return 0, ErrClosed
	}
	return b.keys.Load(), nil
}

// Stats returns current backend statistics.
func (b *BadgerBackend) Stats() BackendStats {
	return BackendStats{
		Keys:        b.keys.Load(),
		StoredBytes: b.storedBytes.Load(),
	}
}

// Close stops background loops and closes the database.
func (b *BadgerBackend) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	b.logger.Info("shutting down badger backend")
	close(b.stopCh)
	b.wg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("badger: close: %w", err)
	}
	return nil
}

// RegisterMetrics registers Badger size gauges and starts the updater
// that feeds them. Call at most once, before serving traffic.
func (b *BadgerBackend) RegisterMetrics(reg prometheus.Registerer) *BadgerBackend {
	b.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blobnom",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	b.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blobnom",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})
	b.metricsTotalSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blobnom",
		Subsystem: "badger",
		Name:      "total_size_bytes",
		Help:      "Badger total storage size in bytes (LSM + value log)",
	})

	reg.MustRegister(
		b.metricsLSMSize,
		b.metricsValueLogSize,
		b.metricsTotalSize,
	)

	b.wg.Add(1)
	go b.metricsLoop()

	return b
}

// metricsLoop periodically refreshes the size gauges.
func (b *BadgerBackend) metricsLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lsm, vlog := b.db.Size()
			b.metricsLSMSize.Set(float64(lsm))
			b.metricsValueLogSize.Set(float64(vlog))
			b.metricsTotalSize.Set(float64(lsm + vlog))

		case <-b.stopCh:
			return
		}
	}
}

// gcLoop runs periodic value log garbage collection.
func (b *BadgerBackend) gcLoop() {
	defer b.wg.Done()

	interval, err := time.ParseDuration(b.cfg.GCInterval)
	if err != nil || interval <= 0 {
		if b.cfg.GCInterval != "" {
			b.logger.Warn("invalid badger gc_interval, using default",
				"value", b.cfg.GCInterval,
				"default", badgerGCDefaultInterval)
		}
		interval = badgerGCDefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.runGC()

		case <-b.stopCh:
			return
		}
	}
}

// runGC rewrites stale value log files until Badger reports nothing
// left to reclaim.
func (b *BadgerBackend) runGC() {
	threshold := b.cfg.GCThreshold
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}

	start := time.Now()
	cycles := 0
	for {
		err := b.db.RunValueLogGC(threshold)
		if err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) {
				b.logger.Warn("value log gc failed", "error", err)
			}
			break
		}
		cycles++
	}

	if cycles > 0 {
		b.logger.Info("value log gc completed",
			"cycles", cycles,
			"elapsed", time.Since(start))
	}
}

// badgerLogger adapts the structured logger to Badger's Logger interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
