// Package wal provides write-ahead logging for the in-memory backend.
package wal

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// File format constants (DS-0104).
const (
	FilePrefix      = "wal-"
	FileExtension   = ".log"
	DefaultFilePerm = 0600
	DefaultDirPerm  = 0750
)

// Default configuration values.
const (
	DefaultSegmentSize  int64 = 64 << 20 // 64MB
	DefaultSyncInterval       = time.Second

	writeBufferSize = 64 << 10
)

// Config configures the WAL writer.
type Config struct {
	// Dir is the segment directory.
	Dir string

	// SegmentSize caps a segment file. The writer rotates to a fresh
	// segment before an append would cross the cap.
	SegmentSize int64

	// SyncInterval is the cadence of background fsyncs. Appends are
	// buffered between syncs; rotation and Close always sync.
	SyncInterval time.Duration
}

// DefaultConfig returns the default WAL configuration.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:          dir,
		SegmentSize:  DefaultSegmentSize,
		SyncInterval: DefaultSyncInterval,
	}
}

// Writer appends entries to ULID-named segment files.
//
// Each writer opens a fresh segment; earlier segments are never
// appended to again, so a torn tail left by a crash stays isolated in
// the file that carried it.
type Writer struct {
	cfg Config

	mu sync.Mutex

	segment string
	file    *os.File
	buf     *bufio.Writer
	pos     int64

	syncTicker *time.Ticker
	stopCh     chan struct{}
	wg         sync.WaitGroup
	closed     bool
}

// NewWriter creates a WAL writer and opens a fresh segment.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("wal: dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("wal: create dir: %w", err)
	}
	if cfg.SegmentSize <= 0 {
		cfg.SegmentSize = DefaultSegmentSize
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = DefaultSyncInterval
	}

	w := &Writer{
		cfg:    cfg,
		stopCh: make(chan struct{}),
	}

	if err := w.openSegmentLocked(); err != nil {
		return nil, err
	}

	w.startSyncLoop()
	return w, nil
}

// CurrentOffset returns the position the next append will land at.
// Buffered but not yet synced records are counted.
func (w *Writer) CurrentOffset() Offset {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Offset{Segment: w.segment, Pos: w.pos}
}

// Append encodes and buffers one entry, rotating first when the record
// would push the active segment past its size cap.
func (w *Writer) Append(entry *Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("wal: writer is closed")
	}

	record, err := encodeRecord(entry)
	if err != nil {
		return err
	}

	// Rotate unless the segment is empty, so an oversized record still
	// lands somewhere.
	if w.pos > 0 && w.pos+int64(len(record)) > w.cfg.SegmentSize {
		if err := w.rotateLocked(); err != nil {
			return err
		}
	}

	if _, err := w.buf.Write(record); err != nil {
		return fmt.Errorf("wal: append: %w", err)
	}
	w.pos += int64(len(record))

	return nil
}

// Sync flushes buffered records and fsyncs the active segment.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.syncLocked()
}

func (w *Writer) syncLocked() error {
	if w.file == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("wal: flush: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("wal: sync: %w", err)
	}
	return nil
}

func (w *Writer) startSyncLoop() {
	w.syncTicker = time.NewTicker(w.cfg.SyncInterval)
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.syncTicker.C:
				_ = w.Sync()
			case <-w.stopCh:
				return
			}
		}
	}()
}

func (w *Writer) openSegmentLocked() error {
	id, err := newSegmentID()
	if err != nil {
		return err
	}

	path := filepath.Join(w.cfg.Dir, FilePrefix+id+FileExtension)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, DefaultFilePerm)
	if err != nil {
		return fmt.Errorf("wal: open segment: %w", err)
	}

	w.segment = id
	w.file = file
	w.buf = bufio.NewWriterSize(file, writeBufferSize)
	w.pos = 0

	return nil
}

// rotateLocked syncs and closes the active segment, then opens a new one.
func (w *Writer) rotateLocked() error {
	if err := w.syncLocked(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("wal: close segment: %w", err)
	}
	w.file = nil

	return w.openSegmentLocked()
}

// Close flushes and fsyncs the active segment and stops the sync loop.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.stopCh)
	w.mu.Unlock()

	if w.syncTicker != nil {
		w.syncTicker.Stop()
	}
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	if err := w.syncLocked(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("wal: close: %w", err)
	}
	w.file = nil

	return nil
}

func newSegmentID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", fmt.Errorf("wal: segment id: %w", err)
	}
	return id.String(), nil
}

func parseSegmentFilename(name string) (string, bool) {
	if !strings.HasPrefix(name, FilePrefix) || !strings.HasSuffix(name, FileExtension) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, FilePrefix), FileExtension)
	if _, err := ulid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}
