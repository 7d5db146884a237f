// Package memory provides the in-memory storage backend for Blobnom.
package memory

import (
	"context"
	"sync/atomic"

	"github.com/iamd3vil/blobnom/internal/core/domain"
	"github.com/iamd3vil/blobnom/internal/storage"
	"github.com/iamd3vil/blobnom/pkg/cmap"
)

// Store provides in-memory blob storage over a sharded concurrent map.
type Store struct {
	entries *cmap.Map[string, domain.Entry]

	storedBytes atomic.Int64
	closed      atomic.Bool
}

type config struct {
	shardCount int
}

// Option configures the Store.
type Option func(*config)

// WithShardCount sets the shard count of the underlying map.
// The count must be a power of 2.
func WithShardCount(n int) Option {
	return func(c *config) {
		c.shardCount = n
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	cfg := config{shardCount: cmap.DefaultShardCount}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Store{
		entries: cmap.NewWithShards[string, domain.Entry](cfg.shardCount),
	}
}

// Get retrieves a copy of the value stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}

	entry, ok := s.entries.Get(key)
	if !ok {
		return nil, storage.ErrKeyNotFound
	}

	out := make([]byte, len(entry.Value))
	copy(out, entry.Value)
	return out, nil
}

// Set stores a copy of value under key, overwriting any previous value.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	prev, existed := s.entries.Swap(key, domain.NewEntry(key, stored))

	delta := int64(len(stored))
	if existed {
		delta -= int64(len(prev.Value))
	}
	s.storedBytes.Add(delta)

	return nil
}

// Del removes key. Returns true if the key existed.
func (s *Store) Del(_ context.Context, key string) (bool, error) {
	if s.closed.Load() {
		return false, storage.ErrClosed
	}

	prev, ok := s.entries.Pop(key)
	if !ok {
		return false, nil
	}
	s.storedBytes.Add(-int64(len(prev.Value)))

	return true, nil
}

// Exists reports whether key is present.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	if s.closed.Load() {
		return false, storage.ErrClosed
	}
	return s.entries.Has(key), nil
}

// Keys returns all stored keys in no particular order.
func (s *Store) Keys(_ context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}
	return s.entries.Keys(), nil
}

// Len returns the number of stored keys.
func (s *Store) Len(_ context.Context) (int64, error) {
	if s.closed.Load() {
		return 0, storage.ErrClosed
	}
	return int64(s.entries.Count()), nil
}

// Stats returns current key and byte counts.
func (s *Store) Stats() storage.BackendStats {
	return storage.BackendStats{
		Keys:        int64(s.entries.Count()),
		StoredBytes: s.storedBytes.Load(),
	}
}

// Close marks the store closed. Subsequent operations return ErrClosed.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

// All returns a deep copy of every entry. Used for snapshot creation.
func (s *Store) All() []domain.Entry {
	out := make([]domain.Entry, 0, s.entries.Count())
	s.entries.Range(func(_ string, e domain.Entry) bool {
		out = append(out, e.Clone())
		return true
	})
	return out
}

// LoadSnapshot replaces the store contents with the given entries.
// Used during recovery before WAL replay.
func (s *Store) LoadSnapshot(entries []domain.Entry) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}

	s.entries.Clear()

	var total int64
	for _, e := range entries {
		clone := e.Clone()
		s.entries.Set(clone.Key, clone)
		total += int64(len(clone.Value))
	}
	s.storedBytes.Store(total)

	return nil
}
