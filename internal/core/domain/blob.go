// Package domain defines the core domain models for Blobnom.
package domain

import (
	"fmt"
	"time"
)

// Blob constraints.
const (
	// MaxKeyLength bounds key size in bytes. Keys are textual and short;
	// anything longer is almost certainly a client bug.
	MaxKeyLength = 512

	// DefaultMaxValueSize bounds a single blob (16MB), overridable via
	// configuration. Matches the capacity class of the storage backends.
	DefaultMaxValueSize = 16 * 1024 * 1024
)

// Entry is one stored blob. Value is an opaque byte sequence: no
// encoding is assumed or enforced at any layer.
//
// @req RQ-0101
type Entry struct {
	// Key is the textual identifier, at most MaxKeyLength bytes.
	Key string `json:"key"`

	// Value is the blob payload. Serialized as base64 in JSON, so
	// snapshots remain binary-safe.
	Value []byte `json:"value"`

	// StoredAt is the write timestamp (Unix milliseconds).
	StoredAt int64 `json:"stored_at"`
}

// NewEntry creates an Entry stamped with the current time. The value
// slice is kept as given; callers that reuse their buffer must copy.
func NewEntry(key string, value []byte) Entry {
	return Entry{
		Key:      key,
		Value:    value,
		StoredAt: time.Now().UnixMilli(),
	}
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	out := e
	if e.Value != nil {
		out.Value = make([]byte, len(e.Value))
		copy(out.Value, e.Value)
	}
	return out
}

// Size returns the stored footprint of the entry in bytes.
func (e Entry) Size() int64 {
	return int64(len(e.Key) + len(e.Value))
}

// ValidateKey checks a key against the domain constraints.
func ValidateKey(key string) error {
	if key == "" {
		return ErrKeyEmpty
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong.WithDetails(fmt.Sprintf("%d bytes, limit %d", len(key), MaxKeyLength))
	}
	return nil
}

// ValidateValueSize checks a value size against the configured limit.
// A maxSize of 0 means DefaultMaxValueSize.
func ValidateValueSize(size int64, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxValueSize
	}
	if size > maxSize {
		return ErrValueTooLarge.WithDetails(fmt.Sprintf("%d bytes, limit %d", size, maxSize))
	}
	return nil
}

// CacheStats are the counters surfaced through INFO and the admin API.
// All fields are cumulative since process start unless noted.
type CacheStats struct {
	// Keys is the current number of stored blobs.
	Keys int64 `json:"keys"`

	// BytesStored is the current total payload size.
	BytesStored int64 `json:"bytes_stored"`

	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Sets   uint64 `json:"sets"`
	Dels   uint64 `json:"dels"`

	// CommandsProcessed counts every command handled, including faults.
	CommandsProcessed uint64 `json:"commands_processed"`
}

// HitRate returns the fraction of GETs served from the cache, in [0,1].
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
