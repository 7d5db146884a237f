// Package wal provides write-ahead logging for the in-memory backend.
package wal

import (
	"errors"
	"time"
)

// Errors for WAL operations.
var (
	ErrCorruptedEntry   = errors.New("wal: corrupted entry")
	ErrChecksumMismatch = errors.New("wal: checksum mismatch")
	ErrInvalidEntryType = errors.New("wal: invalid entry type")
)

// OpType represents the type of operation in the WAL.
type OpType uint8

const (
	OpTypeUnspecified OpType = iota
	OpTypeSet
	OpTypeDel
)

// String returns the operation name for logging.
func (t OpType) String() string {
	switch t {
	case OpTypeSet:
		return "set"
	case OpTypeDel:
		return "del"
	default:
		return "unspecified"
	}
}

// Entry represents one durable operation written to the WAL.
//
// Timestamp uses Unix nanoseconds.
type Entry struct {
	Op        OpType
	Key       string
	Value     []byte
	Timestamp int64
}

// NewSetEntry creates a SET WAL entry.
func NewSetEntry(key string, value []byte) *Entry {
	return &Entry{
		Op:        OpTypeSet,
		Key:       key,
		Value:     value,
		Timestamp: time.Now().UnixNano(),
	}
}

// NewDelEntry creates a DEL WAL entry.
func NewDelEntry(key string) *Entry {
	return &Entry{
		Op:        OpTypeDel,
		Key:       key,
		Timestamp: time.Now().UnixNano(),
	}
}

// EncodedSize returns the on-disk size of the entry's record in bytes.
func (e *Entry) EncodedSize() int {
	return recordHeaderSize + len(e.Key) + len(e.Value) + recordCRCSize
}
