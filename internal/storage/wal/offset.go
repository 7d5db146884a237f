// Package wal provides write-ahead logging for the in-memory backend.
package wal

import "fmt"

// Offset identifies a position in the WAL stream: a segment ULID plus a
// byte position inside that segment. ULIDs sort by creation time, so
// offsets order lexicographically by segment, then numerically by
// position.
type Offset struct {
	Segment string `json:"segment"`
	Pos     int64  `json:"pos"`
}

// IsZero reports whether the offset is unset.
func (o Offset) IsZero() bool {
	return o.Segment == "" && o.Pos == 0
}

// Before reports whether o precedes other in the stream.
func (o Offset) Before(other Offset) bool {
	if o.Segment != other.Segment {
		return o.Segment < other.Segment
	}
	return o.Pos < other.Pos
}

// String formats the offset as "<segment>:<pos>" for logging.
func (o Offset) String() string {
	if o.IsZero() {
		return "start"
	}
	return fmt.Sprintf("%s:%d", o.Segment, o.Pos)
}
