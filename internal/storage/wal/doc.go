// Package wal provides write-ahead logging for the in-memory backend.
//
// Every Set and Del is appended here before the backend applies it, so
// the state between two snapshots survives a crash.
//
// Features:
//
//   - Buffered Appends: Records accumulate in a write buffer and reach
//     disk on the sync interval, on rotation, and on Close
//   - Segment Rotation: ULID-named segments rotate at a size cap, with
//     an fsync before the old segment is closed
//   - Compaction: Segments fully covered by a snapshot are deleted
//   - Recovery: Sequential replay in segment order; a torn tail ends
//     replay cleanly instead of failing recovery
//
// Record wire format (AD-0304):
//
//	wal-<ulid>.log
//	[Record]*
//
//	Record:
//	[Magic:1 0xB1][Version:1][Op:1][KeyLen:2][ValueLen:4][Timestamp:8]
//	[Key:KeyLen][Value:ValueLen]
//	[CRC32C:4 over all bytes above]
//
// All integers are big-endian. Timestamp is Unix nanoseconds. Op is
// 1 for Set and 2 for Del.
//
// @design DS-0104
package wal
