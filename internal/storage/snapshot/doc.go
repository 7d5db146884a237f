// Package snapshot provides snapshot management for Blobnom.
//
// Snapshots are periodic full dumps of the in-memory backend, enabling
// faster recovery by reducing WAL replay time.
//
// Format (AD-0303):
//
//	snapshot-<ulid>.snap
//	[magic:8 "BLOBSNAP"]
//	[HeaderLen:4][HeaderJSON:HeaderLen]
//	[DataLen:4][Data:DataLen]   (JSON entries, or encrypted bytes)
//	[checksum:32 SHA-256 of all bytes above]
//
// Snapshots are written to a temp file and renamed into place, so a
// crash mid-write never leaves a half-formed .snap file. Loading walks
// snapshots newest first and falls back past any that fail their
// checksum.
//
// Encryption is optional: a master key comes from a passphrase
// (Argon2id) or a key file, the snapshot data key is expanded from it
// via HKDF, and the data section is sealed with an AEAD from
// pkg/crypto/adaptive.
//
// @design DS-0105
package snapshot
