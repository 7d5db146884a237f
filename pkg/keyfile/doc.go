// Package keyfile provides snapshot master key management utilities.
//
// This package implements generation, storage, and loading of the
// symmetric key Blobnom uses to seal encrypted snapshots.
//
// Key File Format:
//
//   - Body: 64 characters of hex-encoded random bytes (32 bytes decoded)
//   - A single trailing newline is tolerated on load
//   - File mode: 0600, parent directory 0700
//
// Fingerprint Format:
//
//   - First 16 characters of the hex-encoded SHA-256 of the raw key
//   - Safe to log and to embed in snapshot headers for key matching
//
// Security:
//
//   - Uses crypto/rand for CSPRNG
//   - Fingerprint comparison is constant-time
//   - The raw key never appears in logs, only its fingerprint
//
// @design DS-0103
// @adr AD-0302
package keyfile
