// Package adaptive provides adaptive authenticated encryption for Blobnom.
//
// This package implements an AEAD abstraction that selects the best
// available cipher for the host, and is used to seal snapshot payloads
// before they reach disk.
//
// Supported Algorithms:
//
//   - AES-256-GCM: Preferred when hardware AES support is available
//   - ChaCha20-Poly1305: Fallback for systems without AES acceleration
//
// Features:
//
//   - Hardware Detection: Automatic selection based on CPU architecture
//   - AEAD: Authenticated encryption with associated data
//   - Self-Describing: Cipher type is recorded so decryption can
//     reconstruct the exact algorithm regardless of the local host
//   - Thread Safety: All cipher operations are safe for concurrent use
//
// Usage:
//
//	c, err := adaptive.New(key)
//	sealed, err := c.Encrypt(plaintext, aad)
//	opened, err := c.Decrypt(sealed, aad)
//
// @adr AD-0301
package adaptive
