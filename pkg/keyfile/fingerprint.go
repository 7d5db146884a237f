// Package keyfile provides snapshot master key management utilities.
package keyfile

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// FingerprintLength is the fingerprint length in hex characters.
const FingerprintLength = 16

// Fingerprint computes a short identifier for a key.
//
// The fingerprint is the first 16 hex characters of the key's SHA-256
// and is safe to log or to store alongside data sealed with the key.
func Fingerprint(key []byte) string {
	h := sha256.Sum256(key)
	return hex.EncodeToString(h[:])[:FingerprintLength]
}

// VerifyFingerprint reports whether key matches an expected fingerprint.
//
// Uses constant-time comparison.
func VerifyFingerprint(key []byte, expected string) bool {
	actual := Fingerprint(key)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) == 1
}
