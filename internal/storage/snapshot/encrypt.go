// Package snapshot provides snapshot management for Blobnom.
//
// This file contains the key derivation pipeline for snapshot
// encryption.
//
// @design DS-0105
// @adr AD-0302
package snapshot

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"github.com/iamd3vil/blobnom/pkg/crypto/adaptive"
)

// Encryption errors.
var (
	ErrKeyTooShort       = errors.New("snapshot: encryption key too short (minimum 16 bytes)")
	ErrPassphraseTooWeak = errors.New("snapshot: passphrase too weak (minimum 8 characters)")
)

const (
	// MinKeyLength is the minimum master key length for encryption.
	MinKeyLength = 16

	// MinPassphraseLength is the minimum passphrase length.
	MinPassphraseLength = 8

	// SaltLength is the fixed salt length used in key derivation.
	SaltLength = 16

	// Argon2id parameters for key derivation from passphrase.
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32

	// hkdfInfoSnapshot separates the snapshot data key from any other
	// key expanded from the same master material.
	hkdfInfoSnapshot = "blobnom/snapshot/v1"
)

// EncryptionConfig configures snapshot encryption. Either Key or
// Passphrase provides the master material; the snapshot data key is
// always expanded from it via HKDF.
type EncryptionConfig struct {
	// Key is the raw master key, at least MinKeyLength bytes.
	Key []byte

	// Passphrase derives the master key via Argon2id.
	// If provided, Key is ignored.
	Passphrase []byte

	// Salt is required to re-derive the same key from a passphrase for
	// decryption. If nil, a new random salt is generated (encryption
	// path) and returned by NewCipherFromConfig.
	Salt []byte

	// Algorithm pins the AEAD: "aes-gcm" or "chacha20-poly1305".
	// Empty selects the platform-appropriate cipher.
	Algorithm string
}

// ValidateConfig validates the encryption configuration.
func ValidateConfig(cfg EncryptionConfig) error {
	if len(cfg.Passphrase) > 0 {
		if len(cfg.Passphrase) < MinPassphraseLength {
			return ErrPassphraseTooWeak
		}
		return nil
	}

	if len(cfg.Key) > 0 && len(cfg.Key) < MinKeyLength {
		return ErrKeyTooShort
	}

	return nil
}

// NewCipherFromConfig builds the snapshot cipher from the encryption
// configuration. Returns the salt used for passphrase-based derivation;
// the caller must persist it to decrypt later. A config with neither
// Key nor Passphrase yields a nil cipher and no error.
func NewCipherFromConfig(cfg EncryptionConfig) (adaptive.Cipher, []byte, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, nil, err
	}

	var master, salt []byte
	switch {
	case len(cfg.Passphrase) > 0:
		derived, err := DeriveKeyFromPassphrase(cfg.Passphrase, cfg.Salt)
		if err != nil {
			return nil, nil, err
		}
		salt, master, err = ExtractKeyFromDerived(derived)
		if err != nil {
			return nil, nil, err
		}
	case len(cfg.Key) > 0:
		master = cfg.Key
	default:
		return nil, nil, nil
	}

	dataKey, err := DeriveSubkey(master, hkdfInfoSnapshot, adaptive.KeySize)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Algorithm {
	case "":
		c, err := adaptive.New(dataKey)
		return c, salt, err
	case string(adaptive.CipherAESGCM), string(adaptive.CipherChaCha20):
		c, err := adaptive.NewWithType(dataKey, adaptive.CipherType(cfg.Algorithm))
		return c, salt, err
	default:
		return nil, nil, fmt.Errorf("snapshot: unsupported algorithm: %s", cfg.Algorithm)
	}
}

// DeriveKeyFromPassphrase derives a 32-byte master key from a
// passphrase using Argon2id. If salt is nil, a new random salt is
// generated. The result is salt followed by key; split it with
// ExtractKeyFromDerived.
func DeriveKeyFromPassphrase(passphrase []byte, salt []byte) ([]byte, error) {
	if salt == nil {
		salt = make([]byte, SaltLength)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("snapshot: derive key: %w", err)
		}
	}

	key := argon2.IDKey(
		passphrase,
		salt,
		argon2Time,
		argon2Memory,
		argon2Threads,
		argon2KeyLen,
	)

	result := make([]byte, len(salt)+len(key))
	copy(result, salt)
	copy(result[len(salt):], key)
	return result, nil
}

// ExtractKeyFromDerived splits a derived key into its salt and key
// parts.
func ExtractKeyFromDerived(derived []byte) (salt, key []byte, err error) {
	if len(derived) < SaltLength+argon2KeyLen {
		return nil, nil, fmt.Errorf("snapshot: invalid derived key length")
	}
	return derived[:SaltLength], derived[SaltLength:], nil
}

// DeriveSubkey expands a subkey from a master key using HKDF. Distinct
// info strings yield independent keys from the same master material.
func DeriveSubkey(masterKey []byte, info string, length int) ([]byte, error) {
	if len(masterKey) < MinKeyLength {
		return nil, ErrKeyTooShort
	}

	reader := hkdf.New(sha256.New, masterKey, nil, []byte(info))
	key := make([]byte, length)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("snapshot: derive subkey: %w", err)
	}
	return key, nil
}

// GenerateKey generates a random master key of the specified length.
func GenerateKey(length int) ([]byte, error) {
	if length < MinKeyLength {
		return nil, ErrKeyTooShort
	}

	key := make([]byte, length)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("snapshot: generate key: %w", err)
	}
	return key, nil
}

// ZeroKey zeros key material in place once it is no longer needed.
func ZeroKey(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
