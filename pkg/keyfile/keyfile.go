// Package keyfile provides snapshot master key management utilities.
package keyfile

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// KeySize is the raw key length in bytes.
const KeySize = 32

// Generate generates a cryptographically secure random key.
func Generate() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// Write stores a key at path, hex encoded with a trailing newline.
//
// The file is created with mode 0600 and the parent directory with 0700.
func Write(path string, key []byte) error {
	if len(key) != KeySize {
		return fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}

	encoded := hex.EncodeToString(key) + "\n"
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

// Load reads and decodes a key from path.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	encoded := strings.TrimSpace(string(data))
	key, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("key file %s is not valid hex: %w", path, err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("key file %s holds %d bytes, want %d", path, len(key), KeySize)
	}
	return key, nil
}

// LoadOrCreate loads the key at path, generating and storing a fresh
// one when the file does not exist yet.
//
// The returned bool reports whether a new key was created.
func LoadOrCreate(path string) ([]byte, bool, error) {
	key, err := Load(path)
	if err == nil {
		return key, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}

	key, err = Generate()
	if err != nil {
		return nil, false, err
	}
	if err := Write(path, key); err != nil {
		return nil, false, err
	}
	return key, true, nil
}
