// Package keyfile provides snapshot master key management utilities.
package keyfile

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	key, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(key) != KeySize {
		t.Errorf("Generate() length = %d, want %d", len(key), KeySize)
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if seen[string(key)] {
			t.Error("Generate() produced duplicate key")
		}
		seen[string(key)] = true
	}
}

func TestWriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "master.key")

	key, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if err := Write(path, key); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// File mode must keep the key private.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("key file mode = %o, want 600", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !bytes.Equal(loaded, key) {
		t.Error("Load() returned different key than written")
	}
}

func TestWrite_InvalidKeySize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.key")

	if err := Write(path, make([]byte, 16)); err == nil {
		t.Error("Write() should reject short key")
	}
	if err := Write(path, nil); err == nil {
		t.Error("Write() should reject nil key")
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"Not hex", "zz" + strings.Repeat("ab", KeySize-1)},
		{"Too short", strings.Repeat("ab", 16)},
		{"Too long", strings.Repeat("ab", 48)},
		{"Empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "-"))
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() should return error")
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.key")); err == nil {
		t.Error("Load() should return error for missing file")
	}
}

func TestLoad_TrailingWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.key")

	key, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	content := hex.EncodeToString(key) + "\n\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !bytes.Equal(loaded, key) {
		t.Error("Load() should tolerate trailing whitespace")
	}
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.key")

	// First call creates.
	key1, created, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate() error = %v", err)
	}
	if !created {
		t.Error("LoadOrCreate() should report created on first call")
	}
	if len(key1) != KeySize {
		t.Errorf("LoadOrCreate() key length = %d, want %d", len(key1), KeySize)
	}

	// Second call loads the same key.
	key2, created, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate() error = %v", err)
	}
	if created {
		t.Error("LoadOrCreate() should not report created on second call")
	}
	if !bytes.Equal(key1, key2) {
		t.Error("LoadOrCreate() returned different key on reload")
	}
}

func TestLoadOrCreate_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.key")
	if err := os.WriteFile(path, []byte("not a key"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	// Corruption must surface, not silently regenerate.
	if _, _, err := LoadOrCreate(path); err == nil {
		t.Error("LoadOrCreate() should return error for corrupt key file")
	}
}

func TestFingerprint(t *testing.T) {
	key, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	fp := Fingerprint(key)
	if len(fp) != FingerprintLength {
		t.Errorf("Fingerprint() length = %d, want %d", len(fp), FingerprintLength)
	}
	if strings.ToLower(fp) != fp {
		t.Error("Fingerprint() should return lowercase hex")
	}

	// Deterministic.
	if Fingerprint(key) != fp {
		t.Error("Fingerprint() is not deterministic")
	}
}

func TestFingerprint_DifferentKeys(t *testing.T) {
	key1, _ := Generate()
	key2, _ := Generate()

	if Fingerprint(key1) == Fingerprint(key2) {
		t.Error("Fingerprint() produced same fingerprint for different keys")
	}
}

func TestVerifyFingerprint(t *testing.T) {
	key, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	fp := Fingerprint(key)

	if !VerifyFingerprint(key, fp) {
		t.Error("VerifyFingerprint() returned false for correct key")
	}

	other, _ := Generate()
	if VerifyFingerprint(other, fp) {
		t.Error("VerifyFingerprint() returned true for wrong key")
	}

	if VerifyFingerprint(key, "bogus") {
		t.Error("VerifyFingerprint() returned true for wrong fingerprint")
	}
}

func BenchmarkGenerate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Generate()
	}
}

func BenchmarkFingerprint(b *testing.B) {
	key, _ := Generate()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Fingerprint(key)
	}
}
