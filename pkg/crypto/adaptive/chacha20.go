package adaptive

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// NewChaCha20 builds a ChaCha20-Poly1305 cipher from a 32-byte key.
func NewChaCha20(key []byte) (Cipher, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("chacha20-poly1305: %w", err)
	}
	return &aeadCipher{typ: CipherChaCha20, aead: aead}, nil
}
