package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// NewAESGCM builds an AES-GCM cipher. The key length selects the AES
// variant: 16, 24 or 32 bytes for AES-128, AES-192 or AES-256.
func NewAESGCM(key []byte) (Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes-gcm: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aes-gcm: %w", err)
	}
	return &aeadCipher{typ: CipherAESGCM, aead: aead}, nil
}
