// Package crypto seals small text fields (delivery addresses) before they are
// written to the database.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// Cipher seals a value bound to an owner string. Opening with a different
// owner fails.
type Cipher interface {
	Seal(plaintext, owner string) (string, error)
	Open(sealed, owner string) (string, error)
}

// Noop stores values in the clear. Used when FIELD_ENCRYPTION_KEY is unset.
type Noop struct{}

func (Noop) Seal(plaintext, _ string) (string, error) { return plaintext, nil }
func (Noop) Open(sealed, _ string) (string, error)    { return sealed, nil }

var ErrCiphertextTooShort = errors.New("ciphertext too short")

type AESGCM struct {
	gcm cipher.AEAD
}

// NewAESGCM expects a 64 character hex key (AES-256).
func NewAESGCM(hexKey string) (*AESGCM, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCM{gcm: gcm}, nil
}

// Seal returns hex(nonce || ciphertext || tag). owner is authenticated but not stored.
func (c *AESGCM) Seal(plaintext, owner string) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.gcm.Seal(nonce, nonce, []byte(plaintext), []byte(owner))
	return hex.EncodeToString(sealed), nil
}

func (c *AESGCM) Open(sealed, owner string) (string, error) {
	buf, err := hex.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to decode hex: %w", err)
	}

	nonceSize := c.gcm.NonceSize()
	if len(buf) < nonceSize {
		return "", ErrCiphertextTooShort
	}

	nonce, body := buf[:nonceSize], buf[nonceSize:]
	plain, err := c.gcm.Open(nil, nonce, body, []byte(owner))
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plain), nil
}
