package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/venuescout/auth-service/internal/domain"
)

const (
	nonceSize = 12
	tagSize   = 16
	keySize   = 32
)

// AESGCMCipher implements authenticated encryption for secrets at rest.
// Each call draws a fresh 96-bit nonce, so equal plaintexts never produce
// equal blobs.
type AESGCMCipher struct {
	aead cipher.AEAD
}

// NewAESGCMCipher builds a cipher from the configured key. Keys shorter
// than 256 bits are a configuration error; longer keys are truncated.
func NewAESGCMCipher(key []byte) (*AESGCMCipher, error) {
	if len(key) < keySize {
		return nil, domain.ErrEncryptionKeyTooShort
	}
	block, err := aes.NewCipher(key[:keySize])
	if err != nil {
		return nil, fmt.Errorf("init aes: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &AESGCMCipher{aead: aead}, nil
}

// Encrypt returns base64(nonce).base64(ciphertext).base64(tag). Keeping the
// three components explicit makes the blob self-contained and lets Decrypt
// reject malformed input before touching the cipher.
func (c *AESGCMCipher) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("draw nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, plaintext, nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	enc := base64.RawURLEncoding
	return enc.EncodeToString(nonce) + "." + enc.EncodeToString(ciphertext) + "." + enc.EncodeToString(tag), nil
}

func (c *AESGCMCipher) Decrypt(blob string) ([]byte, error) {
	parts := strings.Split(blob, ".")
	if len(parts) != 3 {
		return nil, domain.ErrInvalidCiphertext
	}

	enc := base64.RawURLEncoding
	nonce, err := enc.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return nil, domain.ErrInvalidCiphertext
	}
	ciphertext, err := enc.DecodeString(parts[1])
	if err != nil {
		return nil, domain.ErrInvalidCiphertext
	}
	tag, err := enc.DecodeString(parts[2])
	if err != nil || len(tag) != tagSize {
		return nil, domain.ErrInvalidCiphertext
	}

	plaintext, err := c.aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, domain.ErrCryptoIntegrity
	}
	return plaintext, nil
}
