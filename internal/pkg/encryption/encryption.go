// Package encryption seals small server-side records with AES-256-GCM.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// Encryptor seals and opens values. The associated data binds a ciphertext
// to its context: opening with different associated data fails.
type Encryptor interface {
	// Seal encrypts plaintext and returns base64-encoded nonce||ciphertext.
	Seal(plaintext, associatedData []byte) (string, error)

	// Open reverses Seal.
	Open(ciphertext string, associatedData []byte) ([]byte, error)
}

// AESEncryptor implements Encryptor using AES-256-GCM.
type AESEncryptor struct {
	gcm cipher.AEAD
}

// NewAESEncryptor creates a new AES-256-GCM encryptor.
// The key must be 32 bytes, given raw or base64-encoded. A value that
// decodes as base64 to anything other than 32 bytes is taken raw.
func NewAESEncryptor(key string) (*AESEncryptor, error) {
	keyBytes := []byte(key)
	if decoded, err := base64.StdEncoding.DecodeString(key); err == nil && len(decoded) == 32 {
		keyBytes = decoded
	}

	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(keyBytes))
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESEncryptor{gcm: gcm}, nil
}

// Seal encrypts plaintext with a fresh random nonce.
func (e *AESEncryptor) Seal(plaintext, associatedData []byte) (string, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.gcm.Seal(nonce, nonce, plaintext, associatedData)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (e *AESEncryptor) Open(ciphertext string, associatedData []byte) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	nonceSize := e.gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, body := data[:nonceSize], data[nonceSize:]
	plaintext, err := e.gcm.Open(nil, nonce, body, associatedData)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// GenerateKey generates a random base64-encoded 32-byte key.
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// NoOpEncryptor base64-encodes without encrypting. Development only; the
// associated data is ignored.
type NoOpEncryptor struct{}

// NewNoOpEncryptor creates a new no-operation encryptor.
func NewNoOpEncryptor() *NoOpEncryptor {
	return &NoOpEncryptor{}
}

// Seal returns the plaintext as base64.
func (e *NoOpEncryptor) Seal(plaintext, _ []byte) (string, error) {
	return base64.StdEncoding.EncodeToString(plaintext), nil
}

// Open decodes base64.
func (e *NoOpEncryptor) Open(ciphertext string, _ []byte) ([]byte, error) {
	return base64.StdEncoding.DecodeString(ciphertext)
}
