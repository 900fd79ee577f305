// Package crypto seals settings values (Zotero API keys) with AES-256-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	// Prefix marks a stored value as sealed by an Encryptor.
	Prefix = "enc:v1:"

	hkdfInfo = "pubimport settings"
)

var (
	ErrInvalidKeySize     = errors.New("encryption key must be 32 bytes for AES-256")
	ErrEmptySecret        = errors.New("encryption secret must not be empty")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	ErrDecryptionFailed   = errors.New("decryption failed: authentication error")
	ErrNotEncrypted       = errors.New("value is not encrypted")
)

type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor builds an Encryptor from a raw 32-byte key.
func NewEncryptor(key []byte) (*Encryptor, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Encryptor{aead: gcm}, nil
}

// NewEncryptorFromBase64 builds an Encryptor from a base64-encoded key.
func NewEncryptorFromBase64(encodedKey string) (*Encryptor, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 key: %w", err)
	}
	return NewEncryptor(key)
}

// NewEncryptorFromSecret derives the key from an operator-supplied secret
// of any length with HKDF-SHA256.
func NewEncryptorFromSecret(secret string) (*Encryptor, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrEmptySecret
	}
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	return NewEncryptor(key)
}

// DeriveKey expands secret into a KeySize key.
func DeriveKey(secret string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// Encrypt seals plaintext and returns Prefix followed by base64(nonce|ciphertext).
// The empty string stays empty.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return Prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (e *Encryptor) Decrypt(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if !IsEncrypted(value) {
		return "", ErrNotEncrypted
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	ns := e.aead.NonceSize()
	if len(data) < ns {
		return "", ErrCiphertextTooShort
	}

	plaintext, err := e.aead.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// IsEncrypted reports whether value carries the Encryptor prefix.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, Prefix)
}

// GenerateKey returns a new random base64-encoded AES-256 key.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
