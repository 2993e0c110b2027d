package secretstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// keySize is the AES-256 key length in bytes.
const keySize = 32

// Cipher performs authenticated symmetric encryption (AES-256-GCM) of bundle
// payloads under a per-installation key.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a Cipher from raw key material.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Cipher{aead: aead}, nil
}

// LoadOrCreateKey loads the base64-encoded key file at path, generating a
// fresh random key on first use. Idempotent: repeated calls return a Cipher
// over the same key material. Failures are reported as *KeyIOError.
func LoadOrCreateKey(path string) (*Cipher, error) {
	if path == "" {
		return nil, &KeyIOError{Op: "load", Path: path, Err: errors.New("key file path cannot be empty")}
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return generateKey(path)
	case err != nil:
		return nil, &KeyIOError{Op: "load", Path: path, Err: err}
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, &KeyIOError{Op: "load", Path: path, Err: fmt.Errorf("decoding key material: %w", err)}
	}

	c, err := NewCipher(key)
	if err != nil {
		return nil, &KeyIOError{Op: "load", Path: path, Err: err}
	}
	return c, nil
}

// generateKey creates and persists a new random key with owner-only permissions.
// Written via temp file + rename so a crash never leaves a truncated key file.
func generateKey(path string) (*Cipher, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, &KeyIOError{Op: "generate", Path: path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, &KeyIOError{Op: "generate", Path: path, Err: err}
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), "*.tmp")
	if err != nil {
		return nil, &KeyIOError{Op: "generate", Path: path, Err: err}
	}
	tempName := tempFile.Name()
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	encoded := base64.StdEncoding.EncodeToString(key) + "\n"
	if _, err := tempFile.WriteString(encoded); err != nil {
		return nil, &KeyIOError{Op: "generate", Path: path, Err: err}
	}
	if err := tempFile.Close(); err != nil {
		return nil, &KeyIOError{Op: "generate", Path: path, Err: err}
	}
	if err := os.Chmod(tempName, 0600); err != nil {
		return nil, &KeyIOError{Op: "generate", Path: path, Err: err}
	}
	if err := os.Rename(tempName, path); err != nil {
		return nil, &KeyIOError{Op: "generate", Path: path, Err: err}
	}

	return NewCipher(key)
}

// Seal encrypts plaintext, prefixing the random nonce to the ciphertext.
func (c *Cipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a nonce-prefixed ciphertext. Any tampering, truncation, or
// wrong-key input fails authentication and returns an error.
func (c *Cipher) Open(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < c.aead.NonceSize() {
		return nil, errors.New("ciphertext shorter than nonce")
	}
	nonce, sealed := ciphertext[:c.aead.NonceSize()], ciphertext[c.aead.NonceSize():]
	return c.aead.Open(nil, nonce, sealed, nil)
}
