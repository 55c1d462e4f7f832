package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// MasterKeyEnv is consulted by LoadSealer when no key file is configured.
const MasterKeyEnv = "MUSIFY_MASTER_KEY"

// ErrNoMasterKey is returned by LoadSealer when neither a key file nor the
// MUSIFY_MASTER_KEY environment variable is available.
var ErrNoMasterKey = errors.New("cryptox: no master key configured")

// Sealer encrypts small secrets (credential blobs) with AES-256-GCM.
// The output format is: [12-byte nonce][ciphertext][16-byte auth tag]
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a 32-byte AES-256 key from keyMaterial using SHA-256.
func NewSealer(keyMaterial []byte) (*Sealer, error) {
	if len(keyMaterial) == 0 {
		return nil, ErrNoMasterKey
	}

	key := sha256.Sum256(keyMaterial)

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Sealer{aead: gcm}, nil
}

// LoadSealer loads key material from path when set, otherwise from the
// MUSIFY_MASTER_KEY environment variable.
func LoadSealer(path string) (*Sealer, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read master key file: %w", err)
		}
		return NewSealer([]byte(strings.TrimSpace(string(data))))
	}

	if envKey := os.Getenv(MasterKeyEnv); envKey != "" {
		return NewSealer([]byte(envKey))
	}

	return nil, ErrNoMasterKey
}

// Seal encrypts and authenticates plaintext. aad is authenticated but not
// encrypted; Open must be called with the same aad.
func (s *Sealer) Seal(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends ciphertext and tag to the nonce
	return s.aead.Seal(nonce, nonce, plaintext, aad), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed, aad []byte) ([]byte, error) {
	nonceSize := s.aead.NonceSize()
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plaintext, nil
}
