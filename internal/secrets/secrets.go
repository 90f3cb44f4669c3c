// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package secrets stores provider API keys encrypted at rest. Keys are
// sealed with AES-256-GCM under a master key; the master key either lives
// in an owner-only file or is derived from a password with PBKDF2-SHA-256.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/pbkdf2"

	"github.com/seralin/tradepost-tui/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// EncryptedPrefix marks a stored value as encrypted
// (format: ENC:base64(nonce|ciphertext|tag)).
const EncryptedPrefix = "ENC:"

// NonceSize is the AES-GCM nonce size in bytes.
const NonceSize = 12

// KeySize is the AES-256 key size in bytes.
const KeySize = 32

// SaltSize is the salt size for key derivation in bytes.
const SaltSize = 32

// PBKDF2Iterations follows the OWASP recommendation for PBKDF2-SHA-256.
const PBKDF2Iterations = 600000

const (
	keysFile   = "keys.json"
	masterFile = "master.key"
	saltFile   = "master.salt"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotInitialized indicates the store has no usable cipher.
	ErrNotInitialized = errors.New("secrets store not initialized")
	// ErrInvalidCiphertext indicates the stored value format is invalid.
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	// ErrDecryptionFailed indicates a wrong key or tampered data.
	ErrDecryptionFailed = errors.New("decryption failed: authentication tag mismatch")
	// ErrKeyNotFound indicates no API key is stored for the provider.
	ErrKeyNotFound = errors.New("no API key stored for provider")
)

// =============================================================================
// HELPERS
// =============================================================================

// ZeroBytes zeros sensitive byte slices to limit memory disclosure.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GenerateSalt returns a fresh random salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// DeriveKey derives an AES-256 key from a password and salt.
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, PBKDF2Iterations, KeySize, sha256.New)
}

// =============================================================================
// STORE
// =============================================================================

// Store persists provider API keys in an encrypted JSON file. All methods
// are safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	baseDir string
	aead    cipher.AEAD
}

// Open opens (or initializes) a store in dir using a file-based master key.
// A missing master key is generated on first use.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	keyPath := filepath.Join(dir, masterFile)
	key, err := os.ReadFile(keyPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		key = make([]byte, KeySize)
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return nil, err
		}
		if err := os.WriteFile(keyPath, key, 0600); err != nil {
			return nil, err
		}
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("master key has wrong size: %d bytes", len(key))
	}
	defer ZeroBytes(key)

	return newStore(dir, key)
}

// OpenWithPassword opens a store whose master key is derived from password.
// The salt is created on first use and persisted next to the key file.
func OpenWithPassword(dir, password string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	saltPath := filepath.Join(dir, saltFile)
	salt, err := os.ReadFile(saltPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		salt, err = GenerateSalt()
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(saltPath, salt, 0600); err != nil {
			return nil, err
		}
	}

	key := DeriveKey(password, salt)
	defer ZeroBytes(key)

	return newStore(dir, key)
}

// DefaultDir returns the default secrets directory (~/.tradepost).
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tradepost"), nil
}

func newStore(dir string, key []byte) (*Store, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Store{baseDir: dir, aead: aead}, nil
}

// =============================================================================
// SEAL / OPEN
// =============================================================================

func (s *Store) seal(plaintext string) (string, error) {
	if s.aead == nil {
		return "", ErrNotInitialized
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return EncryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *Store) open(value string) (string, error) {
	if s.aead == nil {
		return "", ErrNotInitialized
	}
	if !strings.HasPrefix(value, EncryptedPrefix) {
		return "", ErrInvalidCiphertext
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, EncryptedPrefix))
	if err != nil || len(raw) < NonceSize {
		return "", ErrInvalidCiphertext
	}
	plaintext, err := s.aead.Open(nil, raw[:NonceSize], raw[NonceSize:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// =============================================================================
// KEY OPERATIONS
// =============================================================================

// SetKey stores an API key for a provider.
func (s *Store) SetKey(provider, apiKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.loadLocked()
	sealed, err := s.seal(apiKey)
	if err != nil {
		return err
	}
	keys[provider] = sealed
	return s.saveLocked(keys)
}

// GetKey returns the API key for a provider. A corrupt or undecryptable
// entry reports ErrKeyNotFound so callers can re-prompt rather than crash.
func (s *Store) GetKey(provider string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.loadLocked()
	sealed, ok := keys[provider]
	if !ok {
		return "", ErrKeyNotFound
	}
	apiKey, err := s.open(sealed)
	if err != nil {
		return "", ErrKeyNotFound
	}
	return apiKey, nil
}

// DeleteKey removes the API key for a provider.
func (s *Store) DeleteKey(provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.loadLocked()
	if _, ok := keys[provider]; !ok {
		return ErrKeyNotFound
	}
	delete(keys, provider)
	return s.saveLocked(keys)
}

// Providers lists the providers that have a stored key.
func (s *Store) Providers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.loadLocked()
	out := make([]string, 0, len(keys))
	for p := range keys {
		out = append(out, p)
	}
	return out
}

// loadLocked reads the key file. Missing or corrupt files yield an empty
// map rather than an error.
func (s *Store) loadLocked() map[string]string {
	data, err := os.ReadFile(filepath.Join(s.baseDir, keysFile))
	if err != nil {
		return map[string]string{}
	}
	var keys map[string]string
	if err := json.Unmarshal(data, &keys); err != nil || keys == nil {
		return map[string]string{}
	}
	return keys
}

func (s *Store) saveLocked(keys map[string]string) error {
	data, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(filepath.Join(s.baseDir, keysFile), data, 0600)
}
