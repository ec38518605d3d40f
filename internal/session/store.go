// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jeranaias/sentinel-tui/internal/util"
)

// ErrNoToken is returned by TokenStore.Retrieve when nothing is stored.
var ErrNoToken = errors.New("no stored token")

// =============================================================================
// TOKEN STORE INTERFACE
// =============================================================================

// TokenStore persists the bearer token across restarts.
type TokenStore interface {
	// Store replaces the stored token.
	Store(token string) error
	// Retrieve returns the stored token, or ErrNoToken.
	Retrieve() (string, error)
	// Delete removes the token. Deleting a missing token is not an error.
	Delete() error
	// Exists reports whether a token is stored.
	Exists() bool
}

// =============================================================================
// FILE TOKEN STORE
// =============================================================================

// FileTokenStore keeps the token in a single file readable only by the
// owner.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a store backed by path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Path returns the backing file.
func (f *FileTokenStore) Path() string {
	return f.path
}

// Store writes the token atomically with 0600 permissions.
func (f *FileTokenStore) Store(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("refusing to store an empty token")
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := util.AtomicWriteFile(f.path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Retrieve reads the token file.
func (f *FileTokenStore) Retrieve() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Delete removes the token file.
func (f *FileTokenStore) Delete() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// Exists reports whether the token file holds a token.
func (f *FileTokenStore) Exists() bool {
	_, err := f.Retrieve()
	return err == nil
}

// =============================================================================
// MEMORY TOKEN STORE
// =============================================================================

// MemoryTokenStore keeps the token in memory only.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryTokenStore creates a store, optionally seeded with a token.
func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

// Store implements TokenStore.
func (s *MemoryTokenStore) Store(token string) error {
	if token == "" {
		return errors.New("refusing to store an empty token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Retrieve implements TokenStore.
func (s *MemoryTokenStore) Retrieve() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

// Delete implements TokenStore.
func (s *MemoryTokenStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// Exists implements TokenStore.
func (s *MemoryTokenStore) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}
