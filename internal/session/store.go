// Package session persists the single session identifier that gates every
// protected view. Identity flows are the only writers; everything else
// reads.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoSession reports the normal logged-out state: no identifier is stored.
var ErrNoSession = errors.New("no session")

// Store persists at most one session identifier.
type Store interface {
	// Load returns the stored identifier, or ErrNoSession when absent.
	Load(ctx context.Context) (string, error)
	// Save replaces the stored identifier.
	Save(ctx context.Context, id string) error
	// Clear removes the stored identifier. Clearing an absent session is
	// not an error.
	Clear(ctx context.Context) error
}

// FileStore keeps the session identifier in a single local file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the session identifier from disk.
func (s *FileStore) Load(_ context.Context) (string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("read session file: %w", err)
	}
	id := strings.TrimSpace(string(raw))
	if id == "" {
		return "", ErrNoSession
	}
	return id, nil
}

// Save writes the session identifier, creating the parent directory if needed.
func (s *FileStore) Save(_ context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("session id is required")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(id+"\n"), 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Clear removes the session file.
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
