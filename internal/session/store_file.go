package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the credential in a JSON file readable only by its owner.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("credential path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create credential directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Load reads the credential, dropping it if it has expired.
func (s *FileStore) Load() (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Credential{}, ErrNoCredential
	}
	if err != nil {
		return Credential{}, fmt.Errorf("failed to read credential: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		slog.Warn("Discarding unreadable credential file", "path", s.path, "error", err)
		_ = s.removeLocked()
		return Credential{}, ErrNoCredential
	}

	if !cred.Usable() {
		slog.Debug("Stored credential expired", "expires_at", cred.ExpiresAt)
		if err := s.removeLocked(); err != nil {
			return Credential{}, err
		}
		return Credential{}, ErrNoCredential
	}

	return cred, nil
}

// Save replaces the stored credential.
func (s *FileStore) Save(cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credential: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace credential: %w", err)
	}
	return nil
}

// Clear deletes the credential file if present.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked()
}

func (s *FileStore) removeLocked() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	return nil
}
