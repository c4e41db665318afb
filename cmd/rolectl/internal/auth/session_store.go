package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/terraconstructs/rolegate/pkg/sdk"
)

const (
	sessionDir  = ".rolegate"
	sessionFile = "session.json"
)

// FileStore implements sdk.SessionStore using a JSON file.
// This is the CLI's session persistence implementation.
type FileStore struct {
	path string
}

// Ensure FileStore implements sdk.SessionStore at compile time.
var _ sdk.SessionStore = (*FileStore)(nil)

// NewFileStore creates a FileStore under ~/.rolegate.
func NewFileStore() (*FileStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	return NewFileStoreAt(filepath.Join(home, sessionDir))
}

// NewFileStoreAt creates a FileStore keeping its file in dir.
func NewFileStoreAt(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, sessionFile)}, nil
}

// Path returns the location of the session file.
func (s *FileStore) Path() string {
	return s.path
}

// Put writes the session atomically: token and identity land together or not at all.
func (s *FileStore) Put(_ context.Context, session sdk.Session) error {
	if err := sdk.ValidateSession(session); err != nil {
		return err
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	data = append(data, '\n')

	// CreateTemp opens the file 0600.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), sessionFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write session: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Get loads the session. A missing or incomplete file is reported as sdk.ErrNoSession.
func (s *FileStore) Get(_ context.Context) (*sdk.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, sdk.ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session sdk.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if !session.Complete() {
		return nil, sdk.ErrNoSession
	}
	session.Identity.Roles = session.Identity.Roles.Clone()
	return &session, nil
}

// Clear deletes the session file.
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}
