// Package sessionstore holds the local session stores: a JSON file for the
// CLI and an in-memory store for tests and ephemeral runs.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/parkspace/parking-client/internal/core/ports"
)

// DefaultFileName is created under the user config directory.
const DefaultFileName = "parkctl/session.json"

// DefaultPath returns <user config dir>/parkctl/session.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("session path: %w", err)
	}
	return filepath.Join(dir, DefaultFileName), nil
}

// File stores the session as a single JSON document readable only by the owner.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string { return f.path }

func (f *File) Load(_ context.Context) (ports.StoredSession, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ports.StoredSession{}, ports.ErrNoStoredSession
	}
	if err != nil {
		return ports.StoredSession{}, fmt.Errorf("session load: %w", err)
	}

	var rec ports.StoredSession
	if err := json.Unmarshal(data, &rec); err != nil {
		return ports.StoredSession{}, fmt.Errorf("%w: %v", ports.ErrCorruptSession, err)
	}
	if rec.Token == "" {
		if rec.Role != "" || rec.Username != "" {
			return ports.StoredSession{}, ports.ErrCorruptSession
		}
		return ports.StoredSession{}, ports.ErrNoStoredSession
	}
	return rec, nil
}

// Save writes to a temp file and renames it over the old one.
func (f *File) Save(_ context.Context, rec ports.StoredSession) error {
	if rec.Token == "" {
		return errors.New("session save: empty token")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session save: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("session save: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("session save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

func (f *File) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

var _ ports.SessionStore = (*File)(nil)
