// Package jsonstore persists the device registry as a JSON document on disk
// and watches that document for writes made by other processes.
package jsonstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/urmzd/homeagent/pkg/device"
)

// ErrNoDocument indicates the configured device document does not exist.
var ErrNoDocument = errors.New("device document not found")

//go:embed home.json
var defaultHome []byte

// Store is a device.Store backed by a single JSON file. Saves replace the
// file atomically so that concurrent readers never see a partial document.
type Store struct {
	mu   sync.Mutex
	path string
}

// New creates a store for the document at path.
func New(path string) *Store {
	return &Store{path: filepath.Clean(path)}
}

// Path returns the document path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(ctx context.Context) (*device.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoDocument, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	snap, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return snap, nil
}

func (s *Store) Save(ctx context.Context, snap *device.Snapshot) error {
	raw, err := encode(snap)
	if err != nil {
		return fmt.Errorf("failed to encode devices: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".devices-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write devices: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write devices: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// DefaultHome returns the bundled demo home.
func DefaultHome() (*device.Snapshot, error) {
	return decode(defaultHome)
}

// Seed writes the bundled demo home to path unless a document already exists.
// It reports whether a file was written.
func Seed(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, defaultHome, 0o644); err != nil {
		return false, fmt.Errorf("failed to seed %s: %w", path, err)
	}
	return true, nil
}
