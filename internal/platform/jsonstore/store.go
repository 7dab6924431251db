// Package jsonstore persists flat JSON objects as files under a single storage directory.
package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store reads and writes named JSON documents inside dir.
// Writes to the same document are serialized; distinct documents are written independently.
type Store struct {
	dir   string
	locks sync.Map // document name -> *sync.Mutex
}

// New creates a Store rooted at dir. The directory is created lazily on first access.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path of the named document.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) lock(name string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(name, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create storage dir %s: %w", s.dir, err)
	}
	return nil
}

// Load reads the named document into a map.
// If the document does not exist yet, def is written to disk and returned as is.
// A document containing JSON null decodes to an empty map.
func Load[V any](s *Store, name string, def map[string]V) (map[string]V, error) {
	if def == nil {
		def = map[string]V{}
	}
	if err := s.ensureDir(); err != nil {
		return nil, err
	}

	mu := s.lock(name)
	mu.Lock()
	defer mu.Unlock()

	b, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.write(name, def); err != nil {
			return nil, err
		}
		return def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	var out map[string]V
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	if out == nil {
		out = map[string]V{}
	}
	return out, nil
}

// Save encodes data and writes it to the named document.
// The call returns once the file has been written.
func (s *Store) Save(name string, data any) error {
	if err := s.ensureDir(); err != nil {
		return err
	}

	mu := s.lock(name)
	mu.Lock()
	defer mu.Unlock()

	return s.write(name, data)
}

// write assumes the document lock is held.
func (s *Store) write(name string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := os.WriteFile(s.Path(name), b, filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Remove deletes the named document. A missing document is not an error.
func (s *Store) Remove(name string) error {
	mu := s.lock(name)
	mu.Lock()
	defer mu.Unlock()

	if err := os.Remove(s.Path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// RemoveAll deletes the storage directory and everything in it.
func (s *Store) RemoveAll() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove storage dir %s: %w", s.dir, err)
	}
	return nil
}
