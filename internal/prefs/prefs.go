// Package prefs is the local preference store boundary: small string values
// keyed by user id and field name, used for auxiliary profile data and UI
// preferences. Never authoritative for any catalog data.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Well-known keys. Per-user keys are composed with UserKey.
const (
	KeyDarkMode        = "darkMode"
	KeyHasLoggedBefore = "hasLoggedBefore"
)

// UserKey composes a per-user preference key, e.g. UserKey("dni", uid).
func UserKey(field, uid string) string {
	return fmt.Sprintf("%s_%s", field, uid)
}

// Store is the get/set/remove contract. Get returns ok=false for a missing
// key; a missing preference is not an error.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// FileStore persists preferences as one JSON object, rewritten atomically
// (temp file + rename) on every change.
type FileStore struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, values: make(map[string]string)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.values); err != nil {
		return nil, fmt.Errorf("prefs: archivo corrupto %s: %w", path, err)
	}
	return s, nil
}

func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flush()
}

func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flush()
}

// flush must be called under mu.
func (s *FileStore) flush() error {
	raw, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".prefs-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
