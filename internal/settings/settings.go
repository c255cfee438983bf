// Package settings persists small client-side preferences, such as the last
// selected cover, in a yaml key/value file.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/beanbag/internal/appearance"
)

// DefaultSelectionKey is the key the selected appearance is stored under.
const DefaultSelectionKey = "beanbag-color"

// Store is a string key/value store.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// FileStore keeps all values in a single yaml file, rewritten on every Set.
type FileStore struct {
	path   string
	mu     sync.RWMutex
	values map[string]string
}

// OpenFile loads the store at path. A missing file yields an empty store.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	if s.values == nil {
		s.values = make(map[string]string)
	}
	return s, nil
}

// Get returns the value stored under key.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and writes the file.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// LoadSelection returns the stored appearance, or the default one when
// nothing (or something unknown) is stored.
func LoadSelection(s Store, key string) appearance.Option {
	id, ok := s.Get(key)
	if !ok {
		return appearance.Default()
	}
	opt, err := appearance.Lookup(id)
	if err != nil {
		return appearance.Default()
	}
	return opt
}

// SaveSelection stores the appearance id under key.
func SaveSelection(s Store, key string, opt appearance.Option) error {
	return s.Set(key, opt.ID)
}
