// Package favorites keeps the user's favorite quote ids and persists them.
package favorites

//go:generate mockgen -package=testutil -destination=../testutil/mock_store.go -source=store.go

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"sync"

	"github.com/spf13/afero"
)

// DefaultKey is the store key holding the favorite id list.
const DefaultKey = "favoriteStocks"

// Store is a persistent key-value store of string lists.
type Store interface {
	// Read returns the list stored under key. ok is false when nothing is stored.
	Read(ctx context.Context, key string) (ids []string, ok bool, err error)
	// Write replaces the list stored under key.
	Write(ctx context.Context, key string, ids []string) error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]string)}
}

func (s *MemoryStore) Read(_ context.Context, key string) ([]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (s *MemoryStore) Write(_ context.Context, key string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ids == nil {
		ids = []string{}
	}
	s.values[key] = slices.Clone(ids)
	return nil
}

// FileStore persists all keys in a single JSON file.
type FileStore struct {
	fs   afero.Fs
	path string

	mu sync.Mutex
}

// NewFileStore creates a FileStore writing to path on fs. The file and its
// directory are created on first write.
func NewFileStore(fs afero.Fs, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

func (s *FileStore) Read(_ context.Context, key string) ([]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return nil, false, err
	}

	v, ok := values[key]
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

func (s *FileStore) Write(_ context.Context, key string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}

	if ids == nil {
		ids = []string{}
	}
	values[key] = slices.Clone(ids)

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create favorites directory: %w", err)
	}

	// Write to a sibling file and rename so a crash never leaves a torn file.
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write favorites: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace favorites file: %w", err)
	}
	return nil
}

// load reads the whole file. A missing file is an empty store.
func (s *FileStore) load() (map[string][]string, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string][]string{}, nil
		}
		return nil, fmt.Errorf("failed to read favorites %s: %w", s.path, err)
	}

	values := map[string][]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to decode favorites %s: %w", s.path, err)
	}
	// A file holding `null` decodes to a nil map.
	if values == nil {
		values = map[string][]string{}
	}
	return values, nil
}
