package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/desertthunder/ltx/internal/shared"
	"github.com/gofrs/flock"
)

// FileStore persists a [Store] as a JSON file.
//
// Writes go to a temporary file that is renamed over the target, under an advisory lock on "<path>.lock",
// so a reader never observes a half-written cache and two processes never interleave their saves.
type FileStore struct {
	path string
}

// NewFileStore creates a [FileStore] for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the cache file location.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the cache file.
//
// The returned store is never nil: a missing file yields an empty store and no error,
// an unreadable or malformed file yields an empty store and an error wrapping [shared.ErrCacheLoad].
func (f *FileStore) Load() (*Store, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewStore(), nil
		}
		return NewStore(), fmt.Errorf("%w: read %s: %v", shared.ErrCacheLoad, f.path, err)
	}

	if len(data) == 0 {
		return NewStore(), nil
	}

	var pairs []Pair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return NewStore(), fmt.Errorf("%w: parse %s: %v", shared.ErrCacheLoad, f.path, err)
	}

	return FromPairs(pairs), nil
}

// Save writes the whole store to disk, creating parent directories as needed.
func (f *FileStore) Save(store *Store) error {
	data, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", shared.ErrCacheSave, err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("%w: create cache directory: %v", shared.ErrCacheSave, err)
	}

	lock := flock.New(f.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("%w: lock %s: %v", shared.ErrCacheSave, f.path, err)
	}
	defer lock.Unlock()

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: write temp file: %v", shared.ErrCacheSave, err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename temp file: %v", shared.ErrCacheSave, err)
	}

	return nil
}

// Remove deletes the cache file. A missing file is not an error.
func (f *FileStore) Remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %v", shared.ErrCacheSave, f.path, err)
	}
	return nil
}
