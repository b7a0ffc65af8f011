// Package storage persists Sets to and from the sets directory named by
// AppConfig.SetsDir, using model.Set's own (Un)MarshalJSON wire format —
// one JSON file per named set.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"gopad/internal/model"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

const setFileExt = ".json"

// Store reads and writes Sets under a root directory, one file per set.
type Store struct {
	dir string
}

// New constructs a Store rooted at dir. dir is created lazily on first Save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) pathFor(name string) string {
	return filepath.Join(s.dir, name+setFileExt)
}

// List returns the names of every set file found in the store's directory,
// sorted alphabetically. A missing directory is treated as empty.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list sets in %s: %w", s.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), setFileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), setFileExt))
	}
	sort.Strings(names)
	return names, nil
}

// Load reads and decodes the named set, resolving relative sample paths
// against its SamplesRoot.
func (s *Store) Load(name string) (*model.Set, error) {
	path := s.pathFor(name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read set %q: %w", name, err)
	}

	set := &model.Set{}
	if err := jsonAPI.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("parse set %q: %w", name, err)
	}
	set.ResolveSamplePaths()
	return set, nil
}

// Save encodes and writes set under its own Name, creating the store's
// directory if necessary.
func (s *Store) Save(set *model.Set) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create sets dir %s: %w", s.dir, err)
	}

	data, err := jsonAPI.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("encode set %q: %w", set.Name, err)
	}
	return os.WriteFile(s.pathFor(set.Name), data, 0644)
}

// Exists reports whether a set with the given name has been saved.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.pathFor(name))
	return err == nil
}

// Delete removes the named set's file. Deleting a set that does not exist
// is not an error.
func (s *Store) Delete(name string) error {
	err := os.Remove(s.pathFor(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete set %q: %w", name, err)
	}
	return nil
}
