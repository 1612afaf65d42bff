// Package kvstore is the local persistence layer: a flat string key-value
// map in a single JSON file under the state dir. Human-readable, portable.
// Structured values are serialized to JSON strings by the caller, not here.
package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const stateFileName = "state.json"

// ErrStorage marks device-storage failures so callers can tell them apart
// from ordinary absence. Always wrapped around the underlying cause.
var ErrStorage = errors.New("kvstore: storage failure")

// Well-known keys. The customization prefix is legacy: nothing writes it
// anymore but delete still cleans it up from old state files.
const (
	KeyToken               = "token"
	KeyBirthday            = "birthday"
	KeyPhone               = "phone"
	KeyQRCache             = "qr_cache"
	KeyFavoriteProjectIDs  = "favorite_project_ids"
	KeyActiveProject       = "active_project"
	KeyPrivacyAccepted     = "privacyAccepted"
	CustomizationKeyPrefix = "customization_"
)

// Store reads and writes one state file. Values are plain strings.
type Store struct {
	dir string
}

// New returns a store rooted at dir. The directory is created lazily on the
// first write, with owner-only permissions.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, stateFileName)
}

// Get returns the value for key and whether it was present.
func (s *Store) Get(key string) (string, bool, error) {
	m, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

// Set writes key=value and persists immediately.
func (s *Store) Set(key, value string) error {
	m, err := s.load()
	if err != nil {
		return err
	}
	m[key] = value
	return s.save(m)
}

// Remove deletes key if present and persists.
func (s *Store) Remove(key string) error {
	return s.RemoveMany([]string{key})
}

// RemoveMany deletes all given keys in one write.
func (s *Store) RemoveMany(keys []string) error {
	m, err := s.load()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := m[k]; ok {
			delete(m, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save(m)
}

func (s *Store) load() (map[string]string, error) {
	b, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("%w: read state: %v", ErrStorage, err)
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: parse state: %v", ErrStorage, err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

func (s *Store) save(m map[string]string) error {
	// ensure the state dir exists with 0700
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("%w: mkdir: %v", ErrStorage, err)
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal state: %v", ErrStorage, err)
	}
	// write-then-rename so a crash mid-write cannot truncate the state
	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("%w: write state: %v", ErrStorage, err)
	}
	if err := os.Rename(tmp, s.path()); err != nil {
		return fmt.Errorf("%w: rename state: %v", ErrStorage, err)
	}
	return nil
}
