// Package prefs provides durable client storage for guarddash.
// Values are plain string scalars keyed by name and persisted in
// ~/.config/guarddash/state.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Well-known storage keys.
const (
	KeyToken           = "guard_token"
	KeyAPIKey          = "guard_api_key"
	KeyRefreshInterval = "guarddash_refresh_interval"
	KeyTheme           = "theme"
)

const defaultStatePath = "~/.config/guarddash/state.toml"

// Storage is a string-keyed scalar store. Writes are last-write-wins.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

var (
	_ Storage = (*FileStore)(nil)
	_ Storage = (*MemoryStore)(nil)
)

// DefaultPath returns the default state file path.
func DefaultPath() string {
	return defaultStatePath
}

// FileStore keeps values in memory and rewrites the TOML file on every change.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// Open loads the state file at path. A missing or unreadable file yields an
// empty store; only an unresolvable path is an error.
func Open(path string) (*FileStore, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	return &FileStore{path: resolved, values: load(resolved)}, nil
}

// Path returns the resolved state file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the value stored under key.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok
}

// Set stores value under key and persists the file.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return save(s.path, s.values)
}

// Remove deletes key and persists the file.
func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return save(s.path, s.values)
}

func load(path string) map[string]string {
	values := make(map[string]string)
	file, err := os.Open(path)
	if err != nil {
		return values // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return values
	}
	if err := toml.Unmarshal(bytes, &values); err != nil {
		return make(map[string]string)
	}
	return values
}

func save(path string, values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	bytes, err := toml.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	// Credentials live here, keep the file private.
	if err := os.WriteFile(path, bytes, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// MemoryStore is a non-persistent Storage.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// ErrNoStorage is returned by helpers that need a Storage but got nil.
var ErrNoStorage = errors.New("prefs: no storage configured")

// Theme returns the stored theme name or fallback.
func Theme(s Storage, fallback string) string {
	if s == nil {
		return fallback
	}
	if theme, ok := s.Get(KeyTheme); ok && strings.TrimSpace(theme) != "" {
		return strings.TrimSpace(theme)
	}
	return fallback
}

// SetTheme persists the theme name.
func SetTheme(s Storage, theme string) error {
	if s == nil {
		return ErrNoStorage
	}
	return s.Set(KeyTheme, strings.TrimSpace(theme))
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultStatePath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
