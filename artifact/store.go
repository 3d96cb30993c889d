// Package artifact persists small client artifacts, such as tokens and
// cached identities, under the user's home directory. Reads are served from
// a process-wide cache that writes keep current, so authenticators can fetch
// a stored token on every request without touching disk.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

const (
	defaultRootDir = ".tether"
	dirMode        = 0o700
	fileMode       = 0o600
)

var nameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Store reads and writes artifact files for one app.
type Store struct {
	dir string

	mu    sync.RWMutex
	cache map[string][]byte
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithRoot overrides the root directory. Tests point this at a temp dir.
func WithRoot(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.dir = dir
		}
	}
}

// NewStore creates the store directory ~/.tether/<sanitized app>/ if needed.
func NewStore(app string, opts ...Option) (*Store, error) {
	s := &Store{cache: make(map[string][]byte)}
	for _, opt := range opts {
		opt(s)
	}
	if s.dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		s.dir = filepath.Join(home, defaultRootDir)
	}
	s.dir = filepath.Join(s.dir, sanitize(app))
	if err := os.MkdirAll(s.dir, dirMode); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return s, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the absolute path an artifact is stored at.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, sanitize(name))
}

// Write stores an artifact atomically (temp file + rename) and refreshes the
// cache.
func (s *Store) Write(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(name)
	tmp, err := os.CreateTemp(s.dir, sanitize(name)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write artifact %q: %w", name, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write artifact %q: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write artifact %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write artifact %q: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write artifact %q: %w", name, err)
	}

	s.cache[name] = append([]byte(nil), data...)
	return nil
}

// Read returns an artifact's contents, from cache when possible. A missing
// artifact satisfies errors.Is(err, fs.ErrNotExist).
func (s *Store) Read(name string) ([]byte, error) {
	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return append([]byte(nil), cached...), nil
	}

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("artifact %q: %w", name, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("read artifact %q: %w", name, err)
	}

	s.mu.Lock()
	s.cache[name] = append([]byte(nil), data...)
	s.mu.Unlock()
	return data, nil
}

// WriteJSON stores the JSON encoding of v as an artifact.
func (s *Store) WriteJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode artifact %q: %w", name, err)
	}
	return s.Write(name, data)
}

// ReadJSON decodes an artifact into v.
func (s *Store) ReadJSON(name string, v any) error {
	data, err := s.Read(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode artifact %q: %w", name, err)
	}
	return nil
}

// Delete removes an artifact from disk and cache. Deleting a missing
// artifact is not an error.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cache, name)
	if err := os.Remove(s.Path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete artifact %q: %w", name, err)
	}
	return nil
}

func sanitize(name string) string {
	cleaned := nameSanitizer.ReplaceAllString(name, "-")
	return strings.Trim(cleaned, "-.")
}
