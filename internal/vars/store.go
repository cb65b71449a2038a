// Package vars owns the shared render context: the key/value data handed to
// every template render, loaded from the data file at the source root.
package vars

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// ParseError reports a missing or malformed data file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vars: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Store holds the current render context. One owner reloads it wholesale;
// renders read it concurrently. There is no per-page override.
type Store struct {
	path string

	mu   sync.RWMutex
	data map[string]any
}

func NewStore(path string) *Store {
	return &Store{path: path, data: map[string]any{}}
}

// Load reads and parses the data file fresh from disk and replaces the held
// context. No caching between calls: correctness only needs current-on-read.
// On failure the previous context stays active.
func (s *Store) Load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return &ParseError{Path: s.path, Err: err}
	}
	defer f.Close()

	data := make(map[string]any)
	if err := json.NewDecoder(f).Decode(&data); err != nil {
		return &ParseError{Path: s.path, Err: err}
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// Current returns the last successfully loaded context. The map is shared;
// callers must treat it as read-only.
func (s *Store) Current() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}
