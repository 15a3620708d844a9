// Package memstore provides a simple, thread-safe, in-memory implementation
// of the store.Store interface. It backs tests and dry runs that must not
// touch the filesystem.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/specialistvlad/gasgen/internal/kind"
	"github.com/specialistvlad/gasgen/internal/store"
)

// Store implements store.Store using a map and a mutex. Artifacts are
// copied on the way in and out, so callers only observe saved state.
type Store struct {
	mu        sync.RWMutex
	artifacts map[string]store.Artifact
	saves     int
}

// New creates a new, empty in-memory store.
func New() *Store {
	return &Store{artifacts: make(map[string]store.Artifact)}
}

// Lookup returns a copy of the saved artifact at path.
func (s *Store) Lookup(ctx context.Context, path string) (store.Artifact, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.artifacts[path]
	if !ok {
		return nil, false, nil
	}
	return store.Clone(a), true, nil
}

// Create returns a new unsaved artifact.
func (s *Store) Create(ctx context.Context, k kind.Kind, path string) (store.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.artifacts[path]; exists {
		return nil, fmt.Errorf("create %s: %w", path, store.ErrExists)
	}
	return store.NewDocument(k, path), nil
}

// Save stores a copy of the artifact.
func (s *Store) Save(ctx context.Context, a store.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.artifacts[a.Path()] = store.Clone(a)
	s.saves++
	return nil
}

// Edit applies fn to the saved artifact at path, simulating a manual change
// made outside the generator.
func (s *Store) Edit(path string, fn func(a store.Artifact)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.artifacts[path]
	if !ok {
		return fmt.Errorf("artifact '%s' not found", path)
	}
	fn(a)
	return nil
}

// Paths returns the saved artifact paths, sorted.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.artifacts))
	for p := range s.artifacts {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Saves is the number of Save calls so far.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
