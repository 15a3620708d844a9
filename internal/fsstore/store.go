// Package fsstore implements store.Store on a directory of JSON documents,
// one file per artifact. It is the binding the CLI uses.
package fsstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/specialistvlad/gasgen/internal/ctxlog"
	"github.com/specialistvlad/gasgen/internal/fsutil"
	"github.com/specialistvlad/gasgen/internal/kind"
	"github.com/specialistvlad/gasgen/internal/metadata"
	"github.com/specialistvlad/gasgen/internal/store"
)

const extension = ".json"

// Store keeps artifacts under Root.
type Store struct {
	mu   sync.Mutex
	root string
}

type document struct {
	Kind     string             `json:"kind"`
	Path     string             `json:"path"`
	Fields   map[string]string  `json:"fields"`
	Metadata *metadata.Metadata `json:"metadata,omitempty"`
}

// New returns a store rooted at dir. The directory is created on first save.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root is the content directory.
func (s *Store) Root() string { return s.root }

func (s *Store) file(p string) (string, error) {
	rel := filepath.FromSlash(strings.TrimLeft(p, "/"))
	full := filepath.Join(s.root, rel+extension)
	if r, err := filepath.Rel(s.root, full); err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact path %q escapes the content root", p)
	}
	return full, nil
}

// Lookup reads the artifact at path.
func (s *Store) Lookup(ctx context.Context, p string) (store.Artifact, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.file(p)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read artifact %s: %w", p, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("failed to decode artifact %s: %w", p, err)
	}
	k, ok := kind.Parse(doc.Kind)
	if !ok {
		return nil, false, fmt.Errorf("artifact %s has unknown kind %q", p, doc.Kind)
	}

	a := store.NewDocument(k, p)
	for name, v := range doc.Fields {
		a.SetField(name, v)
	}
	if doc.Metadata != nil {
		if _, carries := a.(store.MetadataCarrier); !carries {
			ctxlog.FromContext(ctx).Warn("Ignoring embedded metadata on artifact that cannot carry it", "path", p, "kind", k)
		} else {
			store.AttachMetadata(a, nil, doc.Metadata)
		}
	}
	return a, true, nil
}

// Create returns a new unsaved artifact.
func (s *Store) Create(ctx context.Context, k kind.Kind, p string) (store.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.file(p)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(file); err == nil {
		return nil, fmt.Errorf("create %s: %w", p, store.ErrExists)
	}
	return store.NewDocument(k, p), nil
}

// Save writes the artifact atomically.
func (s *Store) Save(ctx context.Context, a store.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.file(a.Path())
	if err != nil {
		return err
	}
	doc := document{Kind: a.Kind().String(), Path: a.Path(), Fields: store.Fields(a)}
	if c, ok := a.(store.MetadataCarrier); ok {
		doc.Metadata, _ = c.Metadata()
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact %s: %w", a.Path(), err)
	}
	if err := fsutil.WriteFileAtomic(file, data, 0o644); err != nil {
		return fmt.Errorf("failed to save artifact %s: %w", a.Path(), err)
	}
	ctxlog.FromContext(ctx).Debug("Saved artifact", "path", a.Path(), "file", file)
	return nil
}
