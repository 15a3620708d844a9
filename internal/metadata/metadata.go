// Package metadata defines the generator metadata persisted next to each
// produced artifact and the side registry used for artifact kinds that
// cannot carry metadata themselves.
//
// # Why metadata exists
//
// Change detection needs two facts from the previous run: the hash of the
// manifest record that produced an artifact and the hash of the artifact as
// it was written. Comparing them against the current values is what lets a
// run tell "manifest changed", "someone edited the asset" and "both" apart.
//
// # Side registry
//
// Some artifact kinds have nowhere to store arbitrary metadata. For those the
// generator keeps a JSON file keyed by artifact path. It is loaded once per
// run and flushed atomically at the end.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/specialistvlad/gasgen/internal/fsutil"
)

const (
	// GeneratorID marks artifacts produced by this tool.
	GeneratorID = "gasgen"
	// GeneratorVersion salts every input hash. Bumping it regenerates
	// everything on the next run.
	GeneratorVersion = "1.4.0"

	registryFormat = 1
)

// Metadata is what a run remembers about one artifact.
type Metadata struct {
	GeneratorID      string    `json:"generator_id"`
	ManifestPath     string    `json:"manifest_path,omitempty"`
	RecordKey        string    `json:"record_key"`
	InputHash        uint64    `json:"input_hash"`
	OutputHash       uint64    `json:"output_hash"`
	GeneratorVersion string    `json:"generator_version"`
	Timestamp        time.Time `json:"timestamp"`
	Dependencies     []string  `json:"dependencies,omitempty"`
	Generated        bool      `json:"generated"`
}

// Clone returns a copy that shares no slices with m.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	c := *m
	c.Dependencies = append([]string(nil), m.Dependencies...)
	return &c
}

// Registry is the side store for metadata keyed by artifact path.
type Registry struct {
	mu      sync.Mutex
	path    string
	entries map[string]*Metadata
	dirty   bool
}

type registryFile struct {
	Format  int                  `json:"format"`
	Entries map[string]*Metadata `json:"entries"`
}

// NewRegistry returns an empty registry that is never written to disk.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]*Metadata{}}
}

// LoadRegistry reads the registry at path. A missing file yields an empty
// registry bound to that path.
func LoadRegistry(path string) (*Registry, error) {
	r := &Registry{path: path, entries: map[string]*Metadata{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata registry: %w", err)
	}
	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode metadata registry %s: %w", path, err)
	}
	if file.Format != registryFormat {
		return nil, fmt.Errorf("metadata registry %s has format %d, want %d", path, file.Format, registryFormat)
	}
	for k, v := range file.Entries {
		if v != nil {
			r.entries[k] = v
		}
	}
	return r, nil
}

// Get returns a copy of the metadata recorded for an artifact path.
func (r *Registry) Get(assetPath string) (*Metadata, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	md, ok := r.entries[assetPath]
	return md.Clone(), ok
}

// Set records metadata for an artifact path.
func (r *Registry) Set(assetPath string, md *Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[assetPath] = md.Clone()
	r.dirty = true
}

// Paths lists the registered artifact paths, sorted.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for p := range r.entries {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Flush writes the registry if it changed since it was loaded.
func (r *Registry) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.path == "" || !r.dirty {
		return nil
	}
	data, err := json.MarshalIndent(registryFile{Format: registryFormat, Entries: r.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata registry: %w", err)
	}
	if err := fsutil.WriteFileAtomic(r.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata registry: %w", err)
	}
	r.dirty = false
	return nil
}
