// Package store defines the narrow capability the generator needs from a
// content store, plus a plain document type the bundled bindings share.
//
// # Why the store is an interface
//
// The pipeline never depends on what an artifact really is. It looks up an
// artifact by path, creates one, reads and writes named fields, and saves.
// Engine-specific object semantics stay behind this interface so the same
// resolver runs against the in-memory binding in tests and the
// directory-backed binding in the CLI.
//
// # Metadata
//
// Artifacts whose kind can carry generator metadata implement
// MetadataCarrier. For everything else the metadata lives in the side
// registry; MetadataFor and AttachMetadata hide that split from callers.
package store

import (
	"context"
	"errors"
	"path"
	"sort"

	"github.com/specialistvlad/gasgen/internal/kind"
	"github.com/specialistvlad/gasgen/internal/metadata"
)

// ErrExists is returned by Create when an artifact already exists at a path.
var ErrExists = errors.New("artifact already exists")

// Artifact is one object inside the content store.
type Artifact interface {
	Path() string
	Kind() kind.Kind
	// GetField returns a field value and whether it is set.
	GetField(name string) (string, bool)
	SetField(name, value string)
	// FieldNames returns the set field names, sorted.
	FieldNames() []string
}

// MetadataCarrier is implemented by artifacts that hold their own generator
// metadata.
type MetadataCarrier interface {
	Metadata() (*metadata.Metadata, bool)
	SetMetadata(md *metadata.Metadata)
}

// Store is the content store capability.
//
// Changes to an artifact become visible to later Lookup calls only after
// Save. A dry run therefore never calls Create or Save.
type Store interface {
	// Lookup finds an artifact by path. A missing artifact is not an error.
	Lookup(ctx context.Context, path string) (Artifact, bool, error)
	// Create returns a new unsaved artifact. It fails with ErrExists when
	// the path is taken.
	Create(ctx context.Context, k kind.Kind, path string) (Artifact, error)
	// Save persists an artifact.
	Save(ctx context.Context, a Artifact) error
}

// PathFor returns the store path of a record's artifact.
func PathFor(root string, k kind.Kind, name string) string {
	return path.Join(root, k.Folder(), name)
}

// Fields snapshots every field of an artifact.
func Fields(a Artifact) map[string]string {
	names := a.FieldNames()
	out := make(map[string]string, len(names))
	for _, n := range names {
		out[n], _ = a.GetField(n)
	}
	return out
}

// MetadataFor reads an artifact's metadata from the artifact itself or, for
// kinds that cannot carry it, from the side registry.
func MetadataFor(a Artifact, side *metadata.Registry) (*metadata.Metadata, bool) {
	if c, ok := a.(MetadataCarrier); ok {
		return c.Metadata()
	}
	if side == nil {
		return nil, false
	}
	return side.Get(a.Path())
}

// AttachMetadata stores md on the artifact or in the side registry.
func AttachMetadata(a Artifact, side *metadata.Registry, md *metadata.Metadata) {
	if c, ok := a.(MetadataCarrier); ok {
		c.SetMetadata(md)
		return
	}
	if side != nil {
		side.Set(a.Path(), md)
	}
}

// Document is a plain field bag implementing Artifact.
type Document struct {
	DocPath string            `json:"path"`
	DocKind kind.Kind         `json:"-"`
	Values  map[string]string `json:"fields"`
}

// MetaDocument is a Document that also carries metadata.
type MetaDocument struct {
	Document
	Meta *metadata.Metadata `json:"metadata,omitempty"`
}

// NewDocument returns an empty artifact of the right concrete type for the
// kind: a *MetaDocument when the kind carries metadata, a *Document
// otherwise.
func NewDocument(k kind.Kind, p string) Artifact {
	d := Document{DocPath: p, DocKind: k, Values: map[string]string{}}
	if k.CarriesMetadata() {
		return &MetaDocument{Document: d}
	}
	return &d
}

// Clone returns a deep copy of an artifact built by NewDocument.
func Clone(a Artifact) Artifact {
	out := NewDocument(a.Kind(), a.Path())
	for _, n := range a.FieldNames() {
		v, _ := a.GetField(n)
		out.SetField(n, v)
	}
	if src, ok := a.(MetadataCarrier); ok {
		if md, ok := src.Metadata(); ok {
			AttachMetadata(out, nil, md)
		}
	}
	return out
}

func (d *Document) Path() string    { return d.DocPath }
func (d *Document) Kind() kind.Kind { return d.DocKind }

func (d *Document) GetField(name string) (string, bool) {
	v, ok := d.Values[name]
	return v, ok
}

func (d *Document) SetField(name, value string) {
	if d.Values == nil {
		d.Values = map[string]string{}
	}
	d.Values[name] = value
}

func (d *Document) FieldNames() []string {
	out := make([]string, 0, len(d.Values))
	for k := range d.Values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *MetaDocument) Metadata() (*metadata.Metadata, bool) {
	if m.Meta == nil {
		return nil, false
	}
	return m.Meta.Clone(), true
}

func (m *MetaDocument) SetMetadata(md *metadata.Metadata) { m.Meta = md.Clone() }
