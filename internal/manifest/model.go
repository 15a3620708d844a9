// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the parsed manifest. A Model owns records grouped by
// kind in declaration order; nothing outside this package mutates a Record
// after it has been added.
package manifest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/gasgen/internal/graphir"
	"github.com/specialistvlad/gasgen/internal/kind"
)

// Object is one entry of an object-list sub-section.
type Object struct {
	Fields map[string]string
	Lists  map[string][]string
	Line   int
}

func newObject(line int) *Object {
	return &Object{Fields: map[string]string{}, Lists: map[string][]string{}, Line: line}
}

// Get returns a field value or "".
func (o Object) Get(key string) string { return o.Fields[key] }

// List returns a list field or nil.
func (o Object) List(key string) []string { return o.Lists[key] }

// Fields holds the kind-specific content of a record.
type Fields struct {
	Scalars map[string]string
	Lists   map[string][]string
	Objects map[string][]Object
	Groups  map[string]map[string][]string
}

func newFields() Fields {
	return Fields{
		Scalars: map[string]string{},
		Lists:   map[string][]string{},
		Objects: map[string][]Object{},
		Groups:  map[string]map[string][]string{},
	}
}

// Record is one declared object.
type Record struct {
	Kind kind.Kind
	Name string
	Fields
	// Graph is the inline event graph, if any.
	Graph *graphir.Decl
	Line  int
	// Source names where the record came from, "manifest" unless it was
	// produced from a dialogue table.
	Source string
}

// NewRecord returns an empty record.
func NewRecord(k kind.Kind, name string, line int) *Record {
	return &Record{Kind: k, Name: name, Fields: newFields(), Line: line, Source: "manifest"}
}

// Key uniquely identifies the record across kinds.
func (r *Record) Key() string { return RecordKey(r.Kind, r.Name) }

// RecordKey formats a kind and name the way Record.Key does.
func RecordKey(k kind.Kind, name string) string { return k.String() + "/" + name }

// Scalar returns a scalar field or "".
func (r *Record) Scalar(key string) string { return r.Scalars[key] }

// List returns a list field or nil.
func (r *Record) List(key string) []string { return r.Lists[key] }

// ObjectList returns an object-list field or nil.
func (r *Record) ObjectList(key string) []Object { return r.Objects[key] }

// Group returns one named list inside a group field.
func (r *Record) Group(group, key string) []string { return r.Groups[group][key] }

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := *r
	c.Fields = newFields()
	for k, v := range r.Scalars {
		c.Scalars[k] = v
	}
	for k, v := range r.Lists {
		c.Lists[k] = append([]string(nil), v...)
	}
	for k, objs := range r.Objects {
		out := make([]Object, len(objs))
		for i, o := range objs {
			n := newObject(o.Line)
			for fk, fv := range o.Fields {
				n.Fields[fk] = fv
			}
			for lk, lv := range o.Lists {
				n.Lists[lk] = append([]string(nil), lv...)
			}
			out[i] = *n
		}
		c.Objects[k] = out
	}
	for g, lists := range r.Groups {
		m := make(map[string][]string, len(lists))
		for k, v := range lists {
			m[k] = append([]string(nil), v...)
		}
		c.Groups[g] = m
	}
	if r.Graph != nil {
		c.Graph = r.Graph.Clone()
	}
	return &c
}

// Duplicate records a name declared more than once within a kind.
type Duplicate struct {
	Kind      kind.Kind
	Name      string
	Line      int
	FirstLine int
}

// Model is the parsed manifest.
type Model struct {
	// Path is the manifest file, empty when parsed from a string.
	Path        string
	ProjectRoot string
	TagsIniPath string
	// Scalars holds other top-level "key: value" lines.
	Scalars     map[string]string
	Tags        []string
	EventGraphs map[string]*graphir.Decl
	Duplicates  []Duplicate

	records map[kind.Kind][]*Record
	index   map[string]*Record
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		Scalars:     map[string]string{},
		EventGraphs: map[string]*graphir.Decl{},
		records:     map[kind.Kind][]*Record{},
		index:       map[string]*Record{},
	}
}

// Add appends a record. A name already declared for the same kind is not
// added; the repeat is recorded in Duplicates and false is returned.
func (m *Model) Add(r *Record) bool {
	if first, ok := m.index[r.Key()]; ok {
		m.Duplicates = append(m.Duplicates, Duplicate{Kind: r.Kind, Name: r.Name, Line: r.Line, FirstLine: first.Line})
		return false
	}
	m.records[r.Kind] = append(m.records[r.Kind], r)
	m.index[r.Key()] = r
	return true
}

// Replace swaps in a new version of an existing record, keeping its
// position. It is used when secondary input is merged after parsing.
func (m *Model) Replace(r *Record) error {
	if _, ok := m.index[r.Key()]; !ok {
		return fmt.Errorf("record %s is not declared", r.Key())
	}
	for i, old := range m.records[r.Kind] {
		if old.Name == r.Name {
			m.records[r.Kind][i] = r
		}
	}
	m.index[r.Key()] = r
	return nil
}

// Records returns the records of one kind in declaration order.
func (m *Model) Records(k kind.Kind) []*Record { return m.records[k] }

// Lookup finds a record by kind and name.
func (m *Model) Lookup(k kind.Kind, name string) (*Record, bool) {
	r, ok := m.index[RecordKey(k, name)]
	return r, ok
}

// FindByName returns every record with the name, in kind order.
func (m *Model) FindByName(name string) []*Record {
	var out []*Record
	for _, k := range kind.Ordered() {
		if r, ok := m.Lookup(k, name); ok {
			out = append(out, r)
		}
	}
	return out
}

// All returns every record in generation order.
func (m *Model) All() []*Record {
	var out []*Record
	for _, k := range kind.Ordered() {
		out = append(out, m.records[k]...)
	}
	return out
}

// Count is the number of records.
func (m *Model) Count() int { return len(m.index) }

// CrossKindCollisions maps each name declared under more than one kind to
// those kinds. Such names are legal; they are tracked for reporting.
func (m *Model) CrossKindCollisions() map[string][]kind.Kind {
	seen := map[string][]kind.Kind{}
	for _, r := range m.All() {
		seen[r.Name] = append(seen[r.Name], r.Kind)
	}
	out := map[string][]kind.Kind{}
	for name, kinds := range seen {
		if len(kinds) > 1 {
			out[name] = kinds
		}
	}
	return out
}

// ExpectedNames is the whitelist of record names, sorted and unique.
func (m *Model) ExpectedNames() []string {
	set := map[string]struct{}{}
	for _, r := range m.index {
		set[r.Name] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ExpectedKeys is the whitelist of record keys ("Kind/Name"), sorted. A
// name declared under two kinds appears once per kind.
func (m *Model) ExpectedKeys() []string {
	out := make([]string, 0, len(m.index))
	for _, r := range m.index {
		out = append(out, r.Key())
	}
	sort.Strings(out)
	return out
}

// EventGraph returns a named graph from the event_graphs section.
func (m *Model) EventGraph(name string) (*graphir.Decl, bool) {
	g, ok := m.EventGraphs[name]
	return g, ok
}

// String summarizes the model for debug logging.
func (m *Model) String() string {
	var parts []string
	for _, k := range kind.Ordered() {
		if n := len(m.records[k]); n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", k, n))
		}
	}
	return fmt.Sprintf("tags=%d graphs=%d %s", len(m.Tags), len(m.EventGraphs), strings.Join(parts, " "))
}
