package changedetect

import (
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/specialistvlad/gasgen/internal/graphir"
	"github.com/specialistvlad/gasgen/internal/manifest"
	"github.com/specialistvlad/gasgen/internal/metadata"
	"github.com/specialistvlad/gasgen/internal/store"
)

// encoder writes length-prefixed tokens so that adjacent values can never
// run together ("ab"+"c" and "a"+"bc" hash differently).
type encoder struct {
	d *xxhash.Digest
}

func newEncoder() *encoder { return &encoder{d: xxhash.New()} }

func (e *encoder) str(s string) {
	_, _ = e.d.WriteString(strconv.Itoa(len(s)))
	_, _ = e.d.WriteString(":")
	_, _ = e.d.WriteString(s)
}

func (e *encoder) strs(list []string) {
	e.str(strconv.Itoa(len(list)))
	for _, s := range list {
		e.str(s)
	}
}

func (e *encoder) stringMap(m map[string]string) {
	keys := sortedKeys(m)
	e.str(strconv.Itoa(len(keys)))
	for _, k := range keys {
		e.str(k)
		e.str(m[k])
	}
}

func (e *encoder) listMap(m map[string][]string) {
	keys := sortedKeys(m)
	e.str(strconv.Itoa(len(keys)))
	for _, k := range keys {
		e.str(k)
		e.strs(m[k])
	}
}

func (e *encoder) sum() uint64 { return e.d.Sum64() }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// InputHash hashes the canonical form of a record together with the
// generator version. Extra strings (for example the hash of a referenced
// event graph) are mixed in after the record.
func InputHash(r *manifest.Record, extra ...string) uint64 {
	e := newEncoder()
	e.str(metadata.GeneratorVersion)
	e.str(r.Kind.String())
	e.str(r.Name)
	e.stringMap(r.Scalars)
	e.listMap(r.Lists)

	objKeys := sortedKeys(r.Objects)
	e.str(strconv.Itoa(len(objKeys)))
	for _, k := range objKeys {
		e.str(k)
		objs := r.Objects[k]
		e.str(strconv.Itoa(len(objs)))
		for _, o := range objs {
			e.stringMap(o.Fields)
			e.listMap(o.Lists)
		}
	}

	groupKeys := sortedKeys(r.Groups)
	e.str(strconv.Itoa(len(groupKeys)))
	for _, g := range groupKeys {
		e.str(g)
		e.listMap(r.Groups[g])
	}

	encodeGraph(e, r.Graph)
	e.strs(extra)
	return e.sum()
}

// GraphHash hashes a graph declaration on its own.
func GraphHash(d *graphir.Decl) uint64 {
	e := newEncoder()
	encodeGraph(e, d)
	return e.sum()
}

func encodeGraph(e *encoder, d *graphir.Decl) {
	if d == nil {
		e.str("-")
		return
	}
	e.str(strconv.Itoa(len(d.Nodes)))
	for _, n := range d.Nodes {
		e.str(n.ID)
		e.str(n.Type)
		if n.HasPosition {
			e.str(strconv.FormatFloat(n.X, 'g', -1, 64))
			e.str(strconv.FormatFloat(n.Y, 'g', -1, 64))
		} else {
			e.str("auto")
		}
		e.stringMap(n.Properties)
	}
	e.str(strconv.Itoa(len(d.Connections)))
	for _, c := range d.Connections {
		e.str(c.From.String())
		e.str(c.To.String())
	}
}

// OutputHash hashes every field of an artifact in name order.
func OutputHash(a store.Artifact) uint64 {
	e := newEncoder()
	e.stringMap(store.Fields(a))
	return e.sum()
}

// FieldsHash hashes a field map the same way OutputHash does.
func FieldsHash(fields map[string]string) uint64 {
	e := newEncoder()
	e.stringMap(fields)
	return e.sum()
}
