package resolver

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/specialistvlad/gasgen/internal/changedetect"
	"github.com/specialistvlad/gasgen/internal/ctxlog"
	"github.com/specialistvlad/gasgen/internal/diag"
	"github.com/specialistvlad/gasgen/internal/graphir"
	"github.com/specialistvlad/gasgen/internal/kind"
	"github.com/specialistvlad/gasgen/internal/manifest"
)

// Generator fills the artifact fields of one record kind. It returns a
// *MissingDependencyError when a reference is not available yet and reports
// validation problems through the context.
type Generator func(gc *genContext) error

// genContext is what a generator sees while producing one record.
type genContext struct {
	ctx context.Context
	p   *Pipeline
	rec *manifest.Record

	fields map[string]string
	deps   []string
	extra  []string
	errs   diag.List
}

func newGenContext(ctx context.Context, p *Pipeline, rec *manifest.Record) *genContext {
	return &genContext{ctx: ctx, p: p, rec: rec, fields: map[string]string{}}
}

// run writes the generic encoding of the record, then lets the kind's
// generator validate it and add derived fields.
func (gc *genContext) run(gen Generator) error {
	gc.writeRecord()
	if err := gen(gc); err != nil {
		return err
	}
	if gc.errs.HasErrors() {
		return gc.errs
	}
	return nil
}

func (gc *genContext) warnings() []*diag.Error {
	var out []*diag.Error
	for _, e := range gc.errs {
		if e.IsWarning() {
			out = append(out, e)
		}
	}
	return out
}

// writeRecord copies every declared value into the field map.
func (gc *genContext) writeRecord() {
	r := gc.rec
	for k, v := range r.Scalars {
		gc.fields[k] = v
	}
	for k, v := range r.Lists {
		gc.fields[k] = strings.Join(v, ", ")
	}
	for g, lists := range r.Groups {
		for k, v := range lists {
			gc.fields[g+"."+k] = strings.Join(v, ", ")
		}
	}
	for k, objs := range r.Objects {
		gc.fields[k+".count"] = strconv.Itoa(len(objs))
		for i, o := range objs {
			prefix := fmt.Sprintf("%s[%d].", k, i)
			for fk, fv := range o.Fields {
				gc.fields[prefix+fk] = fv
			}
			for lk, lv := range o.Lists {
				gc.fields[prefix+lk] = strings.Join(lv, ", ")
			}
		}
	}
}

func (gc *genContext) path(segments ...string) string {
	return diag.Path(append([]string{gc.rec.Key()}, segments...)...)
}

func (gc *genContext) set(key, value string) { gc.fields[key] = value }

// value returns a scalar, or def when it is empty. The default is written
// to the fields.
func (gc *genContext) value(key, def string) string {
	v := gc.rec.Scalar(key)
	if v == "" {
		v = def
		if def != "" {
			gc.set(key, def)
		}
	}
	return v
}

// required returns a scalar and reports E_MISSING_REQUIRED_FIELD when empty.
func (gc *genContext) required(key string) string {
	v := gc.rec.Scalar(key)
	if v == "" {
		gc.errs = append(gc.errs, diag.New(diag.CodeMissingRequiredField, gc.path(key),
			fmt.Sprintf("Add '%s:' to %s", key, gc.rec.Name), "required field %q is missing", key))
	}
	return v
}

// oneOf returns a scalar constrained to allowed values, defaulting to def.
func (gc *genContext) oneOf(key, def string, allowed ...string) string {
	v := gc.value(key, def)
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			gc.set(key, a)
			return a
		}
	}
	gc.invalid(key, "must be one of %s, got %q", strings.Join(allowed, ", "), v)
	return v
}

// number validates a numeric scalar, defaulting to def.
func (gc *genContext) number(key, def string) float64 {
	return gc.numeric(gc.path(key), gc.value(key, def))
}

func (gc *genContext) numeric(path, v string) float64 {
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		gc.errs = append(gc.errs, diag.New(diag.CodeInvalidValue, path, "Use a number", "%q is not a number", v))
	}
	return f
}

func (gc *genContext) invalid(key, format string, args ...any) {
	gc.errs = append(gc.errs, diag.New(diag.CodeInvalidValue, gc.path(key), "", format, args...))
}

func (gc *genContext) missing(path, what string) {
	gc.errs = append(gc.errs, diag.New(diag.CodeMissingRequiredField, path, "", "%s is missing", what))
}

func (gc *genContext) warn(code, path, format string, args ...any) {
	gc.errs = append(gc.errs, diag.Warn(code, path, "", format, args...))
}

// require checks a reference to another record. An empty name is not a
// reference.
func (gc *genContext) require(field string, k kind.Kind, name string) error {
	if name == "" {
		return nil
	}
	if !gc.p.Satisfied(gc.ctx, k, name) {
		return &MissingDependencyError{Name: name, Kind: k, Field: field}
	}
	gc.deps = append(gc.deps, manifest.RecordKey(k, name))
	return nil
}

// requireAll checks every name of a list field.
func (gc *genContext) requireAll(field string, k kind.Kind, names []string) error {
	for _, n := range names {
		if err := gc.require(field, k, n); err != nil {
			return err
		}
	}
	return nil
}

// requireParent resolves parent_class: a class the registry knows, or a
// record declared in the manifest, which then becomes a dependency.
func (gc *genContext) requireParent(def string) error {
	name := gc.value("parent_class", def)
	if name == "" {
		return nil
	}
	ref, ok := gc.p.session.parents[name]
	if !ok {
		ref, ok = gc.resolveParent(name)
		if !ok {
			gc.errs = append(gc.errs, diag.New(diag.CodeParentClassNotFound, gc.path("parent_class"),
				"Declare the parent in the manifest or use a known class",
				"parent class %q not found", name))
			return nil
		}
		gc.p.session.parents[name] = ref
	}
	if ref.Kind == kind.Unknown {
		return nil
	}
	if ref.Kind == gc.rec.Kind && ref.Name == gc.rec.Name {
		gc.invalid("parent_class", "%s cannot be its own parent", name)
		return nil
	}
	return gc.require("parent_class", ref.Kind, ref.Name)
}

func (gc *genContext) resolveParent(name string) (DependencyRef, bool) {
	if gc.p.reg.HasClass(name) {
		return DependencyRef{Name: name}, true
	}
	if gc.p.model != nil {
		for _, k := range parentKinds {
			if _, ok := gc.p.model.Lookup(k, name); ok {
				return DependencyRef{Name: name, Kind: k, Field: "parent_class"}, true
			}
		}
	}
	return DependencyRef{}, false
}

// eventGraph compiles the record's inline graph or the named graph it
// references, lays it out and writes the result.
func (gc *genContext) eventGraph() {
	decl := gc.rec.Graph
	ref := gc.rec.Scalar("event_graph")
	if decl == nil && ref != "" {
		var ok bool
		if gc.p.model != nil {
			decl, ok = gc.p.model.EventGraph(ref)
		}
		if !ok {
			gc.errs = append(gc.errs, diag.New(diag.CodeEventGraphNotFound, gc.path("event_graph"),
				"Declare the graph under event_graphs:", "event graph %q not found", ref))
			return
		}
		gc.extra = append(gc.extra, "graph:"+strconv.FormatUint(changedetect.GraphHash(decl), 10))
	}
	if decl.Empty() {
		return
	}

	g, err := gc.compile(ref, decl)
	if err != nil {
		gc.errs = append(gc.errs, diag.Prefix(gc.path("event_graph"), diag.Collect(err, diag.CodeGenerationFailed, ""))...)
		return
	}

	layout := graphir.Layout(g, graphir.DefaultLayoutOptions())
	gc.set("event_graph.nodes", strconv.Itoa(len(g.Order)))
	gc.set("event_graph.layers", strconv.Itoa(len(layout.Layers)))
	for _, id := range g.Order {
		n := g.Nodes[id]
		gc.set("event_graph.node."+id, fmt.Sprintf("%s@%g,%g", n.Type, n.X, n.Y))
	}
	edges := make([]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		edges = append(edges, e.From.String()+"->"+e.To.String())
	}
	gc.set("event_graph.edges", strings.Join(edges, "; "))

	for _, c := range g.Connections {
		if c.Status == graphir.SkippedExpected {
			ctxlog.FromContext(gc.ctx).Debug("Skipped exec connection into pure node",
				"record", gc.rec.Name, "from", c.Decl.From.String(), "to", c.Decl.To.String())
		}
	}
	if n := g.CountByStatus()[graphir.SkippedExpected]; n > 0 {
		gc.set("event_graph.skipped", strconv.Itoa(n))
	}
}

// compile memoizes named graphs for the run. Inline graphs are compiled
// every time.
func (gc *genContext) compile(name string, decl *graphir.Decl) (*graphir.Graph, error) {
	if name == "" || gc.rec.Graph != nil {
		return graphir.Compile(decl, gc.p.reg)
	}
	if c, ok := gc.p.session.graphs[name]; ok {
		if c.err != nil {
			return nil, c.err
		}
		return cloneGraph(c.graph), nil
	}
	g, err := graphir.Compile(decl, gc.p.reg)
	gc.p.session.graphs[name] = compiledGraph{graph: g, err: err}
	if err != nil {
		return nil, err
	}
	return cloneGraph(g), nil
}

// cloneGraph copies the parts Layout mutates.
func cloneGraph(g *graphir.Graph) *graphir.Graph {
	c := *g
	c.Nodes = make(map[string]*graphir.Node, len(g.Nodes))
	for id, n := range g.Nodes {
		nn := *n
		c.Nodes[id] = &nn
	}
	return &c
}
