// Package verify checks a finished run against the manifest it came from,
// and runs the cheap pre-validation pass before generation starts.
package verify

import (
	"sort"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/specialistvlad/gasgen/internal/diag"
	"github.com/specialistvlad/gasgen/internal/graphir"
	"github.com/specialistvlad/gasgen/internal/kind"
	"github.com/specialistvlad/gasgen/internal/manifest"
	"github.com/specialistvlad/gasgen/internal/resolver"
)

const falsePositiveRate = 0.001

// Whitelist compares the record keys ("Kind/Name") the manifest declares
// with the results of a run. Every expected key must have a result, every
// result must be expected, and no key may be processed twice.
func Whitelist(expected []string, results []resolver.Result) diag.List {
	var errs diag.List

	want := make(map[string]bool, len(expected))
	for _, k := range expected {
		want[k] = true
	}

	seen := bloom.NewWithEstimates(uint(max(len(results), 1)), falsePositiveRate)
	got := make(map[string]bool, len(results))
	for _, r := range results {
		if !r.Kind.Valid() {
			continue
		}
		key := manifest.RecordKey(r.Kind, r.Name)
		if !want[key] {
			errs = append(errs, diag.New(diag.CodeVerifyUnexpected, key,
				"Only manifest records may be generated", "%s was processed but is not in the manifest", key))
		}
		// The filter only answers "maybe seen"; the map confirms.
		if seen.TestAndAddString(key) && got[key] {
			errs = append(errs, diag.New(diag.CodeVerifyDuplicate, key,
				"Report this run; a record must be processed once", "%s was processed more than once", key))
		}
		got[key] = true
	}

	for _, k := range expected {
		if !got[k] {
			errs = append(errs, diag.New(diag.CodeVerifyMissing, k,
				"Check the log for records dropped before generation", "%s is declared in the manifest but was not processed", k))
		}
	}
	return errs
}

// Duplicates reports every record the manifest declared twice under the
// same kind. The first declaration was kept.
func Duplicates(m *manifest.Model) diag.List {
	var errs diag.List
	for _, d := range m.Duplicates {
		errs = append(errs, diag.New(diag.CodeDuplicateRecord, manifest.RecordKey(d.Kind, d.Name),
			"Remove or rename the later declaration",
			"%s is declared on line %d and again on line %d", d.Name, d.FirstLine, d.Line))
	}
	return errs
}

// Run performs every post-run check.
func Run(m *manifest.Model, s *resolver.Summary) diag.List {
	errs := Duplicates(m)
	return append(errs, Whitelist(m.ExpectedKeys(), s.Results)...)
}

// FilterIncremental splits names into those the manifest declares and those
// it does not. Only allowed names may be regenerated incrementally.
func FilterIncremental(names []string, m *manifest.Model) (allowed, blocked []string) {
	declared := make(map[string]bool)
	for _, n := range m.ExpectedNames() {
		declared[n] = true
	}
	for _, n := range names {
		if declared[n] {
			allowed = append(allowed, n)
		} else {
			blocked = append(blocked, n)
		}
	}
	return allowed, blocked
}

// Registry is the part of the node registry pre-validation needs.
type Registry interface {
	HasFunction(name string) bool
}

// PreValidate checks references that can be resolved without generating
// anything. Tags missing from knownTags are warnings. Functions called from
// graphs that the registry does not know are errors.
func PreValidate(m *manifest.Model, reg Registry, knownTags []string) diag.List {
	var errs diag.List

	known := make(map[string]bool, len(knownTags)+len(m.Tags))
	for _, t := range knownTags {
		known[t] = true
	}
	for _, t := range m.Tags {
		known[t] = true
	}

	for _, r := range m.All() {
		for _, ref := range tagRefs(r) {
			if !known[ref.tag] {
				errs = append(errs, diag.Warn(diag.CodePrevalTagUnregistered, diag.Path(r.Key(), ref.field),
					"Add the tag to the tags: section", "tag %q is not registered", ref.tag))
			}
		}
		if r.Graph != nil {
			errs = append(errs, checkFunctions(r.Key(), r.Graph.Nodes, reg)...)
		}
	}

	names := make([]string, 0, len(m.EventGraphs))
	for n := range m.EventGraphs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		errs = append(errs, checkFunctions(diag.Path("event_graphs", n), m.EventGraphs[n].Nodes, reg)...)
	}
	return errs
}

type tagRef struct {
	field, tag string
}

// tagRefs collects the values of tag fields: lists whose key ends in "tags",
// the tags group, and the same lists inside object lists.
func tagRefs(r *manifest.Record) []tagRef {
	var out []tagRef
	add := func(field string, isTag bool, values []string) {
		if !isTag {
			return
		}
		for _, v := range values {
			if v != "" {
				out = append(out, tagRef{field: field, tag: v})
			}
		}
	}
	for _, k := range sortedKeys(r.Lists) {
		add(k, strings.HasSuffix(k, "tags"), r.Lists[k])
	}
	for _, g := range sortedKeys(r.Groups) {
		for _, k := range sortedKeys(r.Groups[g]) {
			add(g+"."+k, g == "tags" || strings.HasSuffix(k, "tags"), r.Groups[g][k])
		}
	}
	for _, k := range sortedKeys(r.Objects) {
		for _, o := range r.Objects[k] {
			for _, lk := range sortedKeys(o.Lists) {
				add(k+"."+lk, strings.HasSuffix(lk, "tags"), o.Lists[lk])
			}
			if t := o.Get("tag"); t != "" && r.Kind == kind.TaggedDialogueSet {
				out = append(out, tagRef{field: k + ".tag", tag: t})
			}
		}
	}
	return out
}

func checkFunctions(path string, nodes []graphir.NodeDecl, reg Registry) diag.List {
	var errs diag.List
	for _, n := range nodes {
		if !strings.EqualFold(n.Type, "CallFunction") {
			continue
		}
		fn := n.Properties["function"]
		if fn == "" || reg.HasFunction(fn) {
			continue
		}
		errs = append(errs, diag.New(diag.CodePrevalFunctionNotFound, diag.Path(path, n.ID),
			"Check the function name or declare it in the registry definitions", "function %q not found", fn))
	}
	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
