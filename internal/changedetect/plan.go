package changedetect

import "github.com/specialistvlad/gasgen/internal/kind"

// PlanEntry is one classified record of a dry run.
type PlanEntry struct {
	Name     string
	Kind     kind.Kind
	Path     string
	Decision Decision
}

// Plan collects the decisions of a dry run in classification order.
type Plan struct {
	Entries []PlanEntry
}

// Add appends an entry.
func (p *Plan) Add(e PlanEntry) { p.Entries = append(p.Entries, e) }

// ByAction returns the entries with the given action, in order.
func (p *Plan) ByAction(a Action) []PlanEntry {
	var out []PlanEntry
	for _, e := range p.Entries {
		if e.Decision.Action == a {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many entries have the given action.
func (p *Plan) Count(a Action) int {
	n := 0
	for _, e := range p.Entries {
		if e.Decision.Action == a {
			n++
		}
	}
	return n
}

// Len is the number of entries.
func (p *Plan) Len() int { return len(p.Entries) }
