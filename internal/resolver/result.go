package resolver

import (
	"github.com/specialistvlad/gasgen/internal/changedetect"
	"github.com/specialistvlad/gasgen/internal/diag"
	"github.com/specialistvlad/gasgen/internal/kind"
)

// Status is the final outcome of one record.
type Status int

const (
	StatusNew Status = iota
	StatusSkipped
	StatusFailed
	StatusDeferred
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusSkipped:
		return "Skipped"
	case StatusFailed:
		return "Failed"
	case StatusDeferred:
		return "Deferred"
	default:
		return "Unknown"
	}
}

// Tag is the progress marker used in log lines.
func (s Status) Tag() string {
	switch s {
	case StatusNew:
		return "[NEW]"
	case StatusSkipped:
		return "[SKIPPED]"
	case StatusFailed:
		return "[FAILED]"
	default:
		return "[DEFERRED]"
	}
}

// Result describes what happened to one record.
type Result struct {
	Name     string
	Kind     kind.Kind
	Category string
	Path     string
	Status   Status
	Message  string

	MissingDependency     string
	MissingDependencyKind kind.Kind
	RetryCount            int

	// Decision is the change-detection outcome. It is zero for records that
	// failed or were deferred before classification.
	Decision   changedetect.Decision
	Classified bool
	Existed    bool

	// Errors holds errors and warnings. A New or Skipped result may still
	// carry warnings.
	Errors []*diag.Error
}

// CanRetry reports whether the result is waiting on a named dependency.
func (r Result) CanRetry() bool {
	return r.Status == StatusDeferred && r.MissingDependency != ""
}

// Conflicted reports whether the record was classified as a conflict,
// whether or not the run forced past it.
func (r Result) Conflicted() bool {
	if r.Classified && r.Decision.Action == changedetect.Conflict {
		return true
	}
	for _, e := range r.Errors {
		if e.Code == diag.CodeConflict {
			return true
		}
	}
	return false
}

// Summary aggregates the results of a run.
type Summary struct {
	Results []Result
	DryRun  bool
	Force   bool
	// Plan holds every classification made during a dry run.
	Plan *changedetect.Plan
}

// Add appends a result.
func (s *Summary) Add(r Result) { s.Results = append(s.Results, r) }

// Count returns how many results have the status.
func (s *Summary) Count(st Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == st {
			n++
		}
	}
	return n
}

// Total is the number of results.
func (s *Summary) Total() int { return len(s.Results) }

// Conflicts returns the conflicted results, forced or not.
func (s *Summary) Conflicts() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Conflicted() {
			out = append(out, r)
		}
	}
	return out
}

// Failed returns the failed results in order.
func (s *Summary) Failed() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Status == StatusFailed {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the result for a record.
func (s *Summary) Find(k kind.Kind, name string) (Result, bool) {
	for _, r := range s.Results {
		if r.Kind == k && r.Name == name {
			return r, true
		}
	}
	return Result{}, false
}

// Names returns the record names of all results in order.
func (s *Summary) Names() []string {
	out := make([]string, len(s.Results))
	for i, r := range s.Results {
		out[i] = r.Name
	}
	return out
}
