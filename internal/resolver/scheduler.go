package resolver

import (
	"context"
	"fmt"

	"github.com/specialistvlad/gasgen/internal/ctxlog"
	"github.com/specialistvlad/gasgen/internal/diag"
	"github.com/specialistvlad/gasgen/internal/kind"
	"github.com/specialistvlad/gasgen/internal/manifest"
)

// Attempter generates single records and answers dependency queries.
// *Pipeline implements it.
type Attempter interface {
	Attempt(ctx context.Context, rec *manifest.Record) Result
	Satisfied(ctx context.Context, k kind.Kind, name string) bool
}

// Deferred is a record waiting for a dependency.
type Deferred struct {
	Record                *manifest.Record
	MissingDependency     string
	MissingDependencyKind kind.Kind
	RetryCount            int
}

// Scheduler retries deferred records in bounded passes.
type Scheduler struct {
	MaxPasses int
	queue     []*Deferred
}

// NewScheduler returns a scheduler running at most maxPasses passes.
func NewScheduler(maxPasses int) *Scheduler {
	if maxPasses <= 0 {
		maxPasses = DefaultMaxRetryPasses
	}
	return &Scheduler{MaxPasses: maxPasses}
}

// Defer queues a record whose attempt returned StatusDeferred.
func (s *Scheduler) Defer(rec *manifest.Record, res Result) {
	s.queue = append(s.queue, &Deferred{
		Record:                rec,
		MissingDependency:     res.MissingDependency,
		MissingDependencyKind: res.MissingDependencyKind,
	})
}

// Pending is the number of queued records.
func (s *Scheduler) Pending() int { return len(s.queue) }

// Run retries the queue. Each pass attempts every record whose missing
// dependency is now satisfied. Run stops when the queue is empty, when a
// pass resolves nothing, or after MaxPasses passes. Records still waiting
// at that point fail with E_DEPENDENCY_UNRESOLVED.
func (s *Scheduler) Run(ctx context.Context, a Attempter) []Result {
	logger := ctxlog.FromContext(ctx)
	var out []Result

	for pass := 1; pass <= s.MaxPasses && len(s.queue) > 0; pass++ {
		if ctx.Err() != nil {
			break
		}
		resolved := 0
		waiting := s.queue[:0]
		for _, d := range s.queue {
			if !a.Satisfied(ctx, d.MissingDependencyKind, d.MissingDependency) {
				d.RetryCount++
				waiting = append(waiting, d)
				continue
			}
			res := a.Attempt(ctx, d.Record)
			if res.Status == StatusDeferred {
				d.MissingDependency = res.MissingDependency
				d.MissingDependencyKind = res.MissingDependencyKind
				d.RetryCount++
				waiting = append(waiting, d)
				continue
			}
			resolved++
			res.RetryCount = d.RetryCount + 1
			out = append(out, res)
		}
		s.queue = waiting
		logger.Debug("Retry pass finished.", "pass", pass, "resolved", resolved, "waiting", len(s.queue))
		if resolved == 0 {
			break
		}
	}

	for _, d := range s.queue {
		out = append(out, unresolved(d))
	}
	s.queue = nil
	return out
}

func unresolved(d *Deferred) Result {
	rec := d.Record
	msg := fmt.Sprintf("dependency %s (%s) was never generated", d.MissingDependency, d.MissingDependencyKind)
	return Result{
		Name:                  rec.Name,
		Kind:                  rec.Kind,
		Category:              rec.Kind.Category(),
		Status:                StatusFailed,
		Message:               msg,
		MissingDependency:     d.MissingDependency,
		MissingDependencyKind: d.MissingDependencyKind,
		RetryCount:            d.RetryCount,
		Errors: []*diag.Error{diag.New(diag.CodeDependencyUnresolved, rec.Key(),
			fmt.Sprintf("Declare %s in the manifest or create it in the project", d.MissingDependency), "%s", msg)},
	}
}
