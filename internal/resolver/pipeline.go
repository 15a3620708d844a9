package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/gasgen/internal/changedetect"
	"github.com/specialistvlad/gasgen/internal/ctxlog"
	"github.com/specialistvlad/gasgen/internal/diag"
	"github.com/specialistvlad/gasgen/internal/kind"
	"github.com/specialistvlad/gasgen/internal/manifest"
	"github.com/specialistvlad/gasgen/internal/metadata"
	"github.com/specialistvlad/gasgen/internal/registry"
	"github.com/specialistvlad/gasgen/internal/store"
)

// DefaultMaxRetryPasses bounds the deferred retry loop.
const DefaultMaxRetryPasses = 3

// Options tune a pipeline run.
type Options struct {
	// ContentRoot prefixes every artifact path.
	ContentRoot string
	DryRun      bool
	Force       bool
	// MaxRetryPasses is the number of retry passes over deferred records.
	// Zero means DefaultMaxRetryPasses.
	MaxRetryPasses int
	ManifestPath   string
	Now            func() time.Time
}

// Pipeline turns manifest records into stored artifacts.
type Pipeline struct {
	store      store.Store
	side       *metadata.Registry
	reg        *registry.Registry
	opts       Options
	model      *manifest.Model
	session    *Session
	collisions *changedetect.CollisionDetector
	generators map[kind.Kind]Generator
	plan       *changedetect.Plan
}

// New returns a pipeline writing to st. side holds metadata for kinds that
// cannot carry it and may be nil.
func New(st store.Store, side *metadata.Registry, reg *registry.Registry, opts Options) *Pipeline {
	if opts.MaxRetryPasses <= 0 {
		opts.MaxRetryPasses = DefaultMaxRetryPasses
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ContentRoot == "" {
		opts.ContentRoot = "/Game"
	}
	return &Pipeline{
		store:      st,
		side:       side,
		reg:        reg,
		opts:       opts,
		session:    NewSession(),
		collisions: changedetect.NewCollisionDetector(),
		generators: generators,
	}
}

// Session exposes the run's memo state.
func (p *Pipeline) Session() *Session { return p.session }

// Run generates every record of m in phase order, then retries deferred
// records until they resolve, stop making progress, or the pass limit is
// reached.
func (p *Pipeline) Run(ctx context.Context, m *manifest.Model) (*Summary, error) {
	logger := ctxlog.FromContext(ctx)
	p.model = m
	p.session.Reset()
	p.collisions.Reset()
	p.plan = &changedetect.Plan{}
	if p.opts.ManifestPath == "" {
		p.opts.ManifestPath = m.Path
	}

	summary := &Summary{DryRun: p.opts.DryRun, Force: p.opts.Force}
	if p.opts.DryRun {
		summary.Plan = p.plan
	}
	sched := NewScheduler(p.opts.MaxRetryPasses)

	logger.Info("Generating assets.", "records", m.Count(), "dry_run", p.opts.DryRun, "force", p.opts.Force)
	for _, rec := range m.All() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res := p.Attempt(ctx, rec)
		if res.Status == StatusDeferred {
			sched.Defer(rec, res)
			continue
		}
		p.record(ctx, summary, res)
	}

	for _, res := range sched.Run(ctx, p) {
		p.record(ctx, summary, res)
	}
	logger.Info("Generation finished.",
		"new", summary.Count(StatusNew),
		"skipped", summary.Count(StatusSkipped),
		"failed", summary.Count(StatusFailed))
	return summary, ctx.Err()
}

func (p *Pipeline) record(ctx context.Context, s *Summary, res Result) {
	if res.Status == StatusFailed {
		ctxlog.FromContext(ctx).Warn(fmt.Sprintf("[FAILED] %s", res.Name), "message", res.Message, "errors", len(res.Errors))
	}
	s.Add(res)
}

// Satisfied reports whether a referenced record is available: generated
// earlier in this run or already present in the store.
func (p *Pipeline) Satisfied(ctx context.Context, k kind.Kind, name string) bool {
	if p.session.Generated(k, name) {
		return true
	}
	_, ok, err := p.store.Lookup(ctx, store.PathFor(p.opts.ContentRoot, k, name))
	return err == nil && ok
}

// Attempt generates one record.
func (p *Pipeline) Attempt(ctx context.Context, rec *manifest.Record) Result {
	logger := ctxlog.FromContext(ctx).With("record", rec.Name, "kind", rec.Kind.String())
	path := store.PathFor(p.opts.ContentRoot, rec.Kind, rec.Name)
	res := Result{Name: rec.Name, Kind: rec.Kind, Category: rec.Kind.Category(), Path: path}

	gen, ok := p.generators[rec.Kind]
	if !ok {
		return failed(res, diag.New(diag.CodeGenerationFailed, rec.Key(), "", "no generator for kind %s", rec.Kind))
	}

	gc := newGenContext(ctx, p, rec)
	if err := gc.run(gen); err != nil {
		var missing *MissingDependencyError
		if errors.As(err, &missing) {
			res.Status = StatusDeferred
			res.MissingDependency = missing.Name
			res.MissingDependencyKind = missing.Kind
			res.Message = missing.Error()
			logger.Info(fmt.Sprintf("[DEFERRED] %s", rec.Name), "waiting_for", missing.Name)
			return res
		}
		res.Errors = diag.Collect(err, diag.CodeGenerationFailed, rec.Key())
		return failed(res)
	}
	res.Errors = gc.warnings()

	input := changedetect.InputHash(rec, gc.extra...)
	if w := p.collisions.Check(ctx, input, rec.Key()); w != nil {
		res.Errors = append(res.Errors, w)
	}

	var existing store.Artifact
	a, found, err := p.store.Lookup(ctx, path)
	if err != nil {
		return failed(res, diag.New(diag.CodeStoreFailure, rec.Key(), "Check the content store", "lookup %s: %v", path, err))
	}
	var md *metadata.Metadata
	if found {
		existing = a
		md, _ = store.MetadataFor(a, p.side)
	}
	dec := changedetect.Classify(input, existing, md)
	res.Decision, res.Classified, res.Existed = dec, true, dec.Existed

	if p.opts.DryRun {
		p.plan.Add(changedetect.PlanEntry{Name: rec.Name, Kind: rec.Kind, Path: path, Decision: dec})
		p.session.MarkGenerated(rec.Kind, rec.Name)
		return planned(res, rec, dec)
	}

	if !dec.Proceed(p.opts.Force) {
		p.session.MarkGenerated(rec.Kind, rec.Name)
		res.Status = StatusSkipped
		res.Message = dec.Reason
		if dec.Action == changedetect.Conflict {
			res.Errors = append(res.Errors, conflictError(rec, dec))
			logger.Warn(fmt.Sprintf("[CONFLICT] %s", rec.Name), "reason", dec.Reason)
		} else {
			logger.Info(fmt.Sprintf("[SKIPPED] %s", rec.Name), "reason", dec.Reason)
		}
		return res
	}

	if err := p.write(ctx, rec, existing, gc, input); err != nil {
		return failed(res, diag.New(diag.CodeStoreFailure, rec.Key(), "Check the content store", "%v", err))
	}
	p.session.MarkGenerated(rec.Kind, rec.Name)

	res.Status = StatusNew
	switch dec.Action {
	case changedetect.Create:
		res.Message = "Created successfully"
	case changedetect.Modify:
		res.Message = "Modified"
	case changedetect.Conflict:
		res.Message = "Conflict overridden by force"
		res.Errors = append(res.Errors, forcedConflictWarning(rec, dec))
		logger.Warn(fmt.Sprintf("[CONFLICT] %s", rec.Name), "reason", dec.Reason, "forced", true)
	default:
		res.Message = "Regenerated (forced)"
	}
	logger.Info(fmt.Sprintf("[NEW] %s", rec.Name), "message", res.Message)
	return res
}

// write creates or updates the artifact and stamps its metadata.
func (p *Pipeline) write(ctx context.Context, rec *manifest.Record, existing store.Artifact, gc *genContext, input uint64) error {
	a := existing
	if a == nil {
		created, err := p.store.Create(ctx, rec.Kind, store.PathFor(p.opts.ContentRoot, rec.Kind, rec.Name))
		if err != nil {
			return err
		}
		a = created
	} else {
		for _, name := range a.FieldNames() {
			if _, ok := gc.fields[name]; !ok {
				a.SetField(name, "")
			}
		}
	}
	for k, v := range gc.fields {
		a.SetField(k, v)
	}

	store.AttachMetadata(a, p.side, &metadata.Metadata{
		GeneratorID:      metadata.GeneratorID,
		ManifestPath:     p.opts.ManifestPath,
		RecordKey:        rec.Key(),
		InputHash:        input,
		OutputHash:       changedetect.OutputHash(a),
		GeneratorVersion: metadata.GeneratorVersion,
		Timestamp:        p.opts.Now().UTC(),
		Dependencies:     gc.deps,
		Generated:        true,
	})
	return p.store.Save(ctx, a)
}

func failed(res Result, errs ...*diag.Error) Result {
	res.Status = StatusFailed
	res.Errors = append(res.Errors, errs...)
	if len(res.Errors) > 0 {
		res.Message = res.Errors[0].Message
	}
	return res
}

func planned(res Result, rec *manifest.Record, dec changedetect.Decision) Result {
	res.Message = dec.Reason
	switch dec.Action {
	case changedetect.Create, changedetect.Modify:
		res.Status = StatusNew
	case changedetect.Conflict:
		res.Status = StatusSkipped
		res.Errors = append(res.Errors, conflictError(rec, dec))
	default:
		res.Status = StatusSkipped
	}
	return res
}

func conflictError(rec *manifest.Record, dec changedetect.Decision) *diag.Error {
	return diag.New(diag.CodeConflict, rec.Key(), "Use --force to override or resolve manually", "%s", dec.Reason)
}

// forcedConflictWarning keeps an overridden conflict visible in the summary.
func forcedConflictWarning(rec *manifest.Record, dec changedetect.Decision) *diag.Error {
	return diag.Warn(diag.CodeConflict, rec.Key(), "Manual edits were overwritten by the forced run", "%s", dec.Reason)
}
