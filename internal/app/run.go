package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/specialistvlad/gasgen/internal/ctxlog"
	"github.com/specialistvlad/gasgen/internal/dialoguetable"
	"github.com/specialistvlad/gasgen/internal/diag"
	"github.com/specialistvlad/gasgen/internal/manifest"
	"github.com/specialistvlad/gasgen/internal/report"
	"github.com/specialistvlad/gasgen/internal/resolver"
	"github.com/specialistvlad/gasgen/internal/tags"
	"github.com/specialistvlad/gasgen/internal/verify"
)

// Outcome is everything a run produced.
type Outcome struct {
	Summary *resolver.Summary
	// Problems holds pre-validation, dialogue table and verification
	// diagnostics.
	Problems   diag.List
	Report     *report.Report
	ReportPath string
}

// Failed reports whether the run should exit non-zero: a record failed or
// a problem of error severity remains.
func (o *Outcome) Failed() bool {
	return o.Summary.Count(resolver.StatusFailed) > 0 || o.Problems.HasErrors()
}

// Run executes one generation run: parse the manifest and read the dialogue
// table concurrently, merge, pre-validate, generate tags and assets, verify,
// then report.
func (a *App) Run(ctx context.Context) (*Outcome, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	cfg := a.config
	a.logger.Debug("App.Run method started.", "manifest", cfg.ManifestPath)

	var (
		src []byte
		m   *manifest.Model
		tbl *dialoguetable.Table
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		src, err = os.ReadFile(cfg.ManifestPath)
		if err != nil {
			return &UsageError{Err: fmt.Errorf("read manifest: %w", err)}
		}
		m, err = manifest.Parse(gctx, string(src))
		return err
	})
	if cfg.DialoguesPath != "" {
		g.Go(func() error {
			var err error
			tbl, err = dialoguetable.ReadFile(gctx, cfg.DialoguesPath, cfg.DialogueSheet)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	m.Path = cfg.ManifestPath
	a.logger.Info("Manifest parsed.", "records", m.Count(), "tags", len(m.Tags))

	out := &Outcome{Summary: &resolver.Summary{DryRun: cfg.DryRun, Force: cfg.Force}}

	if tbl != nil {
		problems, err := a.mergeDialogues(ctx, m, tbl)
		if err != nil {
			return nil, err
		}
		out.Problems = append(out.Problems, problems...)
	}

	iniPath := a.tagsIniPath(m)
	known, _, err := tags.Load(iniPath)
	if err != nil {
		return nil, err
	}
	out.Problems = append(out.Problems, verify.PreValidate(m, a.reg, known)...)

	if !cfg.AssetsOnly {
		results, err := tags.Generate(ctx, iniPath, m.Tags, cfg.DryRun)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			out.Summary.Add(r)
		}
	}

	if !cfg.TagsOnly {
		p := resolver.New(a.store, a.side, a.reg, resolver.Options{
			ContentRoot:    cfg.ContentRoot,
			DryRun:         cfg.DryRun,
			Force:          cfg.Force,
			MaxRetryPasses: cfg.MaxRetries,
			ManifestPath:   cfg.ManifestPath,
			Now:            a.now,
		})
		assets, err := p.Run(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("generation failed: %w", err)
		}
		out.Summary.Results = append(out.Summary.Results, assets.Results...)
		out.Summary.Plan = assets.Plan
		out.Problems = append(out.Problems, verify.Run(m, assets)...)

		if !cfg.DryRun {
			if err := a.side.Flush(); err != nil {
				return nil, fmt.Errorf("failed to save metadata registry: %w", err)
			}
		}
	}

	for _, e := range out.Problems {
		if e.IsWarning() {
			a.logger.Warn(e.Message, "code", e.Code, "context", e.ContextPath)
		} else {
			a.logger.Error(e.Message, "code", e.Code, "context", e.ContextPath)
		}
	}

	if cfg.DryRun {
		report.RenderPreview(a.outW, out.Summary.Plan)
	}
	report.RenderSummary(a.outW, out.Summary)

	out.Report = report.Build(out.Summary, report.Input{
		ManifestPath: cfg.ManifestPath,
		Manifest:     src,
		Verification: out.Problems,
		Now:          a.now(),
	})
	out.ReportPath, err = out.Report.Write(cfg.ReportDir)
	if err != nil {
		return nil, err
	}
	a.logger.Info(report.SummaryLine(out.Report.Counts), "report", out.ReportPath)
	a.logger.Debug("App.Run method finished.")
	return out, nil
}

func (a *App) mergeDialogues(ctx context.Context, m *manifest.Model, tbl *dialoguetable.Table) (diag.List, error) {
	res, err := dialoguetable.Merge(ctx, m, tbl)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Dialogue table merged.", "created", len(res.Created), "updated", len(res.Updated), "rejected", len(res.Rejected))
	return res.Rejected, nil
}

// tagsIniPath picks the flag, then the manifest's tags_ini_path under its
// project_root, then the default next to the manifest.
func (a *App) tagsIniPath(m *manifest.Model) string {
	if a.config.TagsIniPath != "" {
		return a.config.TagsIniPath
	}
	base := filepath.Dir(a.config.ManifestPath)
	if m.ProjectRoot != "" {
		base = m.ProjectRoot
		if !filepath.IsAbs(base) {
			base = filepath.Join(filepath.Dir(a.config.ManifestPath), base)
		}
	}
	p := m.TagsIniPath
	if p == "" {
		p = tags.DefaultIniPath
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
