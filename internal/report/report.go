package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/specialistvlad/gasgen/internal/diag"
	"github.com/specialistvlad/gasgen/internal/fsutil"
	"github.com/specialistvlad/gasgen/internal/metadata"
	"github.com/specialistvlad/gasgen/internal/resolver"
)

// Error is the structured error shape written to reports.
type Error = diag.Error

// Counts are the per-status totals of a run.
type Counts struct {
	New       int `json:"new"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Deferred  int `json:"deferred"`
	Conflicts int `json:"conflicts"`
	Total     int `json:"total"`
}

// CountsOf tallies a summary.
func CountsOf(s *resolver.Summary) Counts {
	return Counts{
		New:       s.Count(resolver.StatusNew),
		Skipped:   s.Count(resolver.StatusSkipped),
		Failed:    s.Count(resolver.StatusFailed),
		Deferred:  s.Count(resolver.StatusDeferred),
		Conflicts: len(s.Conflicts()),
		Total:     s.Total(),
	}
}

// Item is one record in the JSON report.
type Item struct {
	Name             string   `json:"name"`
	Kind             string   `json:"kind,omitempty"`
	Category         string   `json:"category"`
	AssetPath        string   `json:"asset_path,omitempty"`
	GeneratorID      string   `json:"generator_id"`
	ExecutedStatus   string   `json:"executed_status"`
	PlannedStatus    string   `json:"planned_status,omitempty"`
	ExistedBeforeRun bool     `json:"existed_before_run"`
	Reason           string   `json:"reason,omitempty"`
	RetryCount       int      `json:"retry_count,omitempty"`
	Errors           []*Error `json:"errors,omitempty"`
	Warnings         []*Error `json:"warnings,omitempty"`
}

// Report is the JSON document written after every run.
type Report struct {
	RunID            string    `json:"run_id"`
	Timestamp        time.Time `json:"timestamp"`
	GeneratorVersion string    `json:"generator_version"`
	ManifestPath     string    `json:"manifest_path"`
	ManifestHash     string    `json:"manifest_hash"`
	DryRun           bool      `json:"dry_run"`
	Force            bool      `json:"force"`
	Counts           Counts    `json:"counts"`
	Items            []Item    `json:"items"`
	Verification     []*Error  `json:"verification,omitempty"`
}

// Input is what Build needs besides the summary.
type Input struct {
	ManifestPath string
	Manifest     []byte
	Verification []*Error
	Now          time.Time
}

// Build assembles the report of a run.
func Build(s *resolver.Summary, in Input) *Report {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	r := &Report{
		RunID:            uuid.NewString(),
		Timestamp:        now.UTC(),
		GeneratorVersion: metadata.GeneratorVersion,
		ManifestPath:     in.ManifestPath,
		ManifestHash:     fmt.Sprintf("%016x", xxhash.Sum64(in.Manifest)),
		DryRun:           s.DryRun,
		Force:            s.Force,
		Counts:           CountsOf(s),
		Items:            make([]Item, 0, len(s.Results)),
		Verification:     in.Verification,
	}
	for _, res := range s.Results {
		r.Items = append(r.Items, itemOf(res))
	}
	return r
}

func itemOf(res resolver.Result) Item {
	it := Item{
		Name:             res.Name,
		Category:         res.Category,
		AssetPath:        res.Path,
		GeneratorID:      metadata.GeneratorID,
		ExecutedStatus:   res.Status.String(),
		ExistedBeforeRun: res.Existed,
		Reason:           res.Message,
		RetryCount:       res.RetryCount,
	}
	if res.Kind.Valid() {
		it.Kind = res.Kind.String()
	}
	if res.Classified {
		it.PlannedStatus = res.Decision.Action.Planned()
	}
	for _, e := range res.Errors {
		if e.IsWarning() {
			it.Warnings = append(it.Warnings, e)
		} else {
			it.Errors = append(it.Errors, e)
		}
	}
	return it
}

// FileName is the report file name for a run.
func (r *Report) FileName() string {
	return fmt.Sprintf("gasgen_report_%s.json", r.RunID)
}

// Write stores the report in dir and returns the file path.
func (r *Report) Write(dir string) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, r.FileName())
	if err := fsutil.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
