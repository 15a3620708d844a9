package app

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/gasgen/internal/config"
)

// Defaults applied to fields neither the flags nor the pipeline file set.
const (
	DefaultContentRoot  = "/Game"
	DefaultStoreDir     = ".gasgen/store"
	DefaultMetadataFile = "metadata.json"
	DefaultReportDir    = ".gasgen/reports"
	DefaultLogFormat    = "text"
	DefaultLogLevel     = "info"
)

// Config holds everything a run needs. Empty fields are filled from the
// pipeline file, then from the defaults.
type Config struct {
	ManifestPath string
	PipelinePath string // gasgen.hcl
	EnvFile      string

	ContentRoot   string
	StoreDir      string
	MetadataPath  string
	ReportDir     string
	DialoguesPath string
	DialogueSheet string
	RegistryPath  string
	TagsIniPath   string

	DryRun     bool
	Force      bool
	TagsOnly   bool
	AssetsOnly bool
	MaxRetries int

	LogFormat string
	LogLevel  string
}

// NewConfig validates the values set so far. The manifest path may still
// come from the pipeline file and is checked by Resolve.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.TagsOnly && cfg.AssetsOnly {
		return nil, errors.New("-tags-only and -assets-only cannot be combined")
	}
	if cfg.MaxRetries < 0 {
		return nil, errors.New("max-retries cannot be negative")
	}
	if err := validateLogging(cfg.LogFormat, cfg.LogLevel); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateLogging(format, level string) error {
	switch format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", format)
	}
	switch level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", level)
	}
	return nil
}

// Resolve fills empty fields from the pipeline file and the defaults and
// checks the result.
func (c Config) Resolve(f *config.File) (*Config, error) {
	if f != nil {
		fill(&c.ManifestPath, f.Manifest)
		fill(&c.ContentRoot, f.ContentRoot)
		fill(&c.StoreDir, f.StoreDir)
		fill(&c.MetadataPath, f.MetadataPath)
		fill(&c.ReportDir, f.ReportDir)
		fill(&c.DialoguesPath, f.Dialogues)
		fill(&c.DialogueSheet, f.DialogueSheet)
		fill(&c.RegistryPath, f.RegistryPath)
		fill(&c.TagsIniPath, f.TagsIni)
		fill(&c.LogFormat, f.LogFormat)
		fill(&c.LogLevel, f.LogLevel)
		if c.MaxRetries == 0 && f.MaxRetries != nil {
			c.MaxRetries = *f.MaxRetries
		}
	}

	fill(&c.ContentRoot, DefaultContentRoot)
	fill(&c.StoreDir, DefaultStoreDir)
	fill(&c.MetadataPath, filepath.Join(c.StoreDir, DefaultMetadataFile))
	fill(&c.ReportDir, DefaultReportDir)
	fill(&c.LogFormat, DefaultLogFormat)
	fill(&c.LogLevel, DefaultLogLevel)

	if c.ManifestPath == "" {
		return nil, errors.New("a manifest path is required")
	}
	if err := validateLogging(c.LogFormat, c.LogLevel); err != nil {
		return nil, err
	}
	return &c, nil
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
