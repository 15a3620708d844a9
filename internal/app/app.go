package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/specialistvlad/gasgen/internal/config"
	"github.com/specialistvlad/gasgen/internal/ctxlog"
	"github.com/specialistvlad/gasgen/internal/fsstore"
	"github.com/specialistvlad/gasgen/internal/metadata"
	"github.com/specialistvlad/gasgen/internal/registry"
	"github.com/specialistvlad/gasgen/internal/store"
)

// App encapsulates the dependencies of a run.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	reg    *registry.Registry
	store  store.Store
	side   *metadata.Registry
	now    func() time.Time
}

// Option customizes an App.
type Option func(*App)

// WithStore replaces the file-backed content store.
func WithStore(st store.Store) Option { return func(a *App) { a.store = st } }

// WithClock replaces time.Now for metadata and report timestamps.
func WithClock(now func() time.Time) Option { return func(a *App) { a.now = now } }

// NewApp resolves the configuration against the pipeline file, builds the
// logger and registry, and opens the stores. Logs and rendered output both
// go to outW.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	boot := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), boot)

	file, err := config.Load(ctx, cfg.PipelinePath, cfg.EnvFile)
	if err != nil {
		return nil, &UsageError{Err: err}
	}
	resolved, err := cfg.Resolve(file)
	if err != nil {
		return nil, &UsageError{Err: err}
	}

	logger := newLogger(resolved.LogLevel, resolved.LogFormat, outW)
	ctx = ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	b := registry.NewBuilder()
	if err := b.LoadDefinitions(ctx, resolved.RegistryPath); err != nil {
		return nil, fmt.Errorf("failed to load registry definitions: %w", err)
	}
	reg := b.Build()
	if err := reg.Validate(ctx); err != nil {
		return nil, fmt.Errorf("registry validation failed: %w", err)
	}
	logger.Debug("Registry ready.", "node_types", len(reg.NodeTypeNames()))

	a := &App{
		outW:   outW,
		logger: logger,
		config: resolved,
		reg:    reg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.store == nil {
		a.store = fsstore.New(resolved.StoreDir)
	}
	side, err := metadata.LoadRegistry(resolved.MetadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata registry: %w", err)
	}
	a.side = side
	return a, nil
}

// Config returns the resolved configuration.
func (a *App) Config() *Config { return a.config }

// Registry returns the node registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry { return a.reg }

// UsageError marks configuration mistakes, as opposed to run failures.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }
