// Package testutil runs the whole application against a temporary
// workspace for end-to-end tests.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/gasgen/internal/app"
)

// LogsEnv dumps every harness log to the test output when set to "true".
const LogsEnv = "GASGEN_TEST_LOGS"

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcome of one harness run.
type HarnessResult struct {
	Dir       string
	LogOutput string
	Outcome   *app.Outcome
	Err       error
	App       *app.App
}

// Path joins name onto the workspace directory.
func (r *HarnessResult) Path(name string) string { return filepath.Join(r.Dir, name) }

// Workspace is a temporary directory holding the files of a test.
type Workspace struct {
	Dir string
}

// NewWorkspace writes files, keyed by relative path, into a new temporary
// directory.
func NewWorkspace(t *testing.T, files map[string]string) *Workspace {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return &Workspace{Dir: dir}
}

// Run builds and runs the app inside the workspace. Relative paths in cfg
// are resolved against the workspace. Without a pipeline file, unset store
// and report locations point into it.
func (w *Workspace) Run(t *testing.T, cfg app.Config, opts ...app.Option) *HarnessResult {
	t.Helper()

	for _, p := range []*string{&cfg.ManifestPath, &cfg.PipelinePath, &cfg.EnvFile, &cfg.DialoguesPath, &cfg.TagsIniPath, &cfg.RegistryPath, &cfg.StoreDir, &cfg.ReportDir, &cfg.MetadataPath} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(w.Dir, *p)
		}
	}
	if cfg.PipelinePath == "" {
		// Keep the run away from a gasgen.hcl in the package directory.
		cfg.PipelinePath = filepath.Join(w.Dir, "gasgen.hcl")
		if _, err := os.Stat(cfg.PipelinePath); err != nil {
			require.NoError(t, os.WriteFile(cfg.PipelinePath, nil, 0o644))
		}
		if cfg.StoreDir == "" {
			cfg.StoreDir = filepath.Join(w.Dir, "store")
		}
		if cfg.ReportDir == "" {
			cfg.ReportDir = filepath.Join(w.Dir, "reports")
		}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	opts = append([]app.Option{app.WithClock(func() time.Time {
		return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	})}, opts...)

	logBuffer := &SafeBuffer{}
	res := &HarnessResult{Dir: w.Dir}
	defer func() {
		res.LogOutput = logBuffer.String()
		if os.Getenv(LogsEnv) == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), res.LogOutput)
		}
	}()

	resolved, err := app.NewConfig(cfg)
	if err != nil {
		res.Err = err
		return res
	}
	a, err := app.NewApp(logBuffer, resolved, opts...)
	if err != nil {
		res.Err = err
		return res
	}
	res.App = a
	res.Outcome, res.Err = a.Run(context.Background())
	return res
}
