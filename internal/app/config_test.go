package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/gasgen/internal/config"
)

func TestNewConfig_Validation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty is fine", cfg: Config{}},
		{name: "exclusive modes", cfg: Config{TagsOnly: true, AssetsOnly: true}, wantErr: "cannot be combined"},
		{name: "negative retries", cfg: Config{MaxRetries: -1}, wantErr: "negative"},
		{name: "log format", cfg: Config{LogFormat: "xml"}, wantErr: "log-format"},
		{name: "log level", cfg: Config{LogLevel: "trace"}, wantErr: "log-level"},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewConfig(tc.cfg)

			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestResolve_Precedence(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	retries := 7
	file := &config.File{
		Manifest:    "from_file.yaml",
		ContentRoot: "/Game/FromFile",
		StoreDir:    "file_store",
		MaxRetries:  &retries,
		LogLevel:    "debug",
	}
	flags := Config{ManifestPath: "from_flag.yaml", MaxRetries: 2}

	// --- Act ---
	cfg, err := flags.Resolve(file)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "from_flag.yaml", cfg.ManifestPath, "flags win")
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, "/Game/FromFile", cfg.ContentRoot, "file beats defaults")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, filepath.Join("file_store", DefaultMetadataFile), cfg.MetadataPath)
	assert.Equal(t, DefaultReportDir, cfg.ReportDir)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
}

func TestResolve_RequiresManifest(t *testing.T) {
	t.Parallel()

	_, err := Config{}.Resolve(nil)

	assert.ErrorContains(t, err, "manifest path is required")
}
