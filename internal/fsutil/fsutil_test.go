package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.XLSX", "nested/c.csv", "notes.txt"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	// --- Act ---
	files, err := FindFilesByExtension(dir, ".csv", ".xlsx")

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.XLSX"),
		filepath.Join(dir, "b.csv"),
		filepath.Join(dir, "nested", "c.csv"),
	}, files)
}

func TestFindFilesByExtension_SingleFile(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "dialogue.csv")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	files, err := FindFilesByExtension(p, ".csv")
	require.NoError(t, err)
	assert.Equal(t, []string{p}, files)
}

func TestWriteFileAtomic_ReplacesContent(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "out", "report.json")
	require.NoError(t, WriteFileAtomic(p, []byte("one"), 0o644))
	require.NoError(t, WriteFileAtomic(p, []byte("two"), 0o644))

	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	entries, err := os.ReadDir(filepath.Dir(p))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files should be left behind")
}
