package tags

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/gasgen/internal/ctxlog"
	"github.com/specialistvlad/gasgen/internal/resolver"
)

func testCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParse(t *testing.T) {
	t.Parallel()

	content := `[/Script/GameplayTags.GameplayTagsSettings]
ImportTagsFromConfig=True
+GameplayTagList=(Tag="Ability.Fire",DevComment="")
+GameplayTags=(Tag="State.Burning")
+GameplayTags=(Tag="Ability.Fire")
+GameplayTags=Broken
; +GameplayTags=(Tag="Commented.Out")
`

	assert.Equal(t, []string{"Ability.Fire", "State.Burning"}, Parse(content))
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := filepath.Join(t.TempDir(), "Config", "DefaultGameplayTags.ini")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`+GameplayTagList=(Tag="Ability.Fire",DevComment="")`), 0o644))

	// --- Act ---
	results, err := Generate(testCtx(), path, []string{"Ability.Fire", "Ability.Ice", "State.Frozen"}, false)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, resolver.StatusSkipped, results[0].Status)
	assert.Equal(t, "Already exists", results[0].Message)
	assert.Equal(t, resolver.StatusNew, results[1].Status)
	assert.Equal(t, "Created successfully", results[1].Message)
	assert.Equal(t, Category, results[2].Category)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `+GameplayTagList=(Tag="Ability.Fire",DevComment="")
+GameplayTags=(Tag="Ability.Ice")
+GameplayTags=(Tag="State.Frozen")
`, string(data))
}

func TestGenerate_IsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tags.ini")
	want := []string{"Ability.Fire", "Ability.Fire"}

	first, err := Generate(testCtx(), path, want, false)
	require.NoError(t, err)
	second, err := Generate(testCtx(), path, want, false)
	require.NoError(t, err)

	assert.Equal(t, resolver.StatusNew, first[0].Status, "missing file is created")
	assert.Equal(t, resolver.StatusSkipped, first[1].Status, "a repeated tag is appended once")
	assert.Equal(t, resolver.StatusSkipped, second[0].Status)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "+GameplayTags=(Tag=\"Ability.Fire\")\n", string(data))
}

func TestGenerate_DryRunDoesNotWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tags.ini")

	results, err := Generate(testCtx(), path, []string{"Ability.Fire"}, true)

	require.NoError(t, err)
	assert.Equal(t, resolver.StatusNew, results[0].Status)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
