package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext_PanicsWithoutLogger(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { FromContext(context.Background()) })
}

func TestWith_AddsAttributes(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	// --- Act ---
	FromContext(With(ctx, "record", "GA_Fireball")).Info("generated")

	// --- Assert ---
	assert.Contains(t, buf.String(), "record=GA_Fireball")
}
