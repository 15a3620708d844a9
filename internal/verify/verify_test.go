package verify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/specialistvlad/gasgen/internal/ctxlog"
	"github.com/specialistvlad/gasgen/internal/diag"
	"github.com/specialistvlad/gasgen/internal/kind"
	"github.com/specialistvlad/gasgen/internal/manifest"
	"github.com/specialistvlad/gasgen/internal/registry"
	"github.com/specialistvlad/gasgen/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func parse(t *testing.T, text string) *manifest.Model {
	t.Helper()
	m, err := manifest.Parse(testCtx(), text)
	require.NoError(t, err)
	return m
}

func codes(errs diag.List) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func result(k kind.Kind, name string) resolver.Result {
	return resolver.Result{Name: name, Kind: k}
}

func key(k kind.Kind, name string) string { return manifest.RecordKey(k, name) }

func TestWhitelist(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		expected []string
		results  []resolver.Result
		want     []string
	}{
		{
			name:     "exact match",
			expected: []string{key(kind.GameplayAbility, "GA_A"), key(kind.GameplayEffect, "GE_B")},
			results:  []resolver.Result{result(kind.GameplayAbility, "GA_A"), result(kind.GameplayEffect, "GE_B")},
			want:     []string{},
		},
		{
			name:     "missing",
			expected: []string{key(kind.GameplayAbility, "GA_A"), key(kind.GameplayEffect, "GE_B")},
			results:  []resolver.Result{result(kind.GameplayAbility, "GA_A")},
			want:     []string{diag.CodeVerifyMissing},
		},
		{
			name:     "unexpected",
			expected: []string{key(kind.GameplayAbility, "GA_A")},
			results:  []resolver.Result{result(kind.GameplayAbility, "GA_A"), result(kind.ActorBlueprint, "BP_Stray")},
			want:     []string{diag.CodeVerifyUnexpected},
		},
		{
			name:     "processed twice",
			expected: []string{key(kind.GameplayAbility, "GA_A")},
			results:  []resolver.Result{result(kind.GameplayAbility, "GA_A"), result(kind.GameplayAbility, "GA_A")},
			want:     []string{diag.CodeVerifyDuplicate},
		},
		{
			name:     "same name under two kinds is not a duplicate",
			expected: []string{key(kind.ActorBlueprint, "BPA_Patrol"), key(kind.Activity, "BPA_Patrol")},
			results:  []resolver.Result{result(kind.ActorBlueprint, "BPA_Patrol"), result(kind.Activity, "BPA_Patrol")},
			want:     []string{},
		},
		{
			name:     "one kind of a shared name dropped",
			expected: []string{key(kind.ActorBlueprint, "BPA_Patrol"), key(kind.Activity, "BPA_Patrol")},
			results:  []resolver.Result{result(kind.ActorBlueprint, "BPA_Patrol")},
			want:     []string{diag.CodeVerifyMissing},
		},
		{
			name:     "right name under the wrong kind",
			expected: []string{key(kind.Activity, "BPA_Patrol")},
			results:  []resolver.Result{result(kind.ActorBlueprint, "BPA_Patrol")},
			want:     []string{diag.CodeVerifyUnexpected, diag.CodeVerifyMissing},
		},
		{
			name:     "tag results are ignored",
			expected: []string{key(kind.GameplayAbility, "GA_A")},
			results:  []resolver.Result{result(kind.GameplayAbility, "GA_A"), {Name: "Ability.Fire", Category: "Gameplay Tags"}},
			want:     []string{},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			errs := Whitelist(tc.expected, tc.results)

			assert.Equal(t, tc.want, codes(errs))
		})
	}
}

func TestRun_MissingKindOfCollidingName(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	m := parse(t, `
actor_blueprints:
  - name: BPA_Patrol
    parent_class: Actor
activities:
  - name: BPA_Patrol
`)
	s := &resolver.Summary{}
	s.Add(result(kind.ActorBlueprint, "BPA_Patrol"))

	// --- Act ---
	errs := Run(m, s)

	// --- Assert ---
	require.Equal(t, []string{diag.CodeVerifyMissing}, codes(errs))
	assert.Equal(t, "Activity/BPA_Patrol", errs[0].ContextPath)
}

func TestRun_ReportsManifestDuplicates(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	m := parse(t, `
gameplay_effects:
  - name: GE_Heal
  - name: GE_Heal
`)
	s := &resolver.Summary{}
	s.Add(result(kind.GameplayEffect, "GE_Heal"))

	// --- Act ---
	errs := Run(m, s)

	// --- Assert ---
	require.Equal(t, []string{diag.CodeDuplicateRecord}, codes(errs))
	assert.Equal(t, "GameplayEffect/GE_Heal", errs[0].ContextPath)
	assert.Contains(t, errs[0].Message, "line 3 and again on line 4")
}

func TestFilterIncremental(t *testing.T) {
	t.Parallel()

	m := parse(t, `
gameplay_abilities:
  - name: GA_Fire
`)

	allowed, blocked := FilterIncremental([]string{"GA_Fire", "GA_Rogue"}, m)

	assert.Equal(t, []string{"GA_Fire"}, allowed)
	assert.Equal(t, []string{"GA_Rogue"}, blocked)
}

func TestPreValidate(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	m := parse(t, `
tags:
  - Ability.Fire
gameplay_effects:
  - name: GE_Burn
    granted_tags:
      - State.Burning
gameplay_abilities:
  - name: GA_Fire
    tags:
      ability_tags:
        - Ability.Fire
    event_graph:
      nodes:
        - id: Start
          type: Event
        - id: Print
          type: CallFunction
          properties:
            function: PrintString
        - id: Bad
          type: CallFunction
          properties:
            function: LaunchRocket
`)
	reg := registry.NewBuilder().Build()

	// --- Act ---
	errs := PreValidate(m, reg, []string{"Ability.Ice"})

	// --- Assert ---
	require.Equal(t, []string{diag.CodePrevalTagUnregistered, diag.CodePrevalFunctionNotFound}, codes(errs))
	assert.True(t, errs[0].IsWarning())
	assert.Equal(t, "GameplayEffect/GE_Burn/granted_tags", errs[0].ContextPath)
	assert.Equal(t, "GameplayAbility/GA_Fire/Bad", errs[1].ContextPath)
	assert.True(t, errs.HasErrors())
}
