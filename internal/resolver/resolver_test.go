package resolver

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/specialistvlad/gasgen/internal/changedetect"
	"github.com/specialistvlad/gasgen/internal/ctxlog"
	"github.com/specialistvlad/gasgen/internal/diag"
	"github.com/specialistvlad/gasgen/internal/kind"
	"github.com/specialistvlad/gasgen/internal/manifest"
	"github.com/specialistvlad/gasgen/internal/memstore"
	"github.com/specialistvlad/gasgen/internal/metadata"
	"github.com/specialistvlad/gasgen/internal/registry"
	"github.com/specialistvlad/gasgen/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func fixedNow() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

func parse(t *testing.T, text string) *manifest.Model {
	t.Helper()
	m, err := manifest.Parse(testCtx(), text)
	require.NoError(t, err)
	return m
}

func newPipeline(st store.Store, opts Options) *Pipeline {
	opts.Now = fixedNow
	return New(st, metadata.NewRegistry(), registry.NewBuilder().Build(), opts)
}

func run(t *testing.T, p *Pipeline, m *manifest.Model) *Summary {
	t.Helper()
	s, err := p.Run(testCtx(), m)
	require.NoError(t, err)
	return s
}

func find(t *testing.T, s *Summary, k kind.Kind, name string) Result {
	t.Helper()
	r, ok := s.Find(k, name)
	require.True(t, ok, "no result for %s", name)
	return r
}

func codes(errs []*diag.Error) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

const basicManifest = `
gameplay_effects:
  - name: GE_Cooldown
    duration_policy: HasDuration
    duration_magnitude: 2.5
gameplay_abilities:
  - name: GA_Fire
    parent_class: GameplayAbility
    cooldown_effect: GE_Cooldown
enumerations:
  - name: E_Mood
    values:
      - Calm
      - Angry
`

func TestRun_CreatesEveryRecord(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	st := memstore.New()
	p := newPipeline(st, Options{})

	// --- Act ---
	s := run(t, p, parse(t, basicManifest))

	// --- Assert ---
	assert.Equal(t, 3, s.Count(StatusNew))
	assert.Equal(t, 3, st.Saves())
	assert.Equal(t, []string{"/Game/Abilities/GA_Fire", "/Game/Effects/GE_Cooldown", "/Game/Enums/E_Mood"}, st.Paths())

	ga := find(t, s, kind.GameplayAbility, "GA_Fire")
	assert.Equal(t, "Created successfully", ga.Message)
	assert.Equal(t, "Gameplay Abilities", ga.Category)

	a, ok, err := st.Lookup(testCtx(), "/Game/Abilities/GA_Fire")
	require.NoError(t, err)
	require.True(t, ok)
	md, ok := store.MetadataFor(a, nil)
	require.True(t, ok)
	assert.True(t, md.Generated)
	assert.Equal(t, "GameplayAbility/GA_Fire", md.RecordKey)
	assert.Equal(t, []string{"GameplayEffect/GE_Cooldown"}, md.Dependencies)
	assert.Equal(t, fixedNow(), md.Timestamp)
	v, _ := a.GetField("instancing_policy")
	assert.Equal(t, "InstancedPerActor", v, "defaults are written to the artifact")
}

func TestRun_SecondRunSkipsEverything(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	st := memstore.New()
	p := newPipeline(st, Options{})
	m := parse(t, basicManifest)
	run(t, p, m)
	saves := st.Saves()

	// --- Act ---
	s := run(t, p, m)

	// --- Assert ---
	assert.Equal(t, 3, s.Count(StatusSkipped), "enumerations use the side registry and skip too")
	assert.Equal(t, saves, st.Saves())
	for _, r := range s.Results {
		assert.Equal(t, "No changes", r.Message, r.Name)
	}
}

func TestRun_DefersUntilDependencyIsGenerated(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	m := parse(t, `
blackboards:
  - name: BB_Child
    parent: BB_Base
  - name: BB_Base
`)
	p := newPipeline(memstore.New(), Options{})

	// --- Act ---
	s := run(t, p, m)

	// --- Assert ---
	child := find(t, s, kind.Blackboard, "BB_Child")
	assert.Equal(t, StatusNew, child.Status)
	assert.Equal(t, 1, child.RetryCount)
	assert.Equal(t, 2, s.Count(StatusNew))
	assert.Zero(t, s.Count(StatusDeferred), "deferred is never a final status")
	assert.Equal(t, []string{"BB_Base", "BB_Child"}, s.Names(), "results follow completion order")
}

func TestRun_DependencyAlreadyInStore(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	st := memstore.New()
	a, err := st.Create(testCtx(), kind.GameplayEffect, "/Game/Effects/GE_Handmade")
	require.NoError(t, err)
	require.NoError(t, st.Save(testCtx(), a))
	p := newPipeline(st, Options{})

	// --- Act ---
	s := run(t, p, parse(t, `
gameplay_abilities:
  - name: GA_Dash
    cooldown_effect: GE_Handmade
`))

	// --- Assert ---
	r := find(t, s, kind.GameplayAbility, "GA_Dash")
	assert.Equal(t, StatusNew, r.Status)
	assert.Zero(t, r.RetryCount)
}

func TestRun_RetryPassesAreCapped(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Each pass can only resolve the next link of the chain.
	m := parse(t, `
actor_blueprints:
  - name: BP_A
    parent_class: BP_B
  - name: BP_B
    parent_class: BP_C
  - name: BP_C
    parent_class: BP_D
  - name: BP_D
    parent_class: BP_E
  - name: BP_E
    parent_class: Actor
`)
	p := newPipeline(memstore.New(), Options{MaxRetryPasses: 2})

	// --- Act ---
	s := run(t, p, m)

	// --- Assert ---
	for _, name := range []string{"BP_C", "BP_D", "BP_E"} {
		assert.Equal(t, StatusNew, find(t, s, kind.ActorBlueprint, name).Status, name)
	}
	for _, name := range []string{"BP_A", "BP_B"} {
		r := find(t, s, kind.ActorBlueprint, name)
		assert.Equal(t, StatusFailed, r.Status, name)
		assert.Equal(t, []string{diag.CodeDependencyUnresolved}, codes(r.Errors), name)
		assert.Equal(t, 2, r.RetryCount, name)
	}
	assert.Equal(t, "BP_B", find(t, s, kind.ActorBlueprint, "BP_A").MissingDependency)
}

func TestRun_StallEndsRetryEarly(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	p := newPipeline(memstore.New(), Options{MaxRetryPasses: 10})

	// --- Act ---
	s := run(t, p, parse(t, `
gameplay_abilities:
  - name: GA_Orphan
    cooldown_effect: GE_NeverDeclared
`))

	// --- Assert ---
	r := find(t, s, kind.GameplayAbility, "GA_Orphan")
	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, 1, r.RetryCount, "a pass without progress stops the loop")
	assert.Equal(t, "GE_NeverDeclared", r.MissingDependency)
	assert.Equal(t, kind.GameplayEffect, r.MissingDependencyKind)
	assert.Contains(t, r.Errors[0].SuggestedFix, "GE_NeverDeclared")
}

func TestRun_ManifestChangeModifies(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	st := memstore.New()
	p := newPipeline(st, Options{})
	run(t, p, parse(t, basicManifest))

	// --- Act ---
	s := run(t, p, parse(t, `
gameplay_effects:
  - name: GE_Cooldown
    duration_policy: Infinite
`))

	// --- Assert ---
	r := find(t, s, kind.GameplayEffect, "GE_Cooldown")
	assert.Equal(t, StatusNew, r.Status)
	assert.Equal(t, "Modified", r.Message)
	assert.Equal(t, changedetect.Modify, r.Decision.Action)

	a, _, err := st.Lookup(testCtx(), r.Path)
	require.NoError(t, err)
	v, _ := a.GetField("duration_magnitude")
	assert.Empty(t, v, "fields no longer produced are cleared")
}

func TestRun_ConflictSkipsUnlessForced(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	st := memstore.New()
	run(t, newPipeline(st, Options{}), parse(t, basicManifest))
	require.NoError(t, st.Edit("/Game/Effects/GE_Cooldown", func(a store.Artifact) {
		a.SetField("duration_magnitude", "99")
	}))
	changed := parse(t, `
gameplay_effects:
  - name: GE_Cooldown
    duration_policy: HasDuration
    duration_magnitude: 3
`)

	// --- Act ---
	plain := run(t, newPipeline(st, Options{}), changed)
	forced := run(t, newPipeline(st, Options{Force: true}), changed)

	// --- Assert ---
	r := find(t, plain, kind.GameplayEffect, "GE_Cooldown")
	assert.Equal(t, StatusSkipped, r.Status)
	assert.True(t, r.Conflicted())
	assert.Equal(t, "Use --force to override or resolve manually", r.Errors[0].SuggestedFix)
	assert.Contains(t, r.Message, "Manifest and asset both changed")
	assert.Len(t, plain.Conflicts(), 1)
	assert.Empty(t, plain.Failed(), "a conflict is not a failure")

	r = find(t, forced, kind.GameplayEffect, "GE_Cooldown")
	assert.Equal(t, StatusNew, r.Status)
	assert.Equal(t, "Conflict overridden by force", r.Message)
	assert.True(t, r.Conflicted(), "forcing lifts the block but still reports the conflict")
	require.Len(t, forced.Conflicts(), 1)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, diag.CodeConflict, r.Errors[0].Code)
	assert.True(t, r.Errors[0].IsWarning())
	assert.Empty(t, forced.Failed())
	a, _, err := st.Lookup(testCtx(), r.Path)
	require.NoError(t, err)
	v, _ := a.GetField("duration_magnitude")
	assert.Equal(t, "3", v)
}

func TestRun_ManualEditWithoutManifestChangeIsPreserved(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	st := memstore.New()
	m := parse(t, basicManifest)
	run(t, newPipeline(st, Options{}), m)
	require.NoError(t, st.Edit("/Game/Abilities/GA_Fire", func(a store.Artifact) {
		a.SetField("tooltip", "hand written")
	}))

	// --- Act ---
	s := run(t, newPipeline(st, Options{}), m)

	// --- Assert ---
	r := find(t, s, kind.GameplayAbility, "GA_Fire")
	assert.Equal(t, StatusSkipped, r.Status)
	assert.Equal(t, "Asset edited manually, edit preserved", r.Message)
}

func TestRun_ManualAssetIsNeverOverwritten(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	st := memstore.New()
	a, err := st.Create(testCtx(), kind.GameplayEffect, "/Game/Effects/GE_Cooldown")
	require.NoError(t, err)
	a.SetField("duration_policy", "Instant")
	require.NoError(t, st.Save(testCtx(), a))
	saves := st.Saves()

	// --- Act ---
	s := run(t, newPipeline(st, Options{Force: true}), parse(t, basicManifest))

	// --- Assert ---
	r := find(t, s, kind.GameplayEffect, "GE_Cooldown")
	assert.Equal(t, StatusSkipped, r.Status)
	assert.Contains(t, r.Message, "manual asset")
	assert.Equal(t, saves+2, st.Saves(), "only the other two records are written")
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	st := memstore.New()
	m := parse(t, `
blackboards:
  - name: BB_Child
    parent: BB_Base
  - name: BB_Base
`)

	// --- Act ---
	s := run(t, newPipeline(st, Options{DryRun: true}), m)

	// --- Assert ---
	assert.Zero(t, st.Saves())
	assert.True(t, s.DryRun)
	require.NotNil(t, s.Plan)
	assert.Equal(t, 2, s.Plan.Count(changedetect.Create))
	assert.Equal(t, 2, s.Count(StatusNew), "dependents of planned records still resolve")
}

func TestRun_UnknownFunctionFailsInsteadOfDeferring(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The error text says "not found" but only a missing record defers.
	m := parse(t, `
gameplay_abilities:
  - name: GA_Cast
    event_graph:
      nodes:
        - id: Start
          type: Event
          properties:
            event_name: ActivateAbility
        - id: Call
          type: CallFunction
          properties:
            function: NotARealFunction
      connections:
        - from: [Start, Then]
          to: [Call, Exec]
`)

	// --- Act ---
	s := run(t, newPipeline(memstore.New(), Options{}), m)

	// --- Assert ---
	r := find(t, s, kind.GameplayAbility, "GA_Cast")
	assert.Equal(t, StatusFailed, r.Status)
	assert.Zero(t, r.RetryCount)
	assert.Contains(t, codes(r.Errors), diag.CodeFunctionNotFound)
}

func TestRun_EventGraphReferences(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	m := parse(t, `
event_graphs:
  - name: EG_Door
    nodes:
      - id: BeginPlay
        type: Event
        properties:
          event_name: ReceiveBeginPlay
      - id: Print
        type: CallFunction
        properties:
          function: PrintString
    connections:
      - from: [BeginPlay, Then]
        to: [Print, Exec]
actor_blueprints:
  - name: BP_Door
    event_graph: EG_Door
  - name: BP_Gate
    event_graph: EG_Missing
`)
	st := memstore.New()

	// --- Act ---
	s := run(t, newPipeline(st, Options{}), m)

	// --- Assert ---
	door := find(t, s, kind.ActorBlueprint, "BP_Door")
	require.Equal(t, StatusNew, door.Status, "%v", door.Errors)
	a, _, err := st.Lookup(testCtx(), door.Path)
	require.NoError(t, err)
	nodes, _ := a.GetField("event_graph.nodes")
	assert.Equal(t, "2", nodes)
	edges, _ := a.GetField("event_graph.edges")
	assert.Equal(t, "BeginPlay.Then->Print.Exec", edges)

	gate := find(t, s, kind.ActorBlueprint, "BP_Gate")
	assert.Equal(t, StatusFailed, gate.Status)
	assert.Equal(t, []string{diag.CodeEventGraphNotFound}, codes(gate.Errors))
}

func TestRun_ValidationFailures(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		manifest string
		kind     kind.Kind
		record   string
		want     string
	}{
		{
			name:     "unknown parent class",
			manifest: "actor_blueprints:\n  - name: BP_Odd\n    parent_class: NoSuchClass\n",
			kind:     kind.ActorBlueprint, record: "BP_Odd",
			want: diag.CodeParentClassNotFound,
		},
		{
			name:     "bad duration policy",
			manifest: "gameplay_effects:\n  - name: GE_Bad\n    duration_policy: Sometimes\n",
			kind:     kind.GameplayEffect, record: "GE_Bad",
			want: diag.CodeInvalidValue,
		},
		{
			name:     "duration without magnitude",
			manifest: "gameplay_effects:\n  - name: GE_Short\n    duration_policy: HasDuration\n",
			kind:     kind.GameplayEffect, record: "GE_Short",
			want: diag.CodeMissingRequiredField,
		},
		{
			name:     "enum without values",
			manifest: "enumerations:\n  - name: E_Empty\n",
			kind:     kind.Enumeration, record: "E_Empty",
			want: diag.CodeMissingRequiredField,
		},
		{
			name: "dangling dialogue reply",
			manifest: `
dialogue_blueprints:
  - name: DBP_Guard
    dialogue_nodes:
      - id: Hello
        type: npc
        text: Halt
        replies: Leave
`,
			kind: kind.DialogueBlueprint, record: "DBP_Guard",
			want: diag.CodeDanglingReply,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := run(t, newPipeline(memstore.New(), Options{}), parse(t, tc.manifest))

			r := find(t, s, tc.kind, tc.record)
			assert.Equal(t, StatusFailed, r.Status)
			assert.Contains(t, codes(r.Errors), tc.want)
		})
	}
}

func TestRun_WarningsDoNotFail(t *testing.T) {
	t.Parallel()

	s := run(t, newPipeline(memstore.New(), Options{}), parse(t, `
dialogue_blueprints:
  - name: DBP_Shop
    dialogue_nodes:
      - id: Greet
        text: Welcome
        replies: END
      - id: Unused
        text: Never said
`))

	r := find(t, s, kind.DialogueBlueprint, "DBP_Shop")
	assert.Equal(t, StatusNew, r.Status)
	assert.Equal(t, []string{diag.CodeOrphanNode}, codes(r.Errors))
}

func TestRun_HonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(testCtx())
	cancel()

	_, err := newPipeline(memstore.New(), Options{}).Run(ctx, parse(t, basicManifest))

	assert.ErrorIs(t, err, context.Canceled)
}
