package manifest

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/specialistvlad/gasgen/internal/ctxlog"
	"github.com/specialistvlad/gasgen/internal/graphir"
	"github.com/specialistvlad/gasgen/internal/kind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func mustParse(t *testing.T, text string) *Model {
	t.Helper()
	m, err := Parse(testCtx(), text)
	require.NoError(t, err)
	return m
}

func names(records []*Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

// Sub-section items written at the same indent as their "variables:" key
// must not be mistaken for new records.
func TestParse_SubItemsAtSubSectionIndent(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	text := `
gameplay_abilities:
  - name: GA_Fire
    parent_class: NarrativeGameplayAbility
    variables:
    - name: Speed
      type: Float
      default: 5
    - name: Range
      type: Float
  - name: GA_Ice
    parent_class: GameplayAbility
`

	// --- Act ---
	m := mustParse(t, text)

	// --- Assert ---
	abilities := m.Records(kind.GameplayAbility)
	require.Equal(t, []string{"GA_Fire", "GA_Ice"}, names(abilities))

	vars := abilities[0].ObjectList("variables")
	require.Len(t, vars, 2)
	assert.Equal(t, "Speed", vars[0].Get("name"))
	assert.Equal(t, "5", vars[0].Get("default_value"), "default is an alias of default_value")
	assert.Equal(t, "Range", vars[1].Get("name"))
	assert.Equal(t, "NarrativeGameplayAbility", abilities[0].Scalar("parent_class"))
	assert.Empty(t, abilities[1].ObjectList("variables"))
}

func TestParse_CompactItemsAtHeaderIndent(t *testing.T) {
	t.Parallel()

	m := mustParse(t, `
blackboards:
- name: BB_Guard
  keys:
  - name: Target
    type: Object
- name: BB_Civilian
`)

	bbs := m.Records(kind.Blackboard)
	require.Equal(t, []string{"BB_Guard", "BB_Civilian"}, names(bbs))
	require.Len(t, bbs[0].ObjectList("keys"), 1)
	assert.Equal(t, "Object", bbs[0].ObjectList("keys")[0].Get("type"))
}

func TestParse_SwitchingSubSectionFlushesPendingObject(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	text := `
gameplay_abilities:
  - name: GA_Dash
    variables:
      - name: Distance
        type: Float
    tags:
      ability_tags:
        - Ability.Dash
      activation_blocked_tags: [State.Stunned, State.Dead]
    cooldown_gameplay_effect_class: GE_DashCooldown
    event_graph:
      nodes:
        - id: Start
          type: Event
          properties:
            event_name: ActivateAbility
        - id: Print
          type: CallFunction
          position: [300, 0]
          properties:
            function: PrintString
            parameters:
              InString: "Dashing"
      connections:
        - from: [Start, Then]
          to: [Print, Exec]
`

	// --- Act ---
	m := mustParse(t, text)

	// --- Assert ---
	ga, ok := m.Lookup(kind.GameplayAbility, "GA_Dash")
	require.True(t, ok)

	require.Len(t, ga.ObjectList("variables"), 1, "variable flushed when tags: opened")
	assert.Equal(t, []string{"Ability.Dash"}, ga.Group("tags", "ability_tags"))
	assert.Equal(t, []string{"State.Stunned", "State.Dead"}, ga.Group("tags", "activation_blocked_tags"))
	assert.Equal(t, "GE_DashCooldown", ga.Scalar("cooldown_effect"))

	require.NotNil(t, ga.Graph)
	require.Len(t, ga.Graph.Nodes, 2)
	start, print := ga.Graph.Nodes[0], ga.Graph.Nodes[1]
	assert.Equal(t, "Start", start.ID)
	assert.Equal(t, "ActivateAbility", start.Properties["event_name"])
	assert.False(t, start.HasPosition)

	assert.Equal(t, "CallFunction", print.Type)
	assert.True(t, print.HasPosition)
	assert.Equal(t, 300.0, print.X)
	assert.Equal(t, "PrintString", print.Properties["function"])
	assert.Equal(t, "Dashing", print.Properties["param.InString"], "parameters are flattened")

	require.Len(t, ga.Graph.Connections, 1)
	assert.Equal(t, graphir.PinRef{NodeID: "Start", Pin: "Then"}, ga.Graph.Connections[0].From)
	assert.Equal(t, graphir.PinRef{NodeID: "Print", Pin: "Exec"}, ga.Graph.Connections[0].To)
}

// Every way a record can end must flush the pending nested object.
func TestParse_AllRecordExitsFlush(t *testing.T) {
	t.Parallel()

	body := `
gameplay_effects:
  - name: GE_Burn
    modifiers:
      - attribute: Health
        operation: Add
        magnitude: -5
`
	testCases := []struct {
		name string
		text string
	}{
		{name: "end of input", text: body},
		{name: "next item", text: body + "  - name: GE_Other\n"},
		{name: "section end", text: body + "project_root: /Game/Test\n"},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := mustParse(t, tc.text)

			ge, ok := m.Lookup(kind.GameplayEffect, "GE_Burn")
			require.True(t, ok)
			mods := ge.ObjectList("modifiers")
			require.Len(t, mods, 1)
			assert.Equal(t, "-5", mods[0].Get("magnitude"))
		})
	}
}

func TestParse_SectionEndReturnsToTopLevel(t *testing.T) {
	t.Parallel()

	m := mustParse(t, `
gameplay_effects:
  - name: GE_Burn
    duration_policy: Instant
project_root: /Game/Generated
tags_ini_path: Config/Tags.ini
version: 3
`)

	assert.Equal(t, "/Game/Generated", m.ProjectRoot)
	assert.Equal(t, "Config/Tags.ini", m.TagsIniPath)
	assert.Equal(t, "3", m.Scalars["version"])
	assert.Equal(t, 1, m.Count())
}

func TestParse_DropsRecordsWithWrongPrefix(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	// --- Act ---
	m, err := Parse(ctx, `
gameplay_abilities:
  - name: Fireball
  - name: GA_Fireball
`)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"GA_Fireball"}, names(m.Records(kind.GameplayAbility)))
	assert.Contains(t, logs.String(), "Dropped record with unexpected name prefix")
	assert.Contains(t, logs.String(), "name=Fireball")
}

func TestParse_SuffixAliases(t *testing.T) {
	t.Parallel()

	m := mustParse(t, `
combat_gameplay_effects:
  - name: GE_Slash
npc_tags:
  - Faction.Bandit
quest_goals:
  - name: Goal_Patrol
guard_bt_services:
  - name: BTS_Scan
`)

	assert.Equal(t, []string{"GE_Slash"}, names(m.Records(kind.GameplayEffect)))
	assert.Equal(t, []string{"Faction.Bandit"}, m.Tags)
	assert.Equal(t, []string{"Goal_Patrol", "BTS_Scan"}, names(m.Records(kind.ActorBlueprint)))
}

func TestLookupSection(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		key     string
		want    sectionTarget
		wantErr bool
	}{
		{key: "gameplay_abilities", want: sectionTarget{kind: kind.GameplayAbility}},
		{key: "Widgets", want: sectionTarget{kind: kind.WidgetBlueprint}},
		{key: "tags", want: sectionTarget{special: specialTags}},
		{key: "event_graphs", want: sectionTarget{special: specialEventGraphs}},
		{key: "boss_gameplay_abilities", want: sectionTarget{kind: kind.GameplayAbility}},
		{key: "merchant_goal_generators", want: sectionTarget{kind: kind.ActorBlueprint}},
		{key: "quest_tagged_dialogue_sets", want: sectionTarget{kind: kind.TaggedDialogueSet}},
		{key: "_tags", wantErr: true},
		{key: "inventory", wantErr: true},
	}
	for _, tc := range testCases {
		got, ok := lookupSection(tc.key)
		if tc.wantErr {
			assert.False(t, ok, tc.key)
			continue
		}
		require.True(t, ok, tc.key)
		assert.Equal(t, tc.want, got, tc.key)
	}
}

func TestParse_UnknownSectionIsSkipped(t *testing.T) {
	t.Parallel()

	m := mustParse(t, `
inventory:
  - name: GE_NotReally
    count: 3
gameplay_effects:
  - name: GE_Real
`)

	assert.Equal(t, []string{"GE_Real"}, names(m.All()))
}

func TestParse_Tags(t *testing.T) {
	t.Parallel()

	m := mustParse(t, `
tags:
  - tag: Ability.Fire
  - path: "Ability.Ice"
  - State.Burning
  - 'State.Burning'
    # nested comment
`)

	assert.Equal(t, []string{"Ability.Fire", "Ability.Ice", "State.Burning"}, m.Tags)
}

func TestParse_EventGraphsSection(t *testing.T) {
	t.Parallel()

	m := mustParse(t, `
event_graphs:
  - name: EG_Door
    description: Opens the door
    nodes:
      - id: BeginPlay
        type: Event
      - id: Open
        type: CallFunction
        function: SetActorHiddenInGame
    connections:
      - from: BeginPlay.Then
        to: Open.Exec
actor_blueprints:
  - name: BP_Door
    parent_class: Actor
    event_graph: EG_Door
`)

	graph, ok := m.EventGraph("EG_Door")
	require.True(t, ok)
	assert.Equal(t, "EG_Door", graph.Name)
	require.Len(t, graph.Nodes, 2)
	assert.Equal(t, "SetActorHiddenInGame", graph.Nodes[1].Properties["function"], "node-level keys are properties too")
	require.Len(t, graph.Connections, 1)
	assert.Equal(t, "Open.Exec", graph.Connections[0].To.String())

	bp, ok := m.Lookup(kind.ActorBlueprint, "BP_Door")
	require.True(t, ok)
	assert.Equal(t, "EG_Door", bp.Scalar("event_graph"))
	assert.Nil(t, bp.Graph)
}

func TestParse_ObjectListFieldsAndPairs(t *testing.T) {
	t.Parallel()

	m := mustParse(t, `
tagged_dialogue_sets:
  - name: Barks_Guard
    dialogues:
      - tag: Narrative.Bark.Alert
        dialogue: DBP_GuardAlert
        cooldown: 30
        required_tags: State.Alert, State.Armed
        blocked_tags: [State.Dead]
float_curves:
  - name: FC_Damage
    keys:
      - [0, 1.0]
      - [10, 2.5]
ability_configurations:
  - name: AC_Guard
    abilities: [GA_Fire, GA_Ice]
activity_configurations:
  - name: ActConfig_Guard
    default_activity: BPA_Patrol
    activities:
      - BPA_Patrol
      - BPA_Idle
`)

	tds, ok := m.Lookup(kind.TaggedDialogueSet, "Barks_Guard")
	require.True(t, ok)
	d := tds.ObjectList("dialogues")
	require.Len(t, d, 1)
	assert.Equal(t, "DBP_GuardAlert", d[0].Get("dialogue_class"))
	assert.Equal(t, []string{"State.Alert", "State.Armed"}, d[0].List("required_tags"))
	assert.Equal(t, []string{"State.Dead"}, d[0].List("blocked_tags"))

	fc, ok := m.Lookup(kind.FloatCurve, "FC_Damage")
	require.True(t, ok)
	keys := fc.ObjectList("keys")
	require.Len(t, keys, 2)
	assert.Equal(t, "10", keys[1].Get("time"))
	assert.Equal(t, "2.5", keys[1].Get("value"))

	ac, _ := m.Lookup(kind.AbilityConfiguration, "AC_Guard")
	assert.Equal(t, []string{"GA_Fire", "GA_Ice"}, ac.List("abilities"))

	actc, _ := m.Lookup(kind.ActivityConfiguration, "ActConfig_Guard")
	assert.Equal(t, []string{"BPA_Patrol", "BPA_Idle"}, actc.List("activities"))
	assert.Equal(t, "BPA_Patrol", actc.Scalar("default_activity"))
}

func TestParse_DuplicatesAndCollisions(t *testing.T) {
	t.Parallel()

	m := mustParse(t, `
actor_blueprints:
  - name: BPA_Patrol
    parent_class: Actor
  - name: BPA_Patrol
    parent_class: Character
activities:
  - name: BPA_Patrol
`)

	bp, ok := m.Lookup(kind.ActorBlueprint, "BPA_Patrol")
	require.True(t, ok)
	assert.Equal(t, "Actor", bp.Scalar("parent_class"), "first declaration wins")

	require.Len(t, m.Duplicates, 1)
	assert.Equal(t, Duplicate{Kind: kind.ActorBlueprint, Name: "BPA_Patrol", Line: 5, FirstLine: 3}, m.Duplicates[0])

	assert.Equal(t, map[string][]kind.Kind{"BPA_Patrol": {kind.ActorBlueprint, kind.Activity}}, m.CrossKindCollisions())
	assert.Equal(t, []string{"BPA_Patrol"}, m.ExpectedNames())
	assert.Equal(t, []string{"Activity/BPA_Patrol", "ActorBlueprint/BPA_Patrol"}, m.ExpectedKeys())
	assert.Len(t, m.FindByName("BPA_Patrol"), 2)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		text     string
		wantLine int
	}{
		{
			name:     "item outside any section",
			text:     "- name: GA_Stray\n",
			wantLine: 1,
		},
		{
			name:     "non numeric position",
			text:     "gameplay_abilities:\n  - name: GA_X\n    event_graph:\n      nodes:\n        - id: A\n          position: [left, 0]\n",
			wantLine: 6,
		},
		{
			name:     "malformed pin reference",
			text:     "gameplay_abilities:\n  - name: GA_X\n    event_graph:\n      connections:\n        - from: A\n",
			wantLine: 5,
		},
		{
			name:     "node without id",
			text:     "gameplay_abilities:\n  - name: GA_X\n    event_graph:\n      nodes:\n        - type: Event\n",
			wantLine: 5,
		},
		{
			name:     "unterminated inline list",
			text:     "ability_configurations:\n  - name: AC_X\n    abilities: [GA_A, GA_B\n",
			wantLine: 3,
		},
		{
			name:     "malformed curve key",
			text:     "float_curves:\n  - name: FC_X\n    keys:\n      - [0]\n",
			wantLine: 4,
		},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(testCtx(), tc.text)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tc.wantLine, perr.Line)
		})
	}
}

func TestRecord_CloneIsDeep(t *testing.T) {
	t.Parallel()

	m := mustParse(t, `
dialogue_blueprints:
  - name: DBP_Intro
    dialogue_nodes:
      - id: Root
        replies: Yes;No
`)
	orig, _ := m.Lookup(kind.DialogueBlueprint, "DBP_Intro")

	c := orig.Clone()
	c.Objects["dialogue_nodes"][0].Lists["replies"][0] = "Changed"
	c.Scalars["parent_class"] = "Dialogue"

	assert.Equal(t, []string{"Yes", "No"}, orig.ObjectList("dialogue_nodes")[0].List("replies"))
	assert.Empty(t, orig.Scalar("parent_class"))
}

func TestModel_Replace(t *testing.T) {
	t.Parallel()

	m := mustParse(t, "dialogue_blueprints:\n  - name: DBP_A\n  - name: DBP_B\n")

	r, _ := m.Lookup(kind.DialogueBlueprint, "DBP_A")
	updated := r.Clone()
	updated.Source = "dialogue-table"

	require.NoError(t, m.Replace(updated))
	got, _ := m.Lookup(kind.DialogueBlueprint, "DBP_A")
	assert.Equal(t, "dialogue-table", got.Source)
	assert.Equal(t, []string{"DBP_A", "DBP_B"}, names(m.Records(kind.DialogueBlueprint)))

	assert.Error(t, m.Replace(NewRecord(kind.DialogueBlueprint, "DBP_Missing", 0)))
}
