package manifest

import (
	"sort"
	"strings"

	"github.com/specialistvlad/gasgen/internal/kind"
)

// Shape is the layout of a sub-section inside a record.
type Shape int

const (
	// ShapeList is a list of scalar items ("- value").
	ShapeList Shape = iota + 1
	// ShapeObjects is a list of small objects ("- name: x" plus fields).
	ShapeObjects
	// ShapeGroup is a block of named lists ("ability_tags:" then items).
	ShapeGroup
	// ShapeGraph is an inline node graph with nodes: and connections:.
	ShapeGraph
	// ShapePairs is a list of numeric pairs ("- [0.0, 1.0]").
	ShapePairs

	// The remaining shapes only occur inside graphs.
	shapeNodes
	shapeConnections
	shapeProperties
	shapeParameters
)

var shapeNames = map[Shape]string{
	ShapeList:        "list",
	ShapeObjects:     "objects",
	ShapeGroup:       "group",
	ShapeGraph:       "graph",
	ShapePairs:       "pairs",
	shapeNodes:       "nodes",
	shapeConnections: "connections",
	shapeProperties:  "properties",
	shapeParameters:  "parameters",
}

func (s Shape) String() string {
	if n, ok := shapeNames[s]; ok {
		return n
	}
	return "unknown"
}

// Grammar describes the sub-sections a record of one kind may contain.
type Grammar struct {
	Kind kind.Kind
	// Sections maps a sub-section key to its shape. Keys not listed here
	// are scalars when they carry a value and plain lists when they open a
	// block.
	Sections map[string]Shape
	// ObjectLists names object fields that hold a comma or semicolon
	// separated list rather than a scalar.
	ObjectLists map[string]bool
	// Aliases rewrites field keys to their canonical spelling.
	Aliases map[string]string
}

func (g *Grammar) shapeOf(key string) (Shape, bool) {
	s, ok := g.Sections[key]
	return s, ok
}

func (g *Grammar) canonical(key string) string {
	key = strings.ToLower(key)
	if a, ok := g.Aliases[key]; ok {
		return a
	}
	return key
}

func set(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

var variableLists = set("replies", "conditions", "events")

// grammars is the kind to grammar table. Every kind has an entry.
var grammars = map[kind.Kind]*Grammar{
	kind.Enumeration: {Sections: map[string]Shape{"values": ShapeList}},
	kind.FloatCurve:  {Sections: map[string]Shape{"keys": ShapePairs}},
	kind.InputAction: {},
	kind.InputMappingContext: {
		Sections:    map[string]Shape{"bindings": ShapeObjects, "mappings": ShapeObjects},
		ObjectLists: set("modifiers", "triggers"),
		Aliases:     map[string]string{"mappings": "bindings"},
	},
	kind.GameplayEffect: {
		Sections: map[string]Shape{
			"modifiers":                         ShapeObjects,
			"components":                        ShapeObjects,
			"granted_tags":                      ShapeList,
			"remove_gameplay_effects_with_tags": ShapeList,
			"executions":                        ShapeList,
			"setbycaller_tags":                  ShapeList,
		},
	},
	kind.ActorBlueprint: {
		Sections: map[string]Shape{
			"variables":   ShapeObjects,
			"components":  ShapeObjects,
			"event_graph": ShapeGraph,
		},
		Aliases: map[string]string{"default": "default_value"},
	},
	kind.GameplayAbility: {
		Sections: map[string]Shape{
			"tags":        ShapeGroup,
			"variables":   ShapeObjects,
			"event_graph": ShapeGraph,
		},
		Aliases: map[string]string{
			"cooldown_gameplay_effect_class": "cooldown_effect",
			"cooldown":                       "cooldown_effect",
			"default":                        "default_value",
		},
	},
	kind.WidgetBlueprint: {
		Sections: map[string]Shape{"variables": ShapeObjects, "event_graph": ShapeGraph},
		Aliases:  map[string]string{"default": "default_value"},
	},
	kind.Blackboard: {Sections: map[string]Shape{"keys": ShapeObjects}},
	kind.BehaviorTree: {
		Aliases: map[string]string{"blackboard_asset": "blackboard"},
	},
	kind.Material: {
		Sections: map[string]Shape{"expressions": ShapeObjects, "connections": ShapeObjects, "parameters": ShapeObjects},
	},
	kind.MaterialFunction: {
		Sections: map[string]Shape{
			"inputs": ShapeObjects, "outputs": ShapeObjects,
			"expressions": ShapeObjects, "connections": ShapeObjects,
		},
	},
	kind.TaggedDialogueSet: {
		Sections:    map[string]Shape{"dialogues": ShapeObjects},
		ObjectLists: set("required_tags", "blocked_tags"),
		Aliases:     map[string]string{"dialogue": "dialogue_class"},
	},
	kind.AnimationMontage: {Sections: map[string]Shape{"sections": ShapeList}},
	kind.AnimationNotify:  {},
	kind.DialogueBlueprint: {
		Sections: map[string]Shape{
			"variables":      ShapeObjects,
			"dialogue_nodes": ShapeObjects,
			"event_graph":    ShapeGraph,
		},
		ObjectLists: variableLists,
		Aliases:     map[string]string{"default": "default_value"},
	},
	kind.EquippableItem: {
		Sections: map[string]Shape{"abilities_to_grant": ShapeList},
		Aliases:  map[string]string{"equipment_effect": "equipment_modifier_ge"},
	},
	kind.Activity:             {},
	kind.AbilityConfiguration: {Sections: map[string]Shape{"abilities": ShapeList}},
	kind.ActivityConfiguration: {
		Sections: map[string]Shape{"activities": ShapeList, "request_goal_generators": ShapeList},
	},
	kind.ItemCollection:      {Sections: map[string]Shape{"items": ShapeObjects}},
	kind.NarrativeEvent:      {},
	kind.NPCDefinition:       {Sections: map[string]Shape{"default_item_loadout": ShapeList, "default_factions": ShapeList}},
	kind.CharacterDefinition: {Sections: map[string]Shape{"default_owned_tags": ShapeList, "default_factions": ShapeList}},
	kind.NiagaraSystem:       {Sections: map[string]Shape{"emitters": ShapeList, "user_parameters": ShapeObjects}},
}

func init() {
	for k, g := range grammars {
		g.Kind = k
	}
}

// GrammarFor returns the grammar of a kind, or nil for kinds without one.
func GrammarFor(k kind.Kind) *Grammar { return grammars[k] }

// sectionTarget is what a section header dispatches to.
type sectionTarget struct {
	kind    kind.Kind
	special string // "tags" or "event_graphs" when kind is Unknown
}

const (
	specialTags        = "tags"
	specialEventGraphs = "event_graphs"
)

var sectionNames = map[string]sectionTarget{
	"tags":                    {special: specialTags},
	"event_graphs":            {special: specialEventGraphs},
	"enumerations":            {kind: kind.Enumeration},
	"enums":                   {kind: kind.Enumeration},
	"float_curves":            {kind: kind.FloatCurve},
	"input_actions":           {kind: kind.InputAction},
	"input_mapping_contexts":  {kind: kind.InputMappingContext},
	"gameplay_effects":        {kind: kind.GameplayEffect},
	"gameplay_abilities":      {kind: kind.GameplayAbility},
	"actor_blueprints":        {kind: kind.ActorBlueprint},
	"blueprints":              {kind: kind.ActorBlueprint},
	"widget_blueprints":       {kind: kind.WidgetBlueprint},
	"widgets":                 {kind: kind.WidgetBlueprint},
	"blackboards":             {kind: kind.Blackboard},
	"behavior_trees":          {kind: kind.BehaviorTree},
	"materials":               {kind: kind.Material},
	"material_functions":      {kind: kind.MaterialFunction},
	"tagged_dialogue_sets":    {kind: kind.TaggedDialogueSet},
	"animation_montages":      {kind: kind.AnimationMontage},
	"animation_notifies":      {kind: kind.AnimationNotify},
	"dialogue_blueprints":     {kind: kind.DialogueBlueprint},
	"equippable_items":        {kind: kind.EquippableItem},
	"activities":              {kind: kind.Activity},
	"ability_configurations":  {kind: kind.AbilityConfiguration},
	"activity_configurations": {kind: kind.ActivityConfiguration},
	"item_collections":        {kind: kind.ItemCollection},
	"narrative_events":        {kind: kind.NarrativeEvent},
	"npc_definitions":         {kind: kind.NPCDefinition},
	"character_definitions":   {kind: kind.CharacterDefinition},
	"niagara_systems":         {kind: kind.NiagaraSystem},
}

type suffixAlias struct {
	suffix string
	target sectionTarget
}

// suffixAliases lets teams split a section into named groups, such as
// "combat_gameplay_effects:". Longer suffixes are tried first.
var suffixAliases = func() []suffixAlias {
	list := []suffixAlias{
		{"_tags", sectionTarget{special: specialTags}},
		{"_gameplay_effects", sectionTarget{kind: kind.GameplayEffect}},
		{"_gameplay_abilities", sectionTarget{kind: kind.GameplayAbility}},
		{"_actor_blueprints", sectionTarget{kind: kind.ActorBlueprint}},
		{"_goals", sectionTarget{kind: kind.ActorBlueprint}},
		{"_goal_generators", sectionTarget{kind: kind.ActorBlueprint}},
		{"_bt_services", sectionTarget{kind: kind.ActorBlueprint}},
		{"_blackboards", sectionTarget{kind: kind.Blackboard}},
		{"_behavior_trees", sectionTarget{kind: kind.BehaviorTree}},
		{"_activities", sectionTarget{kind: kind.Activity}},
		{"_ability_configurations", sectionTarget{kind: kind.AbilityConfiguration}},
		{"_activity_configurations", sectionTarget{kind: kind.ActivityConfiguration}},
		{"_npc_definitions", sectionTarget{kind: kind.NPCDefinition}},
		{"_materials", sectionTarget{kind: kind.Material}},
		{"_tagged_dialogue_sets", sectionTarget{kind: kind.TaggedDialogueSet}},
	}
	sort.SliceStable(list, func(i, j int) bool { return len(list[i].suffix) > len(list[j].suffix) })
	return list
}()

// lookupSection resolves a header key to its target. Exact names win over
// suffix aliases.
func lookupSection(key string) (sectionTarget, bool) {
	key = strings.ToLower(key)
	if t, ok := sectionNames[key]; ok {
		return t, true
	}
	for _, a := range suffixAliases {
		if strings.HasSuffix(key, a.suffix) && len(key) > len(a.suffix) {
			return a.target, true
		}
	}
	return sectionTarget{}, false
}
