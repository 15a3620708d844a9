// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package kind defines the closed set of record kinds the generator knows
// about, together with the static tables hanging off each kind: the name
// prefixes a record must carry, the result category used for grouping, and
// the coarse phase ordering the resolver walks.
//
// Every other package branches on Kind values, never on the raw section or
// asset-type strings found in a manifest.
package kind

import "strings"

// Kind is the category a record belongs to.
type Kind int

const (
	Unknown Kind = iota
	Enumeration
	FloatCurve
	InputAction
	InputMappingContext
	GameplayEffect
	ActorBlueprint
	GameplayAbility
	WidgetBlueprint
	Blackboard
	BehaviorTree
	Material
	MaterialFunction
	TaggedDialogueSet
	AnimationMontage
	AnimationNotify
	DialogueBlueprint
	EquippableItem
	Activity
	AbilityConfiguration
	ActivityConfiguration
	ItemCollection
	NarrativeEvent
	NPCDefinition
	CharacterDefinition
	NiagaraSystem
)

type info struct {
	name     string
	prefixes []string
	category string
	folder   string
	phase    int
	// metadata reports whether the produced artifact can carry generator
	// metadata itself. Kinds without it use the side registry.
	metadata bool
}

var table = map[Kind]info{
	Enumeration:           {"Enumeration", []string{"E_"}, "Enumerations", "Enums", 1, false},
	FloatCurve:            {"FloatCurve", []string{"FC_"}, "Float Curves", "Curves", 1, false},
	InputAction:           {"InputAction", []string{"IA_"}, "Input Actions", "Input/Actions", 1, true},
	InputMappingContext:   {"InputMappingContext", []string{"IMC_"}, "Input Mapping Contexts", "Input", 1, true},
	GameplayEffect:        {"GameplayEffect", []string{"GE_"}, "Gameplay Effects", "Effects", 2, true},
	ActorBlueprint:        {"ActorBlueprint", []string{"BP_", "BTS_", "BPA_", "Goal_", "GoalGenerator_"}, "Actor Blueprints", "Blueprints", 3, true},
	GameplayAbility:       {"GameplayAbility", []string{"GA_"}, "Gameplay Abilities", "Abilities", 3, true},
	WidgetBlueprint:       {"WidgetBlueprint", []string{"WBP_"}, "Widget Blueprints", "UI", 3, true},
	Blackboard:            {"Blackboard", []string{"BB_"}, "Blackboards", "AI", 3, true},
	BehaviorTree:          {"BehaviorTree", []string{"BT_"}, "Behavior Trees", "AI", 3, true},
	Material:              {"Material", []string{"M_"}, "Materials", "Materials", 3, false},
	MaterialFunction:      {"MaterialFunction", []string{"MF_"}, "Material Functions", "Materials/Functions", 3, false},
	TaggedDialogueSet:     {"TaggedDialogueSet", nil, "Tagged Dialogue Sets", "Dialogue", 3, true},
	AnimationMontage:      {"AnimationMontage", []string{"AM_"}, "Animation Montages", "Animations", 3, true},
	AnimationNotify:       {"AnimationNotify", []string{"NAS_"}, "Animation Notifies", "Animations/Notifies", 3, true},
	DialogueBlueprint:     {"DialogueBlueprint", []string{"DBP_"}, "Dialogue Blueprints", "Dialogue", 3, true},
	EquippableItem:        {"EquippableItem", []string{"EI_"}, "Equippable Items", "Items", 4, true},
	Activity:              {"Activity", []string{"BPA_"}, "Activities", "AI/Activities", 4, true},
	AbilityConfiguration:  {"AbilityConfiguration", []string{"AC_"}, "Ability Configurations", "Configs", 4, true},
	ActivityConfiguration: {"ActivityConfiguration", []string{"ActConfig_"}, "Activity Configurations", "Configs", 4, true},
	ItemCollection:        {"ItemCollection", []string{"IC_"}, "Item Collections", "Items", 4, true},
	NarrativeEvent:        {"NarrativeEvent", []string{"NE_"}, "Narrative Events", "Events", 4, true},
	NPCDefinition:         {"NPCDefinition", []string{"NPCDef_"}, "NPC Definitions", "NPCs", 4, true},
	CharacterDefinition:   {"CharacterDefinition", []string{"CD_"}, "Character Definitions", "Characters", 4, true},
	NiagaraSystem:         {"NiagaraSystem", []string{"NS_"}, "Niagara Systems", "VFX", 4, false},
}

// order is the generation order. Kinds inside a phase keep the order listed
// here, which is also the order results are reported in.
var order = []Kind{
	Enumeration, FloatCurve, InputAction, InputMappingContext,
	GameplayEffect,
	ActorBlueprint, GameplayAbility, WidgetBlueprint, Blackboard, BehaviorTree,
	Material, MaterialFunction, TaggedDialogueSet, AnimationMontage, AnimationNotify,
	DialogueBlueprint,
	EquippableItem, Activity, AbilityConfiguration, ActivityConfiguration,
	ItemCollection, NarrativeEvent, NPCDefinition, CharacterDefinition, NiagaraSystem,
}

// Ordered returns every known kind in generation order.
func Ordered() []Kind {
	out := make([]Kind, len(order))
	copy(out, order)
	return out
}

// String returns the kind's canonical name.
func (k Kind) String() string {
	if i, ok := table[k]; ok {
		return i.name
	}
	return "Unknown"
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := table[k]
	return ok
}

// Phase is the coarse dependency tier of the kind, starting at 1.
func (k Kind) Phase() int { return table[k].phase }

// Category is the human-readable group used in results and reports.
func (k Kind) Category() string { return table[k].category }

// Folder is the default content folder for artifacts of this kind.
func (k Kind) Folder() string { return table[k].folder }

// CarriesMetadata reports whether artifacts of this kind hold their own
// generator metadata.
func (k Kind) CarriesMetadata() bool { return table[k].metadata }

// Prefixes returns the accepted name prefixes. An empty slice means any
// non-empty name is accepted.
func (k Kind) Prefixes() []string { return table[k].prefixes }

// HasValidName reports whether name satisfies the kind's prefix convention.
func (k Kind) HasValidName(name string) bool {
	if name == "" {
		return false
	}
	prefixes := table[k].prefixes
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Parse maps a canonical kind name back to its Kind.
func Parse(s string) (Kind, bool) {
	for k, i := range table {
		if strings.EqualFold(i.name, s) {
			return k, true
		}
	}
	return Unknown, false
}

// CategoryForName guesses the category of an asset from its name prefix. It is
// used for names that did not come from a parsed record, such as tags.
func CategoryForName(name string) string {
	best, bestLen := "", 0
	for _, k := range order {
		for _, p := range table[k].prefixes {
			if strings.HasPrefix(name, p) && len(p) > bestLen {
				best, bestLen = table[k].category, len(p)
			}
		}
	}
	if best == "" {
		return "Other"
	}
	return best
}
