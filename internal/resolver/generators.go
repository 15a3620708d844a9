package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/specialistvlad/gasgen/internal/diag"
	"github.com/specialistvlad/gasgen/internal/graphir"
	"github.com/specialistvlad/gasgen/internal/kind"
)

// generators is the kind to generator dispatch table. Every kind has one.
var generators = map[kind.Kind]Generator{
	kind.Enumeration:           genEnumeration,
	kind.FloatCurve:            genFloatCurve,
	kind.InputAction:           genInputAction,
	kind.InputMappingContext:   genInputMappingContext,
	kind.GameplayEffect:        genGameplayEffect,
	kind.ActorBlueprint:        genActorBlueprint,
	kind.GameplayAbility:       genGameplayAbility,
	kind.WidgetBlueprint:       genWidgetBlueprint,
	kind.Blackboard:            genBlackboard,
	kind.BehaviorTree:          genBehaviorTree,
	kind.Material:              genMaterial,
	kind.MaterialFunction:      genMaterialFunction,
	kind.TaggedDialogueSet:     genTaggedDialogueSet,
	kind.AnimationMontage:      genAnimationMontage,
	kind.AnimationNotify:       genAnimationNotify,
	kind.DialogueBlueprint:     genDialogueBlueprint,
	kind.EquippableItem:        genEquippableItem,
	kind.Activity:              genActivity,
	kind.AbilityConfiguration:  genAbilityConfiguration,
	kind.ActivityConfiguration: genActivityConfiguration,
	kind.ItemCollection:        genItemCollection,
	kind.NarrativeEvent:        genNarrativeEvent,
	kind.NPCDefinition:         genNPCDefinition,
	kind.CharacterDefinition:   genCharacterDefinition,
	kind.NiagaraSystem:         genNiagaraSystem,
}

func init() {
	for _, k := range kind.Ordered() {
		if _, ok := generators[k]; !ok {
			panic(fmt.Sprintf("resolver: no generator for kind %s", k))
		}
	}
}

func genEnumeration(gc *genContext) error {
	values := gc.rec.List("values")
	if len(values) == 0 {
		gc.missing(gc.path("values"), "enum values")
	}
	seen := map[string]bool{}
	for _, v := range values {
		if seen[v] {
			gc.invalid("values", "value %q is listed twice", v)
		}
		seen[v] = true
	}
	gc.set("value_count", strconv.Itoa(len(values)))
	return nil
}

func genFloatCurve(gc *genContext) error {
	keys := gc.rec.ObjectList("keys")
	last := 0.0
	for i, k := range keys {
		t := gc.numeric(gc.path(fmt.Sprintf("keys[%d]", i)), k.Get("time"))
		if i > 0 && t < last {
			gc.invalid("keys", "key %d at time %g is earlier than the previous key", i, t)
		}
		last = t
	}
	return nil
}

func genInputAction(gc *genContext) error {
	gc.oneOf("value_type", "Boolean", "Boolean", "Axis1D", "Axis2D", "Axis3D")
	return nil
}

func genInputMappingContext(gc *genContext) error {
	for i, b := range gc.rec.ObjectList("bindings") {
		path := gc.path(fmt.Sprintf("bindings[%d]", i))
		action := b.Get("action")
		if action == "" {
			gc.missing(path, "binding action")
			continue
		}
		if b.Get("key") == "" {
			gc.missing(path, "binding key")
		}
		if err := gc.require("bindings.action", kind.InputAction, action); err != nil {
			return err
		}
	}
	return nil
}

func genGameplayEffect(gc *genContext) error {
	policy := gc.oneOf("duration_policy", "Instant", "Instant", "HasDuration", "Infinite")
	if policy == "HasDuration" {
		if gc.rec.Scalar("duration_magnitude") == "" {
			gc.required("duration_magnitude")
		} else {
			gc.number("duration_magnitude", "")
		}
	}
	gc.number("period", "")
	for i, m := range gc.rec.ObjectList("modifiers") {
		path := gc.path(fmt.Sprintf("modifiers[%d]", i))
		if m.Get("attribute") == "" {
			gc.missing(path, "modifier attribute")
		}
		gc.numeric(path, firstOf(m.Get("magnitude"), m.Get("magnitude_value")))
		if op := m.Get("operation"); op == "" {
			gc.set(fmt.Sprintf("modifiers[%d].operation", i), "Additive")
		}
	}
	return nil
}

func genActorBlueprint(gc *genContext) error {
	if err := gc.requireParent("Actor"); err != nil {
		return err
	}
	variables(gc)
	for i, c := range gc.rec.ObjectList("components") {
		if c.Get("name") == "" || c.Get("type") == "" {
			gc.missing(gc.path(fmt.Sprintf("components[%d]", i)), "component name or type")
		}
	}
	gc.eventGraph()
	return nil
}

func genGameplayAbility(gc *genContext) error {
	if err := gc.requireParent("GameplayAbility"); err != nil {
		return err
	}
	gc.oneOf("instancing_policy", "InstancedPerActor", "InstancedPerActor", "InstancedPerExecution", "NonInstanced")
	gc.oneOf("net_execution_policy", "LocalPredicted", "LocalPredicted", "LocalOnly", "ServerInitiated", "ServerOnly")
	if err := gc.require("cooldown_effect", kind.GameplayEffect, gc.rec.Scalar("cooldown_effect")); err != nil {
		return err
	}
	if err := gc.require("cost_effect", kind.GameplayEffect, gc.rec.Scalar("cost_effect")); err != nil {
		return err
	}
	variables(gc)
	gc.eventGraph()
	return nil
}

func genWidgetBlueprint(gc *genContext) error {
	if err := gc.requireParent("UserWidget"); err != nil {
		return err
	}
	variables(gc)
	gc.eventGraph()
	return nil
}

func genBlackboard(gc *genContext) error {
	if err := gc.require("parent", kind.Blackboard, gc.rec.Scalar("parent")); err != nil {
		return err
	}
	seen := map[string]bool{}
	for i, k := range gc.rec.ObjectList("keys") {
		name := k.Get("name")
		if name == "" {
			gc.missing(gc.path(fmt.Sprintf("keys[%d]", i)), "key name")
			continue
		}
		if seen[name] {
			gc.invalid("keys", "key %q is declared twice", name)
		}
		seen[name] = true
		if k.Get("type") == "" {
			gc.set(fmt.Sprintf("keys[%d].type", i), "Object")
		}
	}
	return nil
}

func genBehaviorTree(gc *genContext) error {
	return gc.require("blackboard", kind.Blackboard, gc.rec.Scalar("blackboard"))
}

func genMaterial(gc *genContext) error {
	gc.oneOf("blend_mode", "Opaque", "Opaque", "Masked", "Translucent", "Additive", "Modulate")
	gc.oneOf("shading_model", "DefaultLit", "DefaultLit", "Unlit", "Subsurface", "ClearCoat")
	for i, e := range gc.rec.ObjectList("expressions") {
		if e.Get("id") == "" && e.Get("name") == "" {
			gc.missing(gc.path(fmt.Sprintf("expressions[%d]", i)), "expression id")
		}
		if err := gc.require("expressions.function", kind.MaterialFunction, e.Get("function")); err != nil {
			return err
		}
	}
	return nil
}

func genMaterialFunction(gc *genContext) error {
	if len(gc.rec.ObjectList("outputs")) == 0 {
		gc.warn(diag.CodeMissingRequiredField, gc.path("outputs"), "material function declares no outputs")
	}
	gc.value("expose_to_library", "true")
	for _, e := range gc.rec.ObjectList("expressions") {
		if e.Get("function") == gc.rec.Name {
			gc.invalid("expressions", "material function %s calls itself", gc.rec.Name)
			continue
		}
		if err := gc.require("expressions.function", kind.MaterialFunction, e.Get("function")); err != nil {
			return err
		}
	}
	return nil
}

func genTaggedDialogueSet(gc *genContext) error {
	entries := gc.rec.ObjectList("dialogues")
	if len(entries) == 0 {
		gc.missing(gc.path("dialogues"), "dialogue entries")
	}
	for i, d := range entries {
		path := gc.path(fmt.Sprintf("dialogues[%d]", i))
		if d.Get("tag") == "" {
			gc.missing(path, "dialogue tag")
		}
		gc.numeric(path, d.Get("cooldown"))
		gc.numeric(path, d.Get("max_distance"))
		if err := gc.require("dialogues.dialogue_class", kind.DialogueBlueprint, d.Get("dialogue_class")); err != nil {
			return err
		}
	}
	return nil
}

func genAnimationMontage(gc *genContext) error {
	gc.required("skeleton")
	if len(gc.rec.List("sections")) == 0 {
		gc.set("sections", "Default")
	}
	return nil
}

func genAnimationNotify(gc *genContext) error {
	gc.value("notify_class", "AnimNotifyState")
	return nil
}

func genDialogueBlueprint(gc *genContext) error {
	if err := gc.requireParent("Dialogue"); err != nil {
		return err
	}
	variables(gc)

	if nodes := gc.rec.ObjectList("dialogue_nodes"); len(nodes) > 0 {
		tree := &graphir.DialogueTree{Name: gc.rec.Name, Root: gc.rec.Scalar("root")}
		for _, n := range nodes {
			tree.Nodes = append(tree.Nodes, graphir.DialogueNode{
				ID:         n.Get("id"),
				Type:       strings.ToUpper(firstOf(n.Get("type"), "NPC")),
				Speaker:    n.Get("speaker"),
				Text:       n.Get("text"),
				OptionText: n.Get("option_text"),
				Replies:    n.List("replies"),
				Conditions: strings.Join(n.List("conditions"), ";"),
				Events:     strings.Join(n.List("events"), ";"),
			})
		}
		if tree.Root == "" {
			tree.Root = tree.Nodes[0].ID
			gc.set("root", tree.Root)
		}
		gc.errs = append(gc.errs, diag.Prefix(gc.path("dialogue_nodes"), graphir.CheckDialogue(tree))...)
	}
	gc.eventGraph()
	return nil
}

func genEquippableItem(gc *genContext) error {
	if err := gc.requireParent("EquippableItem"); err != nil {
		return err
	}
	if err := gc.require("equipment_modifier_ge", kind.GameplayEffect, gc.rec.Scalar("equipment_modifier_ge")); err != nil {
		return err
	}
	return gc.requireAll("abilities_to_grant", kind.GameplayAbility, gc.rec.List("abilities_to_grant"))
}

func genActivity(gc *genContext) error {
	if err := gc.requireParent("NarrativeActivityBase"); err != nil {
		return err
	}
	return gc.require("behavior_tree", kind.BehaviorTree, gc.rec.Scalar("behavior_tree"))
}

func genAbilityConfiguration(gc *genContext) error {
	if len(gc.rec.List("abilities")) == 0 {
		gc.warn(diag.CodeMissingRequiredField, gc.path("abilities"), "ability configuration grants no abilities")
	}
	return gc.requireAll("abilities", kind.GameplayAbility, gc.rec.List("abilities"))
}

func genActivityConfiguration(gc *genContext) error {
	activities := gc.rec.List("activities")
	if err := gc.requireAll("activities", kind.Activity, activities); err != nil {
		return err
	}
	def := gc.rec.Scalar("default_activity")
	if def != "" && !contains(activities, def) {
		gc.warn(diag.CodeInvalidValue, gc.path("default_activity"), "default activity %q is not in activities", def)
	}
	if err := gc.require("default_activity", kind.Activity, def); err != nil {
		return err
	}
	return gc.requireAll("request_goal_generators", kind.ActorBlueprint, gc.rec.List("request_goal_generators"))
}

func genItemCollection(gc *genContext) error {
	for i, it := range gc.rec.ObjectList("items") {
		name := firstOf(it.Get("item"), it.Get("value"))
		if name == "" {
			gc.missing(gc.path(fmt.Sprintf("items[%d]", i)), "item")
			continue
		}
		q := firstOf(it.Get("quantity"), "1")
		gc.set(fmt.Sprintf("items[%d].quantity", i), q)
		gc.numeric(gc.path(fmt.Sprintf("items[%d]", i)), q)
		if err := gc.require("items.item", kind.EquippableItem, name); err != nil {
			return err
		}
	}
	return nil
}

func genNarrativeEvent(gc *genContext) error {
	return gc.requireParent("NarrativeEvent")
}

func genNPCDefinition(gc *genContext) error {
	gc.value("npc_id", gc.rec.Name)
	gc.value("npc_name", strings.TrimPrefix(gc.rec.Name, "NPCDef_"))
	if err := gc.require("ability_configuration", kind.AbilityConfiguration, gc.rec.Scalar("ability_configuration")); err != nil {
		return err
	}
	if err := gc.require("activity_configuration", kind.ActivityConfiguration, gc.rec.Scalar("activity_configuration")); err != nil {
		return err
	}
	if err := gc.require("npc_blueprint", kind.ActorBlueprint, gc.rec.Scalar("npc_blueprint")); err != nil {
		return err
	}
	if err := gc.require("dialogue", kind.DialogueBlueprint, gc.rec.Scalar("dialogue")); err != nil {
		return err
	}
	if err := gc.require("tagged_dialogue_set", kind.TaggedDialogueSet, gc.rec.Scalar("tagged_dialogue_set")); err != nil {
		return err
	}
	return gc.requireAll("default_item_loadout", kind.ItemCollection, gc.rec.List("default_item_loadout"))
}

func genCharacterDefinition(gc *genContext) error {
	gc.number("default_currency", "0")
	return gc.require("ability_configuration", kind.AbilityConfiguration, gc.rec.Scalar("ability_configuration"))
}

func genNiagaraSystem(gc *genContext) error {
	if gc.rec.Scalar("template_system") == "" && len(gc.rec.List("emitters")) == 0 {
		gc.warn(diag.CodeMissingRequiredField, gc.path("emitters"), "system has neither a template nor emitters")
	}
	gc.number("warmup_time", "0")
	return nil
}

// variables validates an object list of blueprint variables.
func variables(gc *genContext) {
	seen := map[string]bool{}
	for i, v := range gc.rec.ObjectList("variables") {
		path := gc.path(fmt.Sprintf("variables[%d]", i))
		name := v.Get("name")
		if name == "" {
			gc.missing(path, "variable name")
			continue
		}
		if seen[name] {
			gc.invalid("variables", "variable %q is declared twice", name)
		}
		seen[name] = true
		if v.Get("type") == "" {
			gc.missing(path, "variable type")
		}
	}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
