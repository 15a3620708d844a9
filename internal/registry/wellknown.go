package registry

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

func execIn() Pin  { return Pin{Name: "Exec", Direction: Input, Type: Exec, Aliases: []string{"execute", "in"}} }
func execOut() Pin { return Pin{Name: "Then", Direction: Output, Type: Exec, Aliases: []string{"out"}} }

func dataIn(name string, aliases ...string) Pin {
	return Pin{Name: name, Direction: Input, Type: Data, Aliases: aliases}
}

func dataOut(name string, aliases ...string) Pin {
	return Pin{Name: name, Direction: Output, Type: Data, Aliases: aliases}
}

func static(pins ...Pin) PinFunc {
	return func(*Registry, map[string]string) ([]Pin, error) { return pins, nil }
}

// paramPins turns flattened "param.<key>" properties into input pins.
func paramPins(props map[string]string, existing []Pin) []Pin {
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []Pin
	for _, key := range keys {
		name, ok := strings.CutPrefix(key, "param.")
		if !ok || name == "" {
			continue
		}
		dup := false
		for _, p := range existing {
			if p.Matches(name) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, dataIn(name))
		}
	}
	return out
}

func callFunctionPins(r *Registry, props map[string]string) ([]Pin, error) {
	name := props["function"]
	if name == "" {
		return nil, fmt.Errorf("call node requires a 'function' property")
	}
	fn, ok := r.Function(name)
	if !ok {
		return nil, &UnknownFunctionError{Function: name}
	}
	var pins []Pin
	if !fn.Pure {
		pins = append(pins, execIn(), execOut())
	}
	pins = append(pins, dataIn("Target", "self"))
	for _, p := range fn.Params {
		pins = append(pins, dataIn(p))
	}
	for _, ret := range fn.Returns {
		pins = append(pins, dataOut(ret))
	}
	pins = append(pins, paramPins(props, pins)...)
	return pins, nil
}

func sequencePins(_ *Registry, props map[string]string) ([]Pin, error) {
	n := 2
	if v := props["outputs"]; v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("sequence 'outputs' must be a positive integer, got %q", v)
		}
		n = parsed
	}
	pins := []Pin{execIn()}
	for i := 0; i < n; i++ {
		pins = append(pins, Pin{Name: fmt.Sprintf("Then%d", i), Direction: Output, Type: Exec})
	}
	return pins, nil
}

func variableGetPins(_ *Registry, props map[string]string) ([]Pin, error) {
	v := props["variable_name"]
	if v == "" {
		return []Pin{dataOut("Value")}, nil
	}
	return []Pin{dataOut(v, "Value")}, nil
}

func variableSetPins(_ *Registry, props map[string]string) ([]Pin, error) {
	v := props["variable_name"]
	in := dataIn("Value")
	if v != "" {
		in = dataIn(v, "Value")
	}
	return []Pin{execIn(), execOut(), in, dataOut("Output")}, nil
}

func castPins(_ *Registry, props map[string]string) ([]Pin, error) {
	pins := []Pin{
		execIn(),
		{Name: "Then", Direction: Output, Type: Exec, Aliases: []string{"out", "CastSucceeded"}},
		{Name: "CastFailed", Direction: Output, Type: Exec},
		dataIn("Object"),
	}
	if target := props["target_class"]; target != "" {
		pins = append(pins, dataOut("As"+target, "AsTarget"))
	} else {
		pins = append(pins, dataOut("AsTarget"))
	}
	return pins, nil
}

func propertyGetPins(_ *Registry, props map[string]string) ([]Pin, error) {
	out := dataOut("Value")
	if p := props["property_name"]; p != "" {
		out = dataOut(p, "Value")
	}
	return []Pin{dataIn("Target", "self"), out}, nil
}

func propertySetPins(_ *Registry, props map[string]string) ([]Pin, error) {
	in := dataIn("Value")
	if p := props["property_name"]; p != "" {
		in = dataIn(p, "Value")
	}
	return []Pin{execIn(), execOut(), dataIn("Target", "self"), in}, nil
}

func registerWellKnown(r *Registry) {
	types := []*NodeType{
		{Name: "Event", Pins: static(execOut())},
		{Name: "CustomEvent", Pins: static(execOut())},
		{Name: "CallFunction", Pins: callFunctionPins},
		{Name: "Branch", Pins: static(
			execIn(),
			dataIn("Condition"),
			Pin{Name: "True", Direction: Output, Type: Exec, Aliases: []string{"then"}},
			Pin{Name: "False", Direction: Output, Type: Exec, Aliases: []string{"else"}},
		)},
		{Name: "Sequence", Pins: sequencePins},
		{Name: "VariableGet", Pure: true, Pins: variableGetPins},
		{Name: "VariableSet", Pins: variableSetPins},
		{Name: "PropertyGet", Pure: true, Pins: propertyGetPins},
		{Name: "PropertySet", Pins: propertySetPins},
		{Name: "Self", Pure: true, Pins: static(dataOut("Self", "Value"))},
		{Name: "Delay", Pins: static(
			execIn(),
			dataIn("Duration"),
			Pin{Name: "Completed", Direction: Output, Type: Exec, Aliases: []string{"then", "out"}},
		)},
		{Name: "DynamicCast", Pins: castPins},
		{Name: "SpawnActor", Pins: static(
			execIn(), execOut(),
			dataIn("Class"), dataIn("SpawnTransform"), dataIn("Owner"),
			dataOut("ReturnValue"),
		)},
		{Name: "ForEachLoop", Pins: static(
			execIn(),
			dataIn("Array"),
			Pin{Name: "LoopBody", Direction: Output, Type: Exec},
			dataOut("ArrayElement"),
			dataOut("ArrayIndex"),
			Pin{Name: "Completed", Direction: Output, Type: Exec},
		)},
		{Name: "FunctionResult", Pins: static(execIn(), dataIn("ReturnValue"))},
	}
	for _, nt := range types {
		r.nodeTypes[strings.ToLower(nt.Name)] = nt
	}

	functions := []*Function{
		{Name: "PrintString", Owner: "KismetSystemLibrary", Params: []string{"InString", "bPrintToScreen", "Duration"}},
		{Name: "K2_EndAbility", Owner: "GameplayAbility"},
		{Name: "K2_CommitAbility", Owner: "GameplayAbility", Returns: []string{"ReturnValue"}},
		{Name: "K2_CommitAbilityCooldown", Owner: "GameplayAbility", Returns: []string{"ReturnValue"}},
		{Name: "GetAvatarActorFromActorInfo", Owner: "GameplayAbility", Pure: true, Returns: []string{"ReturnValue"}},
		{Name: "GetOwningActorFromActorInfo", Owner: "GameplayAbility", Pure: true, Returns: []string{"ReturnValue"}},
		{Name: "BP_ApplyGameplayEffectToOwner", Owner: "GameplayAbility", Params: []string{"GameplayEffectClass", "GameplayEffectLevel", "Stacks"}, Returns: []string{"ReturnValue"}},
		{Name: "BP_ApplyGameplayEffectToTarget", Owner: "GameplayAbility", Params: []string{"TargetData", "GameplayEffectClass", "GameplayEffectLevel", "Stacks"}, Returns: []string{"ReturnValue"}},
		{Name: "MakeOutgoingGameplayEffectSpec", Owner: "GameplayAbility", Pure: true, Params: []string{"GameplayEffectClass", "Level"}, Returns: []string{"ReturnValue"}},
		{Name: "GetActorLocation", Owner: "Actor", Pure: true, Returns: []string{"ReturnValue"}},
		{Name: "K2_SetActorLocation", Owner: "Actor", Params: []string{"NewLocation", "bSweep", "bTeleport"}, Returns: []string{"ReturnValue"}},
		{Name: "SetActorHiddenInGame", Owner: "Actor", Params: []string{"bNewHidden"}},
		{Name: "K2_DestroyActor", Owner: "Actor"},
		{Name: "IsValid", Owner: "KismetSystemLibrary", Pure: true, Params: []string{"Object"}, Returns: []string{"ReturnValue"}},
		{Name: "Add_DoubleDouble", Owner: "KismetMathLibrary", Pure: true, Params: []string{"A", "B"}, Returns: []string{"ReturnValue"}},
		{Name: "Multiply_DoubleDouble", Owner: "KismetMathLibrary", Pure: true, Params: []string{"A", "B"}, Returns: []string{"ReturnValue"}},
		{Name: "AddToViewport", Owner: "UserWidget", Params: []string{"ZOrder"}},
		{Name: "RemoveFromParent", Owner: "Widget"},
		{Name: "PlayAnimMontage", Owner: "Character", Params: []string{"AnimMontage", "InPlayRate", "StartSectionName"}, Returns: []string{"ReturnValue"}},
	}
	for _, fn := range functions {
		r.functions[strings.ToLower(fn.Name)] = fn
	}

	for _, c := range []string{
		"Object", "Actor", "Pawn", "Character", "PlayerController", "ActorComponent",
		"GameplayAbility", "GameplayEffect", "UserWidget", "BlueprintFunctionLibrary",
		"NarrativeGameplayAbility", "NarrativeCharacter", "NarrativeNPCCharacter",
		"NarrativeActivityBase", "NPCActivity", "NarrativeEvent", "Dialogue",
		"EquippableItem", "WeaponItem", "NarrativeItem", "BTService_BlueprintBase",
		"NPCGoalItem", "NPCGoalGenerator", "AnimNotifyState",
	} {
		r.classes[strings.ToLower(c)] = struct{}{}
	}
}
