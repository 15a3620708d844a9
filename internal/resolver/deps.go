package resolver

import (
	"fmt"

	"github.com/specialistvlad/gasgen/internal/kind"
)

// MissingDependencyError stops a generator when a referenced record is not
// available yet. It is the only error that defers a record.
type MissingDependencyError struct {
	Name  string
	Kind  kind.Kind
	Field string
}

func (e *MissingDependencyError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("missing dependency %s (%s)", e.Name, e.Kind)
	}
	return fmt.Sprintf("missing dependency %s (%s) referenced by %s", e.Name, e.Kind, e.Field)
}

// DependencyRef is one reference discovered while generating a record.
type DependencyRef struct {
	Name  string
	Kind  kind.Kind
	Field string
}

// parentKinds are the kinds a parent_class may name when it is declared in
// the manifest rather than known to the registry.
var parentKinds = []kind.Kind{
	kind.ActorBlueprint,
	kind.GameplayAbility,
	kind.WidgetBlueprint,
	kind.DialogueBlueprint,
	kind.Activity,
}
