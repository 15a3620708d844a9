package registry

import (
	"fmt"
	"log/slog"
	"strings"
)

// Builder collects extra node types, functions and classes before a Registry
// is built. Registering the same name twice is a programmer error and panics.
type Builder struct {
	nodeTypes []*NodeType
	functions []*Function
	classes   []string
	seen      map[string]struct{}
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

func (b *Builder) claim(kind, name string) {
	key := kind + ":" + strings.ToLower(name)
	if _, exists := b.seen[key]; exists {
		panic(fmt.Sprintf("%s with name '%s' already registered", kind, name))
	}
	b.seen[key] = struct{}{}
}

// RegisterNodeType adds a node type. It overrides a well-known type of the
// same name.
func (b *Builder) RegisterNodeType(nt *NodeType) *Builder {
	b.claim("node type", nt.Name)
	slog.Debug("Registering node type.", "name", nt.Name)
	b.nodeTypes = append(b.nodeTypes, nt)
	return b
}

// RegisterFunction adds a callable function.
func (b *Builder) RegisterFunction(fn *Function) *Builder {
	b.claim("function", fn.Name)
	slog.Debug("Registering function.", "name", fn.Name, "owner", fn.Owner)
	b.functions = append(b.functions, fn)
	return b
}

// RegisterClass adds a known parent class name.
func (b *Builder) RegisterClass(name string) *Builder {
	b.claim("class", name)
	b.classes = append(b.classes, name)
	return b
}

// Build returns a Registry whose tables are materialized on first use.
func (b *Builder) Build() *Registry {
	return &Registry{state: stateUninitialized, pending: b}
}
