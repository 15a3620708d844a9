package registry

import (
	"sort"
	"strings"
)

// PinDirection is the side of a node a pin sits on.
type PinDirection int

const (
	Input PinDirection = iota
	Output
)

func (d PinDirection) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// PinType separates control-flow pins from data pins.
type PinType int

const (
	Exec PinType = iota
	Data
)

func (t PinType) String() string {
	if t == Exec {
		return "exec"
	}
	return "data"
}

// Pin is a named connection point on a node.
type Pin struct {
	Name      string
	Direction PinDirection
	Type      PinType
	Aliases   []string
}

// Matches reports whether name refers to this pin, either directly or through
// one of its aliases. Comparison ignores case, spaces and underscores.
func (p Pin) Matches(name string) bool {
	n := NormalizePinName(name)
	if NormalizePinName(p.Name) == n {
		return true
	}
	for _, a := range p.Aliases {
		if NormalizePinName(a) == n {
			return true
		}
	}
	return false
}

// NormalizePinName folds a pin name into the form used for comparisons.
func NormalizePinName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "", "_", "").Replace(name)
}

// PinFunc computes the pins of a node instance from its property bag. The
// function is given the registry so call nodes can look up signatures.
type PinFunc func(r *Registry, props map[string]string) ([]Pin, error)

// NodeType describes one kind of graph node.
type NodeType struct {
	Name string
	// Pure nodes have no side effects and therefore no exec pins.
	Pure bool
	Pins PinFunc
}

// Function is a callable target for CallFunction nodes.
type Function struct {
	Name    string
	Owner   string
	Pure    bool
	Params  []string
	Returns []string
}

type initState int

const (
	stateUninitialized initState = iota
	stateInitializing
	stateReady
)

// Registry holds node types, functions and known parent classes.
type Registry struct {
	state initState

	nodeTypes map[string]*NodeType
	functions map[string]*Function
	classes   map[string]struct{}

	// pending holds builder-supplied entries until the first lookup merges
	// them over the well-known tables.
	pending *Builder
}

func (r *Registry) ensureInit() {
	switch r.state {
	case stateReady:
		return
	case stateInitializing:
		panic("registry: re-entrant initialization")
	}
	r.state = stateInitializing

	r.nodeTypes = make(map[string]*NodeType)
	r.functions = make(map[string]*Function)
	r.classes = make(map[string]struct{})

	registerWellKnown(r)
	if r.pending != nil {
		for _, nt := range r.pending.nodeTypes {
			r.nodeTypes[strings.ToLower(nt.Name)] = nt
		}
		for _, fn := range r.pending.functions {
			r.functions[strings.ToLower(fn.Name)] = fn
		}
		for _, c := range r.pending.classes {
			r.classes[strings.ToLower(c)] = struct{}{}
		}
		r.pending = nil
	}
	r.state = stateReady
}

// Initialized reports whether the lazy tables have been materialized.
func (r *Registry) Initialized() bool { return r.state == stateReady }

// NodeType looks up a node type by name, case-insensitively.
func (r *Registry) NodeType(name string) (*NodeType, bool) {
	r.ensureInit()
	nt, ok := r.nodeTypes[strings.ToLower(name)]
	return nt, ok
}

// Function looks up a callable function by name, case-insensitively. A
// leading "K2_" is tolerated in either the query or the registered name.
func (r *Registry) Function(name string) (*Function, bool) {
	r.ensureInit()
	key := strings.ToLower(name)
	if fn, ok := r.functions[key]; ok {
		return fn, true
	}
	if strings.HasPrefix(key, "k2_") {
		fn, ok := r.functions[strings.TrimPrefix(key, "k2_")]
		return fn, ok
	}
	fn, ok := r.functions["k2_"+key]
	return fn, ok
}

// HasFunction reports whether Function would find name.
func (r *Registry) HasFunction(name string) bool {
	_, ok := r.Function(name)
	return ok
}

// HasClass reports whether name is a known parent class.
func (r *Registry) HasClass(name string) bool {
	r.ensureInit()
	_, ok := r.classes[strings.ToLower(name)]
	return ok
}

// PinsFor returns the resolved pin set for a node of the given type.
func (r *Registry) PinsFor(typeName string, props map[string]string) (*NodeType, []Pin, error) {
	nt, ok := r.NodeType(typeName)
	if !ok {
		return nil, nil, &UnknownNodeTypeError{Type: typeName}
	}
	pins, err := nt.Pins(r, props)
	if err != nil {
		return nt, nil, err
	}
	return nt, pins, nil
}

// NodeTypeNames returns every registered node type name, sorted.
func (r *Registry) NodeTypeNames() []string {
	r.ensureInit()
	names := make([]string, 0, len(r.nodeTypes))
	for _, nt := range r.nodeTypes {
		names = append(names, nt.Name)
	}
	sort.Strings(names)
	return names
}

// UnknownNodeTypeError is returned when a node type is not registered.
type UnknownNodeTypeError struct {
	Type string
}

func (e *UnknownNodeTypeError) Error() string {
	return "unknown node type '" + e.Type + "'"
}

// UnknownFunctionError is returned when a call node names an unknown function.
type UnknownFunctionError struct {
	Function string
}

func (e *UnknownFunctionError) Error() string {
	return "function '" + e.Function + "' not found"
}
