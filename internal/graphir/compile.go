package graphir

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/gasgen/internal/diag"
	"github.com/specialistvlad/gasgen/internal/registry"
)

// ConnectionStatus is the outcome of resolving one declared connection.
type ConnectionStatus int

const (
	// Connected means both pins resolved and are compatible.
	Connected ConnectionStatus = iota
	// SkippedExpected means an exec pin was wired into a pure node. Pure
	// nodes have no exec input, so the link is dropped without being an error.
	SkippedExpected
	// Failed means the connection could not be resolved.
	Failed
)

func (s ConnectionStatus) String() string {
	switch s {
	case Connected:
		return "connected"
	case SkippedExpected:
		return "skipped"
	default:
		return "failed"
	}
}

// ConnectionResult records how a declared connection was resolved.
type ConnectionResult struct {
	Index  int
	Decl   ConnectionDecl
	Status ConnectionStatus
	Reason string
}

// Node is a compiled node with its resolved pins and, after Layout, its
// placement.
type Node struct {
	ID         string
	Type       string
	Pure       bool
	Properties map[string]string
	Pins       []registry.Pin
	Declared   NodeDecl

	Layer int
	Order int
	X, Y  float64
}

// Pin finds a pin on the node, preferring one with the wanted direction.
func (n *Node) Pin(name string, want registry.PinDirection) (registry.Pin, bool) {
	var fallback *registry.Pin
	for i := range n.Pins {
		p := n.Pins[i]
		if !p.Matches(name) {
			continue
		}
		if p.Direction == want {
			return p, true
		}
		if fallback == nil {
			fallback = &n.Pins[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return registry.Pin{}, false
}

// Edge is a resolved link between two pins.
type Edge struct {
	From PinRef
	To   PinRef
	Exec bool
}

// Graph is a fully resolved node graph.
type Graph struct {
	Name        string
	Nodes       map[string]*Node
	Order       []string
	Edges       []Edge
	Connections []ConnectionResult
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}

// CountByStatus returns how many connections ended in each status.
func (g *Graph) CountByStatus() map[ConnectionStatus]int {
	out := make(map[ConnectionStatus]int)
	for _, c := range g.Connections {
		out[c.Status]++
	}
	return out
}

// Compile resolves decl against reg. On any validation error it returns a nil
// graph and a diag.List describing every problem found.
func Compile(decl *Decl, reg *registry.Registry) (*Graph, error) {
	if decl == nil {
		return nil, errors.New("graphir: nil declaration")
	}

	var errs diag.List
	g := &Graph{
		Name:  decl.Name,
		Nodes: make(map[string]*Node, len(decl.Nodes)),
	}
	broken := make(map[string]bool)

	for _, nd := range decl.Nodes {
		path := "nodes/" + nd.ID
		if nd.ID == "" {
			errs = append(errs, diag.New(diag.CodeInvalidValue, fmt.Sprintf("nodes[line %d]", nd.Line),
				"Give every node a unique 'id'", "node has no id"))
			continue
		}
		if _, dup := g.Nodes[nd.ID]; dup {
			errs = append(errs, diag.New(diag.CodeDuplicateNodeID, path,
				"Rename one of the nodes so every id is unique", "node id %q is declared more than once", nd.ID))
			continue
		}

		node := &Node{ID: nd.ID, Type: nd.Type, Properties: nd.Properties, Declared: nd}
		g.Nodes[nd.ID] = node
		g.Order = append(g.Order, nd.ID)

		nt, pins, err := reg.PinsFor(nd.Type, nd.Properties)
		if err != nil {
			broken[nd.ID] = true
			errs = append(errs, nodeError(path, err))
			continue
		}
		node.Pure = nt.Pure || !hasExecPin(pins)
		node.Pins = pins
	}

	for i, cd := range decl.Connections {
		res, e := resolveConnection(g, broken, i, cd)
		g.Connections = append(g.Connections, res)
		if e != nil {
			errs = append(errs, e)
		}
		if res.Status == Connected {
			g.Edges = append(g.Edges, Edge{From: cd.From, To: cd.To, Exec: isExec(g, cd.From)})
		}
	}

	if errs.HasErrors() {
		return nil, errs
	}
	return g, nil
}

// hasExecPin reports whether any pin carries control flow. A call to a pure
// function has none and is treated like a pure node.
func hasExecPin(pins []registry.Pin) bool {
	for _, p := range pins {
		if p.Type == registry.Exec {
			return true
		}
	}
	return false
}

func isExec(g *Graph, ref PinRef) bool {
	p, ok := g.Nodes[ref.NodeID].Pin(ref.Pin, registry.Output)
	return ok && p.Type == registry.Exec
}

func nodeError(path string, err error) *diag.Error {
	var unknownType *registry.UnknownNodeTypeError
	var unknownFn *registry.UnknownFunctionError
	switch {
	case errors.As(err, &unknownType):
		return diag.New(diag.CodeUnknownNodeType, path,
			"Use one of the registered node types", "%v", err)
	case errors.As(err, &unknownFn):
		return diag.New(diag.CodeFunctionNotFound, path,
			"Check the function name or declare it in the registry definitions", "%v", err)
	default:
		return diag.New(diag.CodeInvalidValue, path, "Fix the node properties", "%v", err)
	}
}

func resolveConnection(g *Graph, broken map[string]bool, i int, cd ConnectionDecl) (ConnectionResult, *diag.Error) {
	path := fmt.Sprintf("connections[%d]", i)
	res := ConnectionResult{Index: i, Decl: cd, Status: Failed}

	fail := func(code, fix, format string, args ...any) (ConnectionResult, *diag.Error) {
		e := diag.New(code, path, fix, format, args...)
		res.Reason = e.Message
		return res, e
	}

	from, ok := g.Nodes[cd.From.NodeID]
	if !ok {
		return fail(diag.CodeUnknownNode, "Declare the node or fix the connection's 'from' id",
			"source node %q does not exist", cd.From.NodeID)
	}
	to, ok := g.Nodes[cd.To.NodeID]
	if !ok {
		return fail(diag.CodeUnknownNode, "Declare the node or fix the connection's 'to' id",
			"target node %q does not exist", cd.To.NodeID)
	}
	if broken[from.ID] || broken[to.ID] {
		// The node itself is already reported; don't pile on.
		res.Reason = "endpoint node failed to resolve"
		return res, nil
	}

	fromPin, ok := from.Pin(cd.From.Pin, registry.Output)
	if !ok {
		return fail(diag.CodeUnknownPin, "Check the pin name against the node type",
			"pin %q not found on node %q (%s)", cd.From.Pin, from.ID, from.Type)
	}

	if fromPin.Type == registry.Exec && to.Pure {
		res.Status = SkippedExpected
		res.Reason = fmt.Sprintf("exec pin %s wired into pure node %q", cd.From, to.ID)
		return res, nil
	}

	toPin, ok := to.Pin(cd.To.Pin, registry.Input)
	if !ok {
		return fail(diag.CodeUnknownPin, "Check the pin name against the node type",
			"pin %q not found on node %q (%s)", cd.To.Pin, to.ID, to.Type)
	}

	if fromPin.Direction != registry.Output || toPin.Direction != registry.Input {
		return fail(diag.CodePinDirection, "Connections run from an output pin to an input pin",
			"cannot connect %s (%s) to %s (%s)", cd.From, fromPin.Direction, cd.To, toPin.Direction)
	}
	if fromPin.Type != toPin.Type {
		return fail(diag.CodePinTypeMismatch, "Connect exec pins to exec pins and data pins to data pins",
			"cannot connect %s pin %s to %s pin %s", fromPin.Type, cd.From, toPin.Type, cd.To)
	}

	res.Status = Connected
	return res, nil
}
