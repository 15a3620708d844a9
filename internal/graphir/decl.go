package graphir

import "fmt"

// PinRef names one end of a connection.
type PinRef struct {
	NodeID string
	Pin    string
}

func (p PinRef) String() string { return fmt.Sprintf("%s.%s", p.NodeID, p.Pin) }

// NodeDecl is a node as declared in the manifest.
type NodeDecl struct {
	ID          string
	Type        string
	X, Y        float64
	HasPosition bool
	Properties  map[string]string
	Line        int
}

// ConnectionDecl is a connection as declared in the manifest.
type ConnectionDecl struct {
	From PinRef
	To   PinRef
	Line int
}

// Decl is an uncompiled graph.
type Decl struct {
	Name        string
	Nodes       []NodeDecl
	Connections []ConnectionDecl
}

// Empty reports whether the declaration has neither nodes nor connections.
func (d *Decl) Empty() bool {
	return d == nil || (len(d.Nodes) == 0 && len(d.Connections) == 0)
}

// Clone returns a deep copy of d.
func (d *Decl) Clone() *Decl {
	if d == nil {
		return nil
	}
	out := &Decl{
		Name:        d.Name,
		Nodes:       make([]NodeDecl, len(d.Nodes)),
		Connections: append([]ConnectionDecl(nil), d.Connections...),
	}
	for i, n := range d.Nodes {
		props := make(map[string]string, len(n.Properties))
		for k, v := range n.Properties {
			props[k] = v
		}
		n.Properties = props
		out.Nodes[i] = n
	}
	return out
}
