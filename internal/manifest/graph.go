package manifest

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/specialistvlad/gasgen/internal/graphir"
)

// graphBuilder accumulates one node graph from the lines of a nodes: /
// connections: block. The enclosing parser decides where the block ends;
// the builder only tracks its own nesting.
type graphBuilder struct {
	log   *slog.Logger
	decl  *graphir.Decl
	state SubState

	node       *graphir.NodeDecl
	nodeIndent int
	propIndent int
	parmIndent int

	conn       *graphir.ConnectionDecl
	connIndent int
}

func newGraphBuilder(log *slog.Logger, name string) *graphBuilder {
	return &graphBuilder{log: log, decl: &graphir.Decl{Name: name}, state: InGraph}
}

func (g *graphBuilder) feed(l Line) error {
	if g.state == InGraphParams && l.Indent <= g.parmIndent {
		g.state = InGraphProps
	}
	if g.state == InGraphProps && l.Indent <= g.propIndent {
		g.state = InGraphNodes
	}

	if l.IsHeader() {
		if shape, ok := graphShapes[strings.ToLower(l.Key())]; ok {
			if to, ok := next(g.state, shape); ok {
				return g.enter(l, shape, to)
			}
		}
	}

	switch g.state {
	case InGraphNodes:
		if l.IsItem() && (g.node == nil || l.Indent <= g.nodeIndent) {
			if err := g.flushNode(); err != nil {
				return err
			}
			g.node = &graphir.NodeDecl{Properties: map[string]string{}, Line: l.Num}
			g.nodeIndent = l.Indent
		}
		if g.node != nil && l.HasKey() {
			return g.setNodeField(l)
		}
	case InGraphProps:
		if g.node != nil && l.HasKey() {
			g.node.Properties[strings.ToLower(l.Key())] = l.Value()
			return nil
		}
	case InGraphParams:
		if g.node != nil && l.HasKey() {
			g.node.Properties["param."+l.Key()] = l.Value()
			return nil
		}
	case InGraphConnections:
		if l.IsItem() && (g.conn == nil || l.Indent <= g.connIndent) {
			g.flushConn()
			g.conn = &graphir.ConnectionDecl{Line: l.Num}
			g.connIndent = l.Indent
		}
		if g.conn != nil && l.HasKey() {
			return g.setConnField(l)
		}
	}
	g.log.Debug("Ignoring graph line", "line", l.Num, "state", g.state, "text", l.Text)
	return nil
}

func (g *graphBuilder) enter(l Line, shape Shape, to SubState) error {
	switch shape {
	case shapeNodes, shapeConnections:
		if err := g.flushNode(); err != nil {
			return err
		}
		g.flushConn()
	case shapeProperties:
		if g.node == nil {
			return parseErrorf(l, "properties outside of a node")
		}
		g.propIndent = l.Indent
	case shapeParameters:
		if g.node == nil {
			return parseErrorf(l, "parameters outside of a node")
		}
		g.parmIndent = l.Indent
	}
	g.state = to
	return nil
}

func (g *graphBuilder) setNodeField(l Line) error {
	value := l.Value()
	switch strings.ToLower(l.Key()) {
	case "id":
		g.node.ID = value
	case "type":
		g.node.Type = value
	case "position":
		parts, err := InlineList(value)
		if err != nil || len(parts) != 2 {
			return parseErrorf(l, "position must be [x, y], got %q", value)
		}
		x, errX := strconv.ParseFloat(parts[0], 64)
		y, errY := strconv.ParseFloat(parts[1], 64)
		if errX != nil || errY != nil {
			return parseErrorf(l, "position must be numeric, got %q", value)
		}
		g.node.X, g.node.Y, g.node.HasPosition = x, y, true
	case "pos_x", "pos_y":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return parseErrorf(l, "%s must be numeric, got %q", l.Key(), value)
		}
		if strings.EqualFold(l.Key(), "pos_x") {
			g.node.X = f
		} else {
			g.node.Y = f
		}
		g.node.HasPosition = true
	default:
		g.node.Properties[strings.ToLower(l.Key())] = value
	}
	return nil
}

func (g *graphBuilder) setConnField(l Line) error {
	key := strings.ToLower(l.Key())
	if key != "from" && key != "to" {
		g.log.Debug("Ignoring connection field", "line", l.Num, "field", l.Key())
		return nil
	}
	ref, err := parsePinRef(l.Value())
	if err != nil {
		return parseErrorf(l, "%s: %v", key, err)
	}
	if key == "from" {
		g.conn.From = ref
	} else {
		g.conn.To = ref
	}
	return nil
}

// parsePinRef accepts "[Node, Pin]" and "Node.Pin".
func parsePinRef(s string) (graphir.PinRef, error) {
	if strings.HasPrefix(s, "[") {
		parts, err := InlineList(s)
		if err != nil {
			return graphir.PinRef{}, err
		}
		if len(parts) != 2 {
			return graphir.PinRef{}, &ParseError{Msg: "pin reference must be [node, pin], got " + strconv.Quote(s)}
		}
		return graphir.PinRef{NodeID: parts[0], Pin: parts[1]}, nil
	}
	node, pin, ok := strings.Cut(s, ".")
	if !ok || node == "" || pin == "" {
		return graphir.PinRef{}, &ParseError{Msg: "pin reference must be [node, pin], got " + strconv.Quote(s)}
	}
	return graphir.PinRef{NodeID: strings.TrimSpace(node), Pin: strings.TrimSpace(pin)}, nil
}

func (g *graphBuilder) flushNode() error {
	if g.node == nil {
		return nil
	}
	n := g.node
	g.node = nil
	if n.ID == "" {
		return &ParseError{Line: n.Line, Msg: "graph node without id"}
	}
	g.decl.Nodes = append(g.decl.Nodes, *n)
	return nil
}

func (g *graphBuilder) flushConn() {
	if g.conn == nil {
		return
	}
	g.decl.Connections = append(g.decl.Connections, *g.conn)
	g.conn = nil
}

// finish flushes pending entries and returns the declaration.
func (g *graphBuilder) finish() (*graphir.Decl, error) {
	if err := g.flushNode(); err != nil {
		return nil, err
	}
	g.flushConn()
	return g.decl, nil
}

// parseEventGraphs reads the standalone event_graphs section. Each item is a
// named graph that records reference with "event_graph: Name".
func parseEventGraphs(run *parseRun, start int) (int, error) {
	header := run.lines[start]
	itemIndent := -1
	var gb *graphBuilder

	finish := func() error {
		if gb == nil {
			return nil
		}
		decl, err := gb.finish()
		gb = nil
		if err != nil {
			return err
		}
		if _, dup := run.model.EventGraphs[decl.Name]; dup {
			run.log.Warn("Duplicate event graph ignored", "graph", decl.Name)
			return nil
		}
		run.model.EventGraphs[decl.Name] = decl
		return nil
	}

	for i := start + 1; i < len(run.lines); i++ {
		l := run.lines[i]
		if l.Skippable() {
			continue
		}
		if l.Indent <= header.Indent && !l.IsItem() {
			return i, finish()
		}
		if l.IsItemKey("name") && (itemIndent < 0 || l.Indent <= itemIndent) {
			if err := finish(); err != nil {
				return 0, err
			}
			if itemIndent < 0 {
				itemIndent = l.Indent
			}
			gb = newGraphBuilder(run.log, l.Value())
			continue
		}
		if gb == nil {
			run.log.Debug("Ignoring line outside any event graph", "line", l.Num)
			continue
		}
		if err := gb.feed(l); err != nil {
			return 0, err
		}
	}
	return len(run.lines), finish()
}
