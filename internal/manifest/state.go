package manifest

// SubState is the position of a section parser inside the current record.
type SubState int

const (
	None SubState = iota
	InList
	InObjects
	InGroup
	InGroupList
	InGraph
	InGraphNodes
	InGraphProps
	InGraphParams
	InGraphConnections
	InPairs
)

var subStateNames = [...]string{
	"None", "InList", "InObjects", "InGroup", "InGroupList", "InGraph",
	"InGraphNodes", "InGraphProps", "InGraphParams", "InGraphConnections", "InPairs",
}

func (s SubState) String() string {
	if int(s) < len(subStateNames) {
		return subStateNames[s]
	}
	return "SubState(?)"
}

// transitions is keyed by the current state and the shape of the block
// being opened. A missing entry means the block is not allowed there.
var transitions = map[SubState]map[Shape]SubState{
	None: {
		ShapeList:    InList,
		ShapeObjects: InObjects,
		ShapeGroup:   InGroup,
		ShapeGraph:   InGraph,
		ShapePairs:   InPairs,
	},
	InGroup: {
		ShapeList: InGroupList,
	},
	InGroupList: {
		ShapeList: InGroupList,
	},
	InGraph: {
		shapeNodes:       InGraphNodes,
		shapeConnections: InGraphConnections,
	},
	InGraphNodes: {
		shapeProperties:  InGraphProps,
		shapeConnections: InGraphConnections,
	},
	InGraphProps: {
		shapeParameters:  InGraphParams,
		shapeConnections: InGraphConnections,
	},
	InGraphParams: {
		shapeConnections: InGraphConnections,
	},
	InGraphConnections: {
		shapeNodes: InGraphNodes,
	},
}

// next returns the state entered when a block of the given shape opens.
func next(from SubState, shape Shape) (SubState, bool) {
	to, ok := transitions[from][shape]
	return to, ok
}

// graphShapes maps the keys that open blocks inside a graph.
var graphShapes = map[string]Shape{
	"nodes":       shapeNodes,
	"connections": shapeConnections,
	"properties":  shapeProperties,
	"parameters":  shapeParameters,
}
