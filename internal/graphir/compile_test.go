package graphir

import (
	"testing"

	"github.com/specialistvlad/gasgen/internal/diag"
	"github.com/specialistvlad/gasgen/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func printGraph() *Decl {
	return &Decl{
		Name: "EventGraph",
		Nodes: []NodeDecl{
			{ID: "Start", Type: "Event", Properties: map[string]string{"event_name": "ActivateAbility"}},
			{ID: "Health", Type: "VariableGet", Properties: map[string]string{"variable_name": "Health"}},
			{ID: "Print", Type: "CallFunction", Properties: map[string]string{"function": "PrintString", "param.Key": "debug"}},
			{ID: "End", Type: "CallFunction", Properties: map[string]string{"function": "K2_EndAbility"}},
		},
		Connections: []ConnectionDecl{
			{From: PinRef{"Start", "Then"}, To: PinRef{"Print", "Exec"}},
			{From: PinRef{"Health", "Health"}, To: PinRef{"Print", "InString"}},
			{From: PinRef{"Print", "then"}, To: PinRef{"End", "execute"}},
		},
	}
}

func TestCompile_ResolvesAllConnections(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	reg := registry.NewBuilder().Build()

	// --- Act ---
	g, err := Compile(printGraph(), reg)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, g.Nodes, 4)
	assert.Equal(t, []string{"Start", "Health", "Print", "End"}, g.Order)
	assert.Len(t, g.Edges, 3)
	assert.Equal(t, 3, g.CountByStatus()[Connected])

	_, ok := g.Nodes["Print"].Pin("Key", registry.Input)
	assert.True(t, ok, "flattened param.Key should become an input pin")
	assert.True(t, g.Edges[0].Exec)
	assert.False(t, g.Edges[1].Exec)
}

func TestCompile_ExecIntoPureNodeIsSkippedNotFailed(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	decl := &Decl{
		Nodes: []NodeDecl{
			{ID: "Start", Type: "Event"},
			{ID: "Avatar", Type: "CallFunction", Properties: map[string]string{"function": "GetAvatarActorFromActorInfo"}},
			{ID: "Var", Type: "VariableGet", Properties: map[string]string{"variable_name": "Mana"}},
		},
		Connections: []ConnectionDecl{
			{From: PinRef{"Start", "Then"}, To: PinRef{"Avatar", "Exec"}},
			{From: PinRef{"Start", "Then"}, To: PinRef{"Var", "Exec"}},
		},
	}

	// --- Act ---
	g, err := Compile(decl, registry.NewBuilder().Build())

	// --- Assert ---
	require.NoError(t, err)
	assert.True(t, g.Nodes["Avatar"].Pure, "a call to a pure function is a pure node")
	require.Len(t, g.Connections, 2)
	for _, c := range g.Connections {
		assert.Equal(t, SkippedExpected, c.Status)
		assert.NotEmpty(t, c.Reason)
	}
	assert.Empty(t, g.Edges)
	assert.Equal(t, 2, g.CountByStatus()[SkippedExpected])
}

func TestCompile_ValidationErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		mutate   func(d *Decl)
		wantCode string
	}{
		{
			name: "dangling target node",
			mutate: func(d *Decl) {
				d.Connections = append(d.Connections, ConnectionDecl{From: PinRef{"Print", "Then"}, To: PinRef{"Ghost", "Exec"}})
			},
			wantCode: diag.CodeUnknownNode,
		},
		{
			name: "unknown pin",
			mutate: func(d *Decl) {
				d.Connections[0].To.Pin = "Teleport"
			},
			wantCode: diag.CodeUnknownPin,
		},
		{
			name: "duplicate node id",
			mutate: func(d *Decl) {
				d.Nodes = append(d.Nodes, NodeDecl{ID: "Print", Type: "Event"})
			},
			wantCode: diag.CodeDuplicateNodeID,
		},
		{
			name: "unknown node type",
			mutate: func(d *Decl) {
				d.Nodes[0].Type = "Teleporter"
			},
			wantCode: diag.CodeUnknownNodeType,
		},
		{
			name: "unknown function",
			mutate: func(d *Decl) {
				d.Nodes[3].Properties["function"] = "Explode"
			},
			wantCode: diag.CodeFunctionNotFound,
		},
		{
			name: "exec into data pin",
			mutate: func(d *Decl) {
				d.Connections[0].To.Pin = "InString"
			},
			wantCode: diag.CodePinTypeMismatch,
		},
		{
			name: "input used as source",
			mutate: func(d *Decl) {
				d.Connections = append(d.Connections, ConnectionDecl{From: PinRef{"Print", "InString"}, To: PinRef{"End", "Target"}})
			},
			wantCode: diag.CodePinDirection,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			decl := printGraph()
			tc.mutate(decl)

			// --- Act ---
			g, err := Compile(decl, registry.NewBuilder().Build())

			// --- Assert ---
			require.Error(t, err)
			assert.Nil(t, g, "a partially wired graph must never be returned")
			errs := diag.Collect(err, "", "")
			codes := make([]string, 0, len(errs))
			for _, e := range errs {
				codes = append(codes, e.Code)
			}
			assert.Contains(t, codes, tc.wantCode)
		})
	}
}

func TestDecl_Clone(t *testing.T) {
	t.Parallel()

	orig := printGraph()
	cp := orig.Clone()
	cp.Nodes[0].Properties["event_name"] = "Changed"
	assert.Equal(t, "ActivateAbility", orig.Nodes[0].Properties["event_name"])
	assert.True(t, (&Decl{}).Empty())
}
