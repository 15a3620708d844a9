package graphir

import (
	"fmt"
	"testing"
	"time"

	"github.com/specialistvlad/gasgen/internal/diag"
	"github.com/specialistvlad/gasgen/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registryForTest() *registry.Registry { return registry.NewBuilder().Build() }

func codesOf(errs diag.List) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestCheckDialogue_SharedLeafIsNotACycle(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Greet branches to Ask and Refuse, both converge on Bye.
	tree := &DialogueTree{
		Name: "DBP_Blacksmith",
		Root: "Greet",
		Nodes: []DialogueNode{
			{ID: "Greet", Type: "NPC", Replies: []string{"Ask", "Refuse"}},
			{ID: "Ask", Type: "PLAYER", Replies: []string{"Bye"}},
			{ID: "Refuse", Type: "PLAYER", Replies: []string{"Bye"}},
			{ID: "Bye", Type: "NPC", Replies: []string{"END"}},
		},
	}

	// --- Act ---
	errs := CheckDialogue(tree)

	// --- Assert ---
	assert.Empty(t, errs)
}

func TestCheckDialogue_StackedDiamondsFinishQuickly(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Forty diamonds in a row give 2^40 root-to-leaf paths.
	const depth = 40
	tree := &DialogueTree{Name: "DBP_Maze", Root: "N0"}
	for i := 0; i < depth; i++ {
		next := fmt.Sprintf("N%d", i+1)
		left, right := fmt.Sprintf("L%d", i), fmt.Sprintf("R%d", i)
		tree.Nodes = append(tree.Nodes,
			DialogueNode{ID: fmt.Sprintf("N%d", i), Type: "NPC", Replies: []string{left, right}},
			DialogueNode{ID: left, Type: "PLAYER", Replies: []string{next}},
			DialogueNode{ID: right, Type: "PLAYER", Replies: []string{next}},
		)
	}
	tree.Nodes = append(tree.Nodes, DialogueNode{ID: fmt.Sprintf("N%d", depth), Type: "NPC", Replies: []string{"END"}})

	// --- Act ---
	start := time.Now()
	errs := CheckDialogue(tree)

	// --- Assert ---
	assert.Empty(t, errs)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCheckDialogue_CycleBehindSharedNodeIsFlagged(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Both branches reach Hub; only the path through Hub loops back to Ask.
	tree := &DialogueTree{
		Name: "DBP_Guard",
		Root: "Greet",
		Nodes: []DialogueNode{
			{ID: "Greet", Replies: []string{"Ask", "Leave"}},
			{ID: "Ask", Replies: []string{"Hub"}},
			{ID: "Leave", Replies: []string{"Hub"}},
			{ID: "Hub", Replies: []string{"Ask", "END"}},
		},
	}

	// --- Act ---
	errs := CheckDialogue(tree)

	// --- Assert ---
	require.Len(t, errs, 1)
	assert.Equal(t, diag.CodeDialogueCycle, errs[0].Code)
}

func TestCheckDialogue_RealCycleIsFlagged(t *testing.T) {
	t.Parallel()

	tree := &DialogueTree{
		Name: "DBP_Loop",
		Root: "A",
		Nodes: []DialogueNode{
			{ID: "A", Replies: []string{"B"}},
			{ID: "B", Replies: []string{"C", "END"}},
			{ID: "C", Replies: []string{"B"}},
		},
	}

	errs := CheckDialogue(tree)

	require.Len(t, errs, 1)
	assert.Equal(t, diag.CodeDialogueCycle, errs[0].Code)
	assert.Contains(t, errs[0].Message, "B -> C -> B")
}

func TestCheckDialogue_StructuralProblems(t *testing.T) {
	t.Parallel()

	tree := &DialogueTree{
		Name: "DBP_Broken",
		Root: "A",
		Nodes: []DialogueNode{
			{ID: "A", Replies: []string{"Missing"}},
			{ID: "Lonely"},
			{ID: "A"},
		},
	}

	errs := CheckDialogue(tree)

	assert.ElementsMatch(t, []string{diag.CodeDuplicateNodeID, diag.CodeDanglingReply, diag.CodeOrphanNode}, codesOf(errs))
	assert.True(t, errs.HasErrors())
}

func TestCheckDialogue_MissingRoot(t *testing.T) {
	t.Parallel()

	errs := CheckDialogue(&DialogueTree{Name: "DBP_Empty", Root: "Nope"})
	require.Len(t, errs, 1)
	assert.Equal(t, diag.CodeDialogueNoRoot, errs[0].Code)
}
