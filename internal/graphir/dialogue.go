package graphir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/gasgen/internal/diag"
)

// EndReply marks a dialogue line that closes the conversation. BackReply
// returns to the previous menu; neither names a node.
const (
	EndReply  = "END"
	BackReply = "BACK"
)

// DialogueNode is one line of a dialogue tree.
type DialogueNode struct {
	ID         string
	Type       string // NPC or PLAYER
	Speaker    string
	Text       string
	OptionText string
	Replies    []string
	Conditions string
	Events     string
}

// DialogueTree is a dialogue rooted at Root.
type DialogueTree struct {
	Name  string
	Root  string
	Nodes []DialogueNode
}

// CheckDialogue validates the structure of a dialogue tree: the root exists,
// IDs are unique, every reply names an existing node, every node is reachable
// from the root and no path loops back on itself.
//
// Cycle detection walks depth first and hands every child its own copy of
// the on-path set. A node reached twice through different branches is
// therefore not a cycle; only a node that reappears on its own path is.
func CheckDialogue(tree *DialogueTree) diag.List {
	var errs diag.List
	byID := make(map[string]*DialogueNode, len(tree.Nodes))
	for i := range tree.Nodes {
		n := &tree.Nodes[i]
		if _, dup := byID[n.ID]; dup {
			errs = append(errs, diag.New(diag.CodeDuplicateNodeID, diag.Path(tree.Name, n.ID),
				"Rename one of the dialogue lines", "dialogue node %q is declared more than once", n.ID))
			continue
		}
		byID[n.ID] = n
	}

	for _, n := range tree.Nodes {
		for _, r := range n.Replies {
			if isEnd(r) {
				continue
			}
			if _, ok := byID[r]; !ok {
				errs = append(errs, diag.New(diag.CodeDanglingReply, diag.Path(tree.Name, n.ID),
					"Point the reply at an existing node or use END", "reply %q does not exist", r))
			}
		}
	}

	if _, ok := byID[tree.Root]; !ok {
		errs = append(errs, diag.New(diag.CodeDialogueNoRoot, tree.Name,
			"The first row of a dialogue is its root", "root node %q does not exist", tree.Root))
		return errs
	}

	reached := make(map[string]bool)
	cycles := make(map[string]bool)
	// clean holds nodes whose whole subtree was walked without closing a loop.
	clean := make(map[string]bool)
	var walk func(id string, path []string, onPath map[string]bool) bool
	walk = func(id string, path []string, onPath map[string]bool) bool {
		if onPath[id] {
			cycles[canonicalCycle(path, id)] = true
			return true
		}
		node, ok := byID[id]
		if !ok || clean[id] {
			return false
		}
		reached[id] = true

		local := make(map[string]bool, len(onPath)+1)
		for k := range onPath {
			local[k] = true
		}
		local[id] = true
		path = append(path[:len(path):len(path)], id)

		looped := false
		for _, r := range node.Replies {
			if isEnd(r) {
				continue
			}
			if walk(r, path, local) {
				looped = true
			}
		}
		if !looped {
			clean[id] = true
		}
		return looped
	}
	walk(tree.Root, nil, map[string]bool{})

	keys := make([]string, 0, len(cycles))
	for k := range cycles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, c := range keys {
		errs = append(errs, diag.New(diag.CodeDialogueCycle, tree.Name,
			"Break the loop or end one branch with END", "cycle detected: %s", c))
	}

	for _, n := range tree.Nodes {
		if !reached[n.ID] {
			errs = append(errs, diag.Warn(diag.CodeOrphanNode, diag.Path(tree.Name, n.ID),
				"Reference the line from a reply or remove it", "node %q is unreachable from root %q", n.ID, tree.Root))
		}
	}
	return errs
}

func isEnd(reply string) bool {
	r := strings.TrimSpace(reply)
	return strings.EqualFold(r, EndReply) || strings.EqualFold(r, BackReply)
}

// canonicalCycle renders the loop that starts at id within path, rotated so
// the smallest ID comes first. The same loop found from two entry points
// therefore yields the same string.
func canonicalCycle(path []string, id string) string {
	start := 0
	for i, p := range path {
		if p == id {
			start = i
			break
		}
	}
	loop := append([]string(nil), path[start:]...)
	lo := 0
	for i, p := range loop {
		if p < loop[lo] {
			lo = i
		}
	}
	rotated := append(append([]string(nil), loop[lo:]...), loop[:lo]...)
	return fmt.Sprintf("%s -> %s", strings.Join(rotated, " -> "), rotated[0])
}
