// Package dialoguetable reads dialogue trees authored as spreadsheet rows,
// in CSV or XLSX, and merges them into the dialogue blueprints of a
// manifest model.
//
// Each row is one line of dialogue:
//
//	Dialogue, NodeID, Type, Speaker, Text, OptionText, Replies, Conditions, Events
//
// Rows are grouped by Dialogue in order of first appearance. The first row
// of a dialogue is its root. Replies, Conditions and Events are separated by
// semicolons; END and BACK in Replies close or step back.
package dialoguetable

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/specialistvlad/gasgen/internal/diag"
	"github.com/specialistvlad/gasgen/internal/graphir"
)

// Columns is the header of a dialogue table, in positional order.
var Columns = []string{"Dialogue", "NodeID", "Type", "Speaker", "Text", "OptionText", "Replies", "Conditions", "Events"}

// minColumns is the smallest row that carries Replies.
const minColumns = 7

// Row is one line of dialogue.
type Row struct {
	Dialogue   string
	NodeID     string
	Type       string
	Speaker    string
	Text       string
	OptionText string
	Replies    []string
	Conditions []string
	Events     []string
	// Line is the 1-based record number, header included. Comment lines
	// are not counted.
	Line int
}

// IsNPC reports whether the line is spoken by the NPC.
func (r Row) IsNPC() bool { return strings.EqualFold(r.Type, "NPC") }

// Hash is a stable hash of the row content. Line is not part of it.
func (r Row) Hash() uint64 {
	d := xxhash.New()
	write := func(s string) {
		d.WriteString(strconv.Itoa(len(s)))
		d.WriteString(":")
		d.WriteString(s)
	}
	for _, s := range []string{r.Dialogue, r.NodeID, strings.ToUpper(r.Type), r.Speaker, r.Text, r.OptionText} {
		write(s)
	}
	for _, list := range [][]string{r.Replies, r.Conditions, r.Events} {
		write(strconv.Itoa(len(list)))
		for _, s := range list {
			write(s)
		}
	}
	return d.Sum64()
}

// Dialogue is the rows of one dialogue tree.
type Dialogue struct {
	Name string
	Rows []Row
}

// Root is the first row's node ID.
func (d *Dialogue) Root() string {
	if len(d.Rows) == 0 {
		return ""
	}
	return d.Rows[0].NodeID
}

// Hash combines the row hashes in order.
func (d *Dialogue) Hash() uint64 {
	h := xxhash.New()
	for _, r := range d.Rows {
		h.WriteString(strconv.FormatUint(r.Hash(), 16))
		h.WriteString(";")
	}
	return h.Sum64()
}

// Tree converts the dialogue for structural checks.
func (d *Dialogue) Tree() *graphir.DialogueTree {
	t := &graphir.DialogueTree{Name: d.Name, Root: d.Root()}
	for _, r := range d.Rows {
		t.Nodes = append(t.Nodes, graphir.DialogueNode{
			ID:         r.NodeID,
			Type:       strings.ToUpper(r.Type),
			Speaker:    r.Speaker,
			Text:       r.Text,
			OptionText: r.OptionText,
			Replies:    r.Replies,
			Conditions: strings.Join(r.Conditions, ";"),
			Events:     strings.Join(r.Events, ";"),
		})
	}
	return t
}

// Validate checks the table-level rules: structure through the dialogue
// checker, and a speaker on every NPC line.
func (d *Dialogue) Validate() diag.List {
	errs := graphir.CheckDialogue(d.Tree())
	for _, r := range d.Rows {
		if r.IsNPC() && r.Speaker == "" {
			errs = append(errs, diag.New(diag.CodeMissingRequiredField, diag.Path(d.Name, r.NodeID),
				"Fill the Speaker column", "NPC line on row %d has no speaker", r.Line))
		}
	}
	return errs
}

// Table is every dialogue read from one source.
type Table struct {
	Path      string
	Dialogues []*Dialogue
}

// Find returns a dialogue by name.
func (t *Table) Find(name string) (*Dialogue, bool) {
	for _, d := range t.Dialogues {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// RowCount is the number of rows over all dialogues.
func (t *Table) RowCount() int {
	n := 0
	for _, d := range t.Dialogues {
		n += len(d.Rows)
	}
	return n
}
