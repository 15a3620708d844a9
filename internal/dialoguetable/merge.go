package dialoguetable

import (
	"context"
	"strconv"
	"strings"

	"github.com/specialistvlad/gasgen/internal/ctxlog"
	"github.com/specialistvlad/gasgen/internal/diag"
	"github.com/specialistvlad/gasgen/internal/kind"
	"github.com/specialistvlad/gasgen/internal/manifest"
)

// Source marks records built or changed by a dialogue table.
const Source = "dialogue-table"

// RecordName is the dialogue blueprint a dialogue merges into.
func RecordName(dialogue string) string {
	if strings.HasPrefix(dialogue, "DBP_") {
		return dialogue
	}
	return "DBP_" + dialogue
}

// MergeResult describes one merge.
type MergeResult struct {
	Created []string
	Updated []string
	// Rejected holds the problems of dialogues that were not merged.
	Rejected diag.List
}

// Merge writes every valid dialogue of t into m as the dialogue_nodes of a
// DialogueBlueprint record. A declared record is replaced by an updated
// copy; otherwise a new record is added. Dialogues failing validation are
// left out and reported.
func Merge(ctx context.Context, m *manifest.Model, t *Table) (*MergeResult, error) {
	logger := ctxlog.FromContext(ctx)
	res := &MergeResult{}

	for _, d := range t.Dialogues {
		if errs := d.Validate(); errs.HasErrors() {
			logger.Error("Dialogue rejected.", "dialogue", d.Name, "errors", len(errs))
			res.Rejected = append(res.Rejected, diag.Prefix("dialogue_table", errs)...)
			continue
		}

		name := RecordName(d.Name)
		rec, exists := m.Lookup(kind.DialogueBlueprint, name)
		if exists {
			rec = rec.Clone()
		} else {
			rec = manifest.NewRecord(kind.DialogueBlueprint, name, 0)
		}
		fill(rec, d)

		if exists {
			if err := m.Replace(rec); err != nil {
				return res, err
			}
			res.Updated = append(res.Updated, name)
		} else {
			m.Add(rec)
			res.Created = append(res.Created, name)
		}
		logger.Debug("Merged dialogue.", "record", name, "nodes", len(d.Rows), "created", !exists)
	}
	return res, nil
}

func fill(rec *manifest.Record, d *Dialogue) {
	rec.Source = Source
	rec.Scalars["root"] = d.Root()
	rec.Scalars["table_hash"] = strconv.FormatUint(d.Hash(), 16)

	nodes := make([]manifest.Object, 0, len(d.Rows))
	for _, r := range d.Rows {
		o := manifest.Object{
			Fields: map[string]string{
				"id":       r.NodeID,
				"type":     strings.ToUpper(r.Type),
				"row_hash": strconv.FormatUint(r.Hash(), 16),
			},
			Lists: map[string][]string{},
			Line:  r.Line,
		}
		for k, v := range map[string]string{"speaker": r.Speaker, "text": r.Text, "option_text": r.OptionText} {
			if v != "" {
				o.Fields[k] = v
			}
		}
		for k, v := range map[string][]string{"replies": r.Replies, "conditions": r.Conditions, "events": r.Events} {
			if len(v) > 0 {
				o.Lists[k] = append([]string(nil), v...)
			}
		}
		nodes = append(nodes, o)
	}
	rec.Objects["dialogue_nodes"] = nodes
}
