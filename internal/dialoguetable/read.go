package dialoguetable

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/specialistvlad/gasgen/internal/ctxlog"
)

// DefaultSheet is read from XLSX files when no sheet is named.
const DefaultSheet = "Sheet1"

// ReadFile reads a .csv or .xlsx dialogue table.
func ReadFile(ctx context.Context, path, sheet string) (*Table, error) {
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rows, err = readCSVFile(path)
	case ".xlsx":
		rows, err = readXLSX(path, sheet)
	default:
		return nil, fmt.Errorf("dialogue table %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("dialogue table %s: %w", path, err)
	}
	t, err := FromRows(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("dialogue table %s: %w", path, err)
	}
	t.Path = path
	ctxlog.FromContext(ctx).Debug("Read dialogue table.", "path", path, "dialogues", len(t.Dialogues), "rows", t.RowCount())
	return t, nil
}

func readCSVFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads raw CSV records. Rows may have different lengths.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	return cr.ReadAll()
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if sheet == "" {
		sheet = DefaultSheet
	}
	return f.GetRows(sheet)
}

// FromRows builds a table from raw rows. The first row is the header. A
// header naming the known columns maps them by name, case-insensitively;
// otherwise columns are positional. Blank rows are skipped, and rows without
// Dialogue and NodeID or with too few columns are skipped with a warning.
func FromRows(ctx context.Context, rows [][]string) (*Table, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("need a header and at least one row")
	}
	logger := ctxlog.FromContext(ctx)
	cols := columnIndex(rows[0])

	t := &Table{}
	byName := map[string]*Dialogue{}
	for i, raw := range rows[1:] {
		line := i + 2
		if blank(raw) {
			continue
		}
		if len(raw) < minColumns {
			logger.Warn("Skipping dialogue row with too few columns.", "row", line, "columns", len(raw))
			continue
		}
		get := func(col string) string {
			idx := cols[col]
			if idx < 0 || idx >= len(raw) {
				return ""
			}
			return strings.TrimSpace(raw[idx])
		}
		row := Row{
			Dialogue:   get("dialogue"),
			NodeID:     get("nodeid"),
			Type:       get("type"),
			Speaker:    get("speaker"),
			Text:       get("text"),
			OptionText: get("optiontext"),
			Replies:    splitList(get("replies")),
			Conditions: splitList(get("conditions")),
			Events:     splitList(get("events")),
			Line:       line,
		}
		if row.Dialogue == "" || row.NodeID == "" {
			logger.Warn("Skipping dialogue row without Dialogue or NodeID.", "row", line)
			continue
		}
		if row.Type == "" {
			row.Type = "NPC"
		}

		d, ok := byName[row.Dialogue]
		if !ok {
			d = &Dialogue{Name: row.Dialogue}
			byName[row.Dialogue] = d
			t.Dialogues = append(t.Dialogues, d)
		}
		d.Rows = append(d.Rows, row)
	}
	if len(t.Dialogues) == 0 {
		return nil, fmt.Errorf("no valid rows")
	}
	return t, nil
}

// columnIndex maps lower-cased column names to indexes.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(Columns))
	named := false
	for _, c := range Columns {
		idx[strings.ToLower(c)] = -1
	}
	for i, h := range header {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(h), " ", ""))
		if _, ok := idx[key]; ok {
			idx[key] = i
			named = true
		}
	}
	if !named {
		for i, c := range Columns {
			idx[strings.ToLower(c)] = i
		}
	}
	return idx
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
