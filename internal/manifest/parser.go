package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/specialistvlad/gasgen/internal/ctxlog"
	"github.com/specialistvlad/gasgen/internal/kind"
)

// sectionFunc parses the section whose header is lines[start] and returns
// the index of the first line after it.
type sectionFunc func(run *parseRun, start int) (int, error)

type parseRun struct {
	log   *slog.Logger
	lines []Line
	model *Model
}

var (
	kindParsers    = buildKindParsers()
	specialParsers = map[string]sectionFunc{
		specialTags:        parseTags,
		specialEventGraphs: parseEventGraphs,
	}
)

// buildKindParsers binds every kind to a parser for its grammar. A kind
// without a grammar is a programming error.
func buildKindParsers() map[kind.Kind]sectionFunc {
	out := make(map[kind.Kind]sectionFunc, len(grammars))
	for _, k := range kind.Ordered() {
		g, ok := grammars[k]
		if !ok {
			panic(fmt.Sprintf("manifest: no grammar for kind %s", k))
		}
		out[k] = parseRecords(g)
	}
	return out
}

// ParseFile reads and parses a manifest file.
func ParseFile(ctx context.Context, path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := Parse(ctx, string(data))
	if err != nil {
		return nil, err
	}
	m.Path = path
	return m, nil
}

// Parse parses manifest text. Section parsers consume their own lines, so
// the driver only sees top-level scalars and section headers.
func Parse(ctx context.Context, text string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	lines, err := Scan(text)
	if err != nil {
		return nil, err
	}
	run := &parseRun{log: logger, lines: lines, model: NewModel()}

	for i := 0; i < len(lines); {
		l := lines[i]
		switch {
		case l.Skippable():
			i++
		case l.IsHeader():
			parse, ok := sectionParser(l.Key())
			if !ok {
				logger.Debug("Skipping unknown section", "section", l.Key(), "line", l.Num)
				i = skipBlock(lines, i)
				continue
			}
			if i, err = parse(run, i); err != nil {
				return nil, err
			}
		case !l.IsItem() && l.HasKey():
			setTopLevel(run.model, l)
			i++
		default:
			return nil, parseErrorf(l, "unexpected %q outside any section", l.Text)
		}
	}

	logger.Debug("Parsed manifest", "records", run.model.Count(), "summary", run.model.String())
	return run.model, nil
}

func sectionParser(key string) (sectionFunc, bool) {
	t, ok := lookupSection(key)
	if !ok {
		return nil, false
	}
	if t.special != "" {
		return specialParsers[t.special], true
	}
	return kindParsers[t.kind], true
}

func setTopLevel(m *Model, l Line) {
	switch key := strings.ToLower(l.Key()); key {
	case "project_root":
		m.ProjectRoot = l.Value()
	case "tags_ini_path":
		m.TagsIniPath = l.Value()
	default:
		m.Scalars[key] = l.Value()
	}
}

// skipBlock returns the index of the first line after the block opened at
// lines[start].
func skipBlock(lines []Line, start int) int {
	indent := lines[start].Indent
	for i := start + 1; i < len(lines); i++ {
		l := lines[i]
		if l.Skippable() {
			continue
		}
		if l.Indent <= indent && !l.IsItem() {
			return i
		}
	}
	return len(lines)
}
