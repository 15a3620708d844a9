// Package tags keeps the project's gameplay tag ini file in step with the
// tags a manifest declares. Existing entries are never rewritten; missing
// tags are appended one per line.
package tags

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/gasgen/internal/ctxlog"
	"github.com/specialistvlad/gasgen/internal/fsutil"
	"github.com/specialistvlad/gasgen/internal/resolver"
)

// Category groups tag results in reports.
const Category = "Gameplay Tags"

// DefaultIniPath is used when the manifest names no tags_ini_path.
const DefaultIniPath = "Config/DefaultGameplayTags.ini"

var entryPrefixes = []string{"+GameplayTagList=", "+GameplayTags="}

// Parse returns the tags declared in ini content, in file order. Both the
// list form, (Tag="X",DevComment=""), and the short form, (Tag="X"), are
// recognized.
func Parse(content string) []string {
	var out []string
	seen := map[string]bool{}
	sc := bufio.NewScanner(strings.NewReader(content))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		var body string
		for _, p := range entryPrefixes {
			if strings.HasPrefix(line, p) {
				body = strings.TrimSpace(line[len(p):])
				break
			}
		}
		if !strings.HasPrefix(body, "(") || !strings.HasSuffix(body, ")") {
			continue
		}
		_, rest, ok := strings.Cut(body, `Tag="`)
		if !ok {
			continue
		}
		tag, _, ok := strings.Cut(rest, `"`)
		if !ok || tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// Entry renders the line appended for a new tag.
func Entry(tag string) string { return fmt.Sprintf(`+GameplayTags=(Tag="%s")`, tag) }

// Load reads the tags of an ini file. A missing file has no tags.
func Load(path string) ([]string, string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("read tags ini: %w", err)
	}
	return Parse(string(data)), string(data), nil
}

// Generate appends every tag missing from the ini file at path and returns
// one result per tag: New for appended tags, Skipped for those already
// present. A dry run reports the same results without writing.
func Generate(ctx context.Context, path string, want []string, dryRun bool) ([]resolver.Result, error) {
	logger := ctxlog.FromContext(ctx)
	existing, content, err := Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded tags ini.", "path", path, "existing", len(existing))

	have := make(map[string]bool, len(existing))
	for _, t := range existing {
		have[t] = true
	}

	var (
		results []resolver.Result
		added   []string
	)
	for _, tag := range want {
		res := resolver.Result{Name: tag, Category: Category, Path: path}
		if have[tag] {
			res.Status, res.Message = resolver.StatusSkipped, "Already exists"
			logger.Debug(fmt.Sprintf("[SKIPPED] %s", tag), "reason", res.Message)
		} else {
			res.Status, res.Message = resolver.StatusNew, "Created successfully"
			added = append(added, tag)
			have[tag] = true
			logger.Info(fmt.Sprintf("[NEW] %s", tag))
		}
		results = append(results, res)
	}

	if len(added) == 0 || dryRun {
		return results, nil
	}

	var b strings.Builder
	b.WriteString(content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	for _, tag := range added {
		b.WriteString(Entry(tag))
		b.WriteString("\n")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create tags dir: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, []byte(b.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write tags ini: %w", err)
	}
	return results, nil
}
