package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/specialistvlad/gasgen/internal/changedetect"
	"github.com/specialistvlad/gasgen/internal/resolver"
)

// MaxSkipToShow caps the unchanged entries listed in a dry-run preview.
const MaxSkipToShow = 10

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	newStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	sectionStyle = lipgloss.NewStyle().Bold(true)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// SummaryLine is the grep-able one-line result of a run.
func SummaryLine(c Counts) string {
	return fmt.Sprintf("RESULT: New=%d Skipped=%d Failed=%d Deferred=%d Total=%d",
		c.New, c.Skipped, c.Failed, c.Deferred, c.Total)
}

func statusStyle(st resolver.Status) lipgloss.Style {
	switch st {
	case resolver.StatusNew:
		return newStyle
	case resolver.StatusFailed:
		return failStyle
	case resolver.StatusDeferred:
		return warnStyle
	default:
		return mutedStyle
	}
}

// RenderSummary writes the per-category breakdown, every failure and
// conflict, and the summary line.
func RenderSummary(w io.Writer, s *resolver.Summary) {
	var b strings.Builder
	title := "Generation summary"
	if s.DryRun {
		title += " (dry run)"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	categories, byCategory := groupByCategory(s.Results)
	for _, cat := range categories {
		counts := map[resolver.Status]int{}
		for _, r := range byCategory[cat] {
			counts[r.Status]++
		}
		fmt.Fprintf(&b, "%-28s %s %s %s\n", cat,
			newStyle.Render(fmt.Sprintf("new=%d", counts[resolver.StatusNew])),
			mutedStyle.Render(fmt.Sprintf("skipped=%d", counts[resolver.StatusSkipped])),
			failStyle.Render(fmt.Sprintf("failed=%d", counts[resolver.StatusFailed])))
	}

	if failedResults := s.Failed(); len(failedResults) > 0 {
		b.WriteString("\n" + sectionStyle.Render("Failures") + "\n")
		for _, r := range failedResults {
			fmt.Fprintf(&b, "%s %s - %s\n", failStyle.Render(r.Status.Tag()), r.Name, r.Message)
			for _, e := range r.Errors {
				fmt.Fprintf(&b, "    %s\n", e.Error())
				if e.SuggestedFix != "" {
					fmt.Fprintf(&b, "    %s\n", mutedStyle.Render("fix: "+e.SuggestedFix))
				}
			}
		}
	}
	if conflicts := s.Conflicts(); len(conflicts) > 0 {
		b.WriteString("\n" + sectionStyle.Render("Conflicts") + "\n")
		for _, r := range conflicts {
			fmt.Fprintf(&b, "%s %s - %s\n", warnStyle.Render("[CONFLICT]"), r.Name, r.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(SummaryLine(CountsOf(s)))
	fmt.Fprintln(w, boxStyle.Render(b.String()))
}

// RenderResults writes one line per result, tagged with its status.
func RenderResults(w io.Writer, s *resolver.Summary) {
	for _, r := range s.Results {
		fmt.Fprintf(w, "%s %s", statusStyle(r.Status).Render(r.Status.Tag()), r.Name)
		if r.Message != "" {
			fmt.Fprintf(w, " - %s", r.Message)
		}
		fmt.Fprintln(w)
	}
}

// RenderPreview writes what a run would do, grouped by action. Unchanged
// entries are capped at MaxSkipToShow.
func RenderPreview(w io.Writer, plan *changedetect.Plan) {
	if plan == nil {
		return
	}
	fmt.Fprintln(w, titleStyle.Render("=== DRY RUN PREVIEW ==="))

	if creates := plan.ByAction(changedetect.Create); len(creates) > 0 {
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("--- CREATE (%d new assets) ---", len(creates))))
		for _, e := range creates {
			fmt.Fprintf(w, "%s %s\n", newStyle.Render("[CREATE]"), e.Name)
		}
	}
	if mods := plan.ByAction(changedetect.Modify); len(mods) > 0 {
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("--- MODIFY (%d manifest changes, no manual edits) ---", len(mods))))
		for _, e := range mods {
			fmt.Fprintf(w, "%s %s - %s\n", warnStyle.Render("[MODIFY]"), e.Name, e.Decision.Reason)
		}
	}
	if conflicts := plan.ByAction(changedetect.Conflict); len(conflicts) > 0 {
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("--- CONFLICTS (%d require attention) ---", len(conflicts))))
		for _, e := range conflicts {
			fmt.Fprintf(w, "%s %s\n", failStyle.Render("[CONFLICT]"), e.Name)
			fmt.Fprintf(w, "  Reason: %s\n", e.Decision.Reason)
			fmt.Fprintln(w, "  Action: Use Force Regenerate to overwrite, or revert the manual edit")
		}
	}
	if skips := plan.ByAction(changedetect.Skip); len(skips) > 0 {
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("--- SKIP (%d unchanged) ---", len(skips))))
		for i, e := range skips {
			if i == MaxSkipToShow {
				fmt.Fprintf(w, "%s\n", mutedStyle.Render(fmt.Sprintf("... and %d more unchanged assets", len(skips)-MaxSkipToShow)))
				break
			}
			fmt.Fprintf(w, "%s %s - %s\n", mutedStyle.Render("[SKIP]"), e.Name, e.Decision.Reason)
		}
	}
}

func groupByCategory(results []resolver.Result) ([]string, map[string][]resolver.Result) {
	var order []string
	by := map[string][]resolver.Result{}
	for _, r := range results {
		if _, ok := by[r.Category]; !ok {
			order = append(order, r.Category)
		}
		by[r.Category] = append(by[r.Category], r)
	}
	return order, by
}
