package cli

import (
	"context"
	coreapp "docgen/internal/core/app"
	"docgen/internal/data/history"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	cycleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

func loadTrendReport(ctx context.Context, a *coreapp.App, window string) *history.TrendReport {
	d, err := parseHistoryWindow(window)
	if err != nil {
		slog.Warn("invalid history window", "error", err)
		return nil
	}
	report, err := a.Trends(ctx, d)
	if err != nil {
		slog.Warn("trend report unavailable", "error", err)
		return nil
	}
	return &report
}

func summaryLines(update coreapp.Update, report *history.TrendReport) []string {
	cg := update.Graph
	lines := []string{titleStyle.Render(fmt.Sprintf("Call graph: %s", cg.Entry.String()))}
	if !cg.Found() {
		lines = append(lines, warnStyle.Render(fmt.Sprintf("entry %s not found in %s", cg.Entry.String(), cg.EntryFile)))
		return lines
	}

	lines = append(lines, statusStyle.Render(fmt.Sprintf("%d nodes (%d local, %d external) | %d edges | %d files parsed | %s",
		cg.Graph.NodeCount(), len(cg.Locals()), len(cg.Externals()), cg.Graph.EdgeCount(),
		cg.Stats.FilesParsed, cg.Stats.Duration.Round(time.Millisecond))))

	if len(update.Cycles) == 0 {
		lines = append(lines, successStyle.Render("No recursive call chains"))
	} else {
		lines = append(lines, cycleStyle.Render(fmt.Sprintf("%d recursive call chains", len(update.Cycles))))
		for _, c := range update.Cycles {
			keys := make([]string, 0, len(c)+1)
			for _, k := range c {
				keys = append(keys, string(k))
			}
			keys = append(keys, keys[0])
			lines = append(lines, "  "+strings.Join(keys, " -> "))
		}
	}

	if update.Routes != nil && len(update.Routes.Routes) > 0 {
		lines = append(lines, fmt.Sprintf("%d HTTP routes", len(update.Routes.Routes)))
	}
	if update.SnapshotID != "" {
		lines = append(lines, statusStyle.Render("snapshot "+update.SnapshotID))
	}
	if report != nil && len(report.Points) > 0 {
		last := report.Points[len(report.Points)-1]
		lines = append(lines, fmt.Sprintf("Trend over %d builds: nodes %+d (%.2f%%), edges %+d, cycles %+d",
			report.BuildCount, last.DeltaNodes, last.NodeGrowthPct, last.DeltaEdges, last.DeltaCycles))
	}
	return lines
}

func printSummary(w io.Writer, update coreapp.Update, report *history.TrendReport) {
	fmt.Fprintln(w, strings.Join(summaryLines(update, report), "\n"))
}
