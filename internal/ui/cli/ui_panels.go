package cli

import (
	"docgen/internal/data/history"
	"docgen/internal/engine/callgraph"
	"fmt"
	"strings"
)

func renderHelp(m model) string {
	keys := "Keys: tab panel | / filter | enter callees | esc back | t trend overlay | j/k callee cursor | o open source | q quit"
	if m.mode == panelIssues {
		keys = "Keys: tab panel | / filter | t trend overlay | q quit"
	}
	return statusStyle.Render(keys)
}

func renderNodePanel(m model) string {
	summary := m.nodeList.View()
	details := renderNodeSummary(m)
	if m.hasDetails {
		details = renderNodeDetails(m)
	}
	return summary + "\n\n" + details
}

func selectedNode(m model) (callgraph.CallNode, bool) {
	if m.graph == nil {
		return callgraph.CallNode{}, false
	}
	it, ok := m.nodeList.SelectedItem().(item)
	if !ok {
		return callgraph.CallNode{}, false
	}
	return m.graph.Registry.Node(it.key)
}

func renderNodeSummary(m model) string {
	n, ok := selectedNode(m)
	if !ok {
		return statusStyle.Render("No nodes available.")
	}
	lines := []string{
		"Selected Node",
		fmt.Sprintf("  Key: %s", n.Key),
		fmt.Sprintf("  Kind: %s", n.Kind),
	}
	if n.Kind == callgraph.NodeLocal {
		lines = append(lines, fmt.Sprintf("  Defined at: %s:%d:%d", n.File, n.Span.Start.Line, n.Span.Start.Column))
	}
	lines = append(lines,
		fmt.Sprintf("  Calls: %d", len(m.graph.Callees(n.Key))),
		"  Press enter for callee drill-down.",
	)
	return strings.Join(lines, "\n")
}

func renderNodeDetails(m model) string {
	callees := m.graph.Callees(m.detailsKey)
	lines := []string{
		fmt.Sprintf("Callees of %s (%d):", m.detailsKey, len(callees)),
	}
	for i, key := range callees {
		prefix := "   "
		if i == m.selectedCallee {
			prefix = " ->"
		}
		loc := "external"
		if n, ok := m.graph.Registry.Node(key); ok && n.Kind == callgraph.NodeLocal {
			loc = fmt.Sprintf("%s:%d", n.File, n.Span.Start.Line)
		}
		lines = append(lines, fmt.Sprintf("%s %s (%s)", prefix, key, loc))
	}
	if len(callees) == 0 {
		lines = append(lines, "   none")
	}
	lines = append(lines, "  Press esc to exit details, o to jump to highlighted source.")
	return strings.Join(lines, "\n")
}

func renderTrendOverlay(report *history.TrendReport) string {
	if report == nil || len(report.Points) == 0 {
		return statusStyle.Render("Trend overlay unavailable (enable --history to capture snapshots).")
	}
	last := report.Points[len(report.Points)-1]
	return strings.Join([]string{
		"Trend Overlay",
		fmt.Sprintf("  Window: %s | Builds: %d", report.Window, report.BuildCount),
		fmt.Sprintf("  Node growth: %+d (%.2f%%)", last.DeltaNodes, last.NodeGrowthPct),
		fmt.Sprintf("  Edge drift: %+d | External drift: %+d", last.DeltaEdges, last.DeltaExternals),
		fmt.Sprintf("  Cycles delta: %+d (avg %.2f)", last.DeltaCycles, last.AvgCycles),
	}, "\n")
}
