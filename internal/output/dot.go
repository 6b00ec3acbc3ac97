// # internal/output/dot.go
package output

import (
	"docgen/internal/engine/callgraph"
	"fmt"
	"strings"
)

type DOTGenerator struct {
	graph  *callgraph.CallGraph
	filter *ExternalFilter
}

func NewDOTGenerator(cg *callgraph.CallGraph, filter *ExternalFilter) *DOTGenerator {
	return &DOTGenerator{graph: cg, filter: filter}
}

func (d *DOTGenerator) Generate() (string, error) {
	v := newGraphView(d.graph, d.filter)
	var buf strings.Builder

	buf.WriteString("digraph callgraph {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.5;\n")
	buf.WriteString("  overlap=false;\n\n")

	groups, byGroup := v.groups()
	for i, group := range groups {
		buf.WriteString(fmt.Sprintf("  subgraph cluster_%d {\n", i))
		buf.WriteString(fmt.Sprintf("    label=\"%s\";\n", escapeDOT(group)))
		buf.WriteString("    style=filled;\n")
		buf.WriteString("    color=\"whitesmoke\";\n")
		buf.WriteString("    node [fillcolor=\"white\", style=\"rounded,filled\"];\n")
		for _, n := range byGroup[group] {
			label := fmt.Sprintf("%s\\nL%d", escapeDOT(n.QualifiedName()), n.Span.Start.Line)
			switch {
			case n.Key == v.root:
				buf.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\", fillcolor=\"lightyellow\", color=\"goldenrod\", penwidth=2.0];\n", escapeDOT(string(n.Key)), label))
			case v.cycleNodes[n.Key]:
				buf.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\", fillcolor=\"mistyrose\", color=\"red\", penwidth=2.0];\n", escapeDOT(string(n.Key)), label))
			default:
				buf.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\", color=\"darkslategrey\"];\n", escapeDOT(string(n.Key)), label))
			}
		}
		buf.WriteString("  }\n\n")
	}

	if len(v.externals) > 0 {
		buf.WriteString("  // External crates and std\n")
		buf.WriteString("  node [fillcolor=\"gainsboro\", style=\"rounded,filled\", color=\"grey\"];\n")
		for _, n := range v.externals {
			buf.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\"];\n", escapeDOT(string(n.Key)), escapeDOT(string(n.Key))))
		}
		buf.WriteString("\n")
	}

	for _, e := range v.edges {
		attrs := ""
		switch {
		case v.cycleEdges[edgeID(e.from, e.to)]:
			attrs = "color=\"red\", penwidth=3.0, label=\"RECURSION\""
		case v.isExternal(e.to):
			attrs = "color=\"grey\", style=dashed"
		default:
			attrs = "color=\"forestgreen\", penwidth=1.8"
		}
		if e.count > 1 {
			attrs += fmt.Sprintf(", taillabel=\"x%d\"", e.count)
		}
		buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [%s];\n", escapeDOT(string(e.from)), escapeDOT(string(e.to)), attrs))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func escapeDOT(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}
