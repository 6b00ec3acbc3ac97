// # internal/output/tsv.go
package output

import (
	"docgen/internal/engine/callgraph"
	"fmt"
	"strings"
)

type TSVGenerator struct {
	graph  *callgraph.CallGraph
	filter *ExternalFilter
}

func NewTSVGenerator(cg *callgraph.CallGraph, filter *ExternalFilter) *TSVGenerator {
	return &TSVGenerator{graph: cg, filter: filter}
}

// Generate writes one row per caller/callee pair. File, Line and Column locate
// the callee definition and are empty for external leaves.
func (t *TSVGenerator) Generate() (string, error) {
	v := newGraphView(t.graph, t.filter)
	var buf strings.Builder

	buf.WriteString("From\tTo\tKind\tCalls\tFile\tLine\tColumn\n")
	for _, e := range v.edges {
		callee := v.nodes[e.to]
		if callee.Kind == callgraph.NodeExternal {
			buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%d\t\t\t\n", e.from, e.to, callee.Kind, e.count))
			continue
		}
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%d\t%s\t%d\t%d\n",
			e.from, e.to, callee.Kind, e.count, callee.File, callee.Span.Start.Line, callee.Span.Start.Column))
	}

	return buf.String(), nil
}
