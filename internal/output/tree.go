package output

import (
	"docgen/internal/engine/callgraph"
	"fmt"
	"strings"
)

// TreeGenerator prints the graph as an indented call tree from the root.
// A callee already printed higher up is shown once more and marked instead of
// being expanded again.
type TreeGenerator struct {
	graph  *callgraph.CallGraph
	filter *ExternalFilter
}

func NewTreeGenerator(cg *callgraph.CallGraph, filter *ExternalFilter) *TreeGenerator {
	return &TreeGenerator{graph: cg, filter: filter}
}

func (t *TreeGenerator) Generate() (string, error) {
	if t.graph.Root == "" {
		return fmt.Sprintf("entry %s not found in %s\n", t.graph.Entry, t.graph.EntryFile), nil
	}
	var b strings.Builder
	expanded := make(map[callgraph.NodeKey]bool)
	t.write(&b, t.graph.Root, 0, map[callgraph.NodeKey]bool{}, expanded)
	return b.String(), nil
}

func (t *TreeGenerator) write(b *strings.Builder, key callgraph.NodeKey, depth int, path, expanded map[callgraph.NodeKey]bool) {
	node, _ := t.graph.Registry.Node(key)
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(string(key))
	switch {
	case node.Kind == callgraph.NodeExternal:
		b.WriteString(" [external]\n")
		return
	case path[key]:
		b.WriteString(" [recursive]\n")
		return
	case expanded[key]:
		b.WriteString(" [see above]\n")
		return
	}
	b.WriteString("\n")

	expanded[key] = true
	path[key] = true
	seen := make(map[callgraph.NodeKey]bool)
	for _, callee := range t.graph.Callees(key) {
		if seen[callee] {
			continue
		}
		if n, _ := t.graph.Registry.Node(callee); n.Kind == callgraph.NodeExternal && t.filter.Hidden(callee) {
			continue
		}
		seen[callee] = true
		t.write(b, callee, depth+1, path, expanded)
	}
	delete(path, key)
}
