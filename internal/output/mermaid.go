package output

import (
	"docgen/internal/engine/callgraph"
	"fmt"
	"strings"
	"unicode"
)

type MermaidGenerator struct {
	graph  *callgraph.CallGraph
	filter *ExternalFilter
}

// Past this many distinct external leaves they collapse into one node.
const externalAggregationThreshold = 12

const externalAggregateNodeID = "__external_aggregate__"

func NewMermaidGenerator(cg *callgraph.CallGraph, filter *ExternalFilter) *MermaidGenerator {
	return &MermaidGenerator{graph: cg, filter: filter}
}

func (m *MermaidGenerator) Generate() (string, error) {
	v := newGraphView(m.graph, m.filter)
	var b strings.Builder
	b.WriteString("%%{init: {'flowchart': {'nodeSpacing': 60, 'rankSpacing': 90, 'curve': 'basis'}}}%%\n")
	b.WriteString("flowchart LR\n")

	localNames := keyNames(v.locals)
	externalNames := keyNames(v.externals)
	aggregateExternal := len(externalNames) > externalAggregationThreshold

	allNames := append(append([]string{}, localNames...), externalNames...)
	if aggregateExternal {
		allNames = append(allNames, externalAggregateNodeID)
	}
	ids := makeMermaidIDs(allNames)

	groups, byGroup := v.groups()
	for _, group := range groups {
		b.WriteString(fmt.Sprintf("  subgraph file_%s[\"%s\"]\n", sanitizeMermaidID(group), escapeMermaidLabel(group)))
		for _, n := range byGroup[group] {
			b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", ids[string(n.Key)], escapeMermaidLabel(n.QualifiedName())))
		}
		b.WriteString("  end\n")
	}

	if aggregateExternal {
		b.WriteString(fmt.Sprintf("  %s[\"External\\n(%d symbols)\"]\n", ids[externalAggregateNodeID], len(externalNames)))
	} else {
		for _, name := range externalNames {
			b.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", ids[name], escapeMermaidLabel(name)))
		}
	}

	b.WriteString("\n")
	if len(localNames) > 0 {
		b.WriteString("  classDef localNode fill:#f7fbff,stroke:#4d6480,stroke-width:1px;\n")
		b.WriteString("  class ")
		b.WriteString(strings.Join(toIDs(localNames, ids), ","))
		b.WriteString(" localNode;\n")
	}
	if len(externalNames) > 0 {
		b.WriteString("  classDef externalNode fill:#efefef,stroke:#808080,stroke-dasharray:4 3;\n")
		if aggregateExternal {
			b.WriteString(fmt.Sprintf("  class %s externalNode;\n", ids[externalAggregateNodeID]))
		} else {
			b.WriteString("  class ")
			b.WriteString(strings.Join(toIDs(externalNames, ids), ","))
			b.WriteString(" externalNode;\n")
		}
	}
	cycleNames := make([]string, 0)
	for _, name := range localNames {
		if v.cycleNodes[callgraph.NodeKey(name)] {
			cycleNames = append(cycleNames, name)
		}
	}
	if len(cycleNames) > 0 {
		b.WriteString("  classDef cycleNode fill:#ffecec,stroke:#cc0000,stroke-width:2px;\n")
		b.WriteString("  class ")
		b.WriteString(strings.Join(toIDs(cycleNames, ids), ","))
		b.WriteString(" cycleNode;\n")
	}
	if v.root != "" {
		b.WriteString("  classDef rootNode stroke:#b8860b,stroke-width:3px;\n")
		b.WriteString(fmt.Sprintf("  class %s rootNode;\n", ids[string(v.root)]))
	}

	b.WriteString("\n")
	linkIndex := 0
	cycleLinkIndexes := make([]int, 0)
	externalLinkIndexes := make([]int, 0)
	externalCounts := make(map[callgraph.NodeKey]int)
	for _, e := range v.edges {
		external := v.isExternal(e.to)
		if aggregateExternal && external {
			externalCounts[e.from] += e.count
			continue
		}
		label := ""
		if v.cycleEdges[edgeID(e.from, e.to)] {
			label = "|RECURSION|"
			cycleLinkIndexes = append(cycleLinkIndexes, linkIndex)
		} else if external {
			externalLinkIndexes = append(externalLinkIndexes, linkIndex)
		}
		if label == "" && e.count > 1 {
			label = fmt.Sprintf("|x%d|", e.count)
		}
		b.WriteString(fmt.Sprintf("  %s -->%s %s\n", ids[string(e.from)], label, ids[string(e.to)]))
		linkIndex++
	}
	if aggregateExternal {
		for _, name := range localNames {
			count := externalCounts[callgraph.NodeKey(name)]
			if count == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("  %s -->|ext:%d| %s\n", ids[name], count, ids[externalAggregateNodeID]))
			externalLinkIndexes = append(externalLinkIndexes, linkIndex)
			linkIndex++
		}
	}

	if len(cycleLinkIndexes) > 0 || len(externalLinkIndexes) > 0 {
		b.WriteString("\n")
	}
	if len(cycleLinkIndexes) > 0 {
		b.WriteString(fmt.Sprintf("  linkStyle %s stroke:#cc0000,stroke-width:3px;\n", joinInts(cycleLinkIndexes)))
	}
	if len(externalLinkIndexes) > 0 {
		b.WriteString(fmt.Sprintf("  linkStyle %s stroke:#777777,stroke-dasharray:4 3;\n", joinInts(externalLinkIndexes)))
	}

	return b.String(), nil
}

func keyNames(nodes []callgraph.CallNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, string(n.Key))
	}
	return out
}

func sanitizeMermaidID(name string) string {
	if name == "" {
		return "n"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if unicode.IsDigit(rune(out[0])) {
		return "n_" + out
	}
	return out
}

func makeMermaidIDs(names []string) map[string]string {
	ids := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		base := sanitizeMermaidID(name)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[name] = base
			continue
		}
		ids[name] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}

func escapeMermaidLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func toIDs(names []string, ids map[string]string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if id, ok := ids[name]; ok {
			out = append(out, id)
		}
	}
	return out
}

func joinInts(v []int) string {
	parts := make([]string, 0, len(v))
	for _, n := range v {
		parts = append(parts, fmt.Sprintf("%d", n))
	}
	return strings.Join(parts, ",")
}
