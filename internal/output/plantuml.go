package output

import (
	"docgen/internal/engine/callgraph"
	"fmt"
	"strings"
)

type PlantUMLGenerator struct {
	graph  *callgraph.CallGraph
	filter *ExternalFilter
}

func NewPlantUMLGenerator(cg *callgraph.CallGraph, filter *ExternalFilter) *PlantUMLGenerator {
	return &PlantUMLGenerator{graph: cg, filter: filter}
}

func (p *PlantUMLGenerator) Generate() (string, error) {
	v := newGraphView(p.graph, p.filter)
	var b strings.Builder
	b.WriteString("@startuml\n")
	b.WriteString("skinparam componentStyle rectangle\n")
	b.WriteString("skinparam packageStyle rectangle\n")
	b.WriteString("skinparam nodesep 60\n")
	b.WriteString("skinparam ranksep 80\n")
	b.WriteString("left to right direction\n\n")

	localNames := keyNames(v.locals)
	externalNames := keyNames(v.externals)
	aliases := makeMermaidIDs(append(append([]string{}, localNames...), externalNames...))

	groups, byGroup := v.groups()
	for _, group := range groups {
		b.WriteString(fmt.Sprintf("package \"%s\" {\n", escapePlantUML(group)))
		for _, n := range byGroup[group] {
			color := ""
			if v.cycleNodes[n.Key] {
				color = " #FFECEC"
			}
			b.WriteString(fmt.Sprintf("  component \"%s\" as %s%s\n", escapePlantUML(n.QualifiedName()), aliases[string(n.Key)], color))
		}
		b.WriteString("}\n")
	}
	for _, name := range externalNames {
		b.WriteString(fmt.Sprintf("component \"%s\" as %s #DDDDDD\n", escapePlantUML(name), aliases[name]))
	}

	b.WriteString("\n")
	for _, e := range v.edges {
		arrow := "-->"
		label := ""
		if v.cycleEdges[edgeID(e.from, e.to)] {
			arrow = "-[#red,thickness=2]->"
			label = " : RECURSION"
		} else if v.isExternal(e.to) {
			arrow = "-[#777777,dashed]->"
		}
		if label == "" && e.count > 1 {
			label = fmt.Sprintf(" : x%d", e.count)
		}
		b.WriteString(fmt.Sprintf("%s %s %s%s\n", aliases[string(e.from)], arrow, aliases[string(e.to)], label))
	}

	b.WriteString("\nlegend right\n")
	b.WriteString("|= Item |= Meaning |\n")
	b.WriteString("|Package|Source file|\n")
	if len(externalNames) > 0 {
		b.WriteString("|<color:#DDDDDD>Component</color>|External symbol|\n")
	}
	if len(v.cycleEdges) > 0 {
		b.WriteString("|<color:#cc0000>Red edge</color>|Recursive call|\n")
	}
	b.WriteString("|xN|Number of call sites|\n")
	b.WriteString("endlegend\n")

	b.WriteString("\n@enduml\n")
	return b.String(), nil
}

func escapePlantUML(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
