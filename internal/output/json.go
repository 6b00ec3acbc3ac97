package output

import (
	"docgen/internal/engine/callgraph"
	"encoding/json"
)

type jsonPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type jsonNode struct {
	Key        string        `json:"key"`
	Kind       string        `json:"kind"`
	Type       string        `json:"type,omitempty"`
	Identifier string        `json:"identifier"`
	File       string        `json:"file,omitempty"`
	Start      *jsonPosition `json:"start,omitempty"`
	End        *jsonPosition `json:"end,omitempty"`
	Recursive  bool          `json:"recursive,omitempty"`
}

type jsonEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Calls int    `json:"calls"`
}

type jsonDocument struct {
	Entry       string     `json:"entry"`
	EntryFile   string     `json:"entry_file"`
	Root        string     `json:"root,omitempty"`
	FilesParsed int        `json:"files_parsed"`
	Nodes       []jsonNode `json:"nodes"`
	Edges       []jsonEdge `json:"edges"`
	Cycles      [][]string `json:"cycles,omitempty"`
}

type JSONGenerator struct {
	graph  *callgraph.CallGraph
	filter *ExternalFilter
}

func NewJSONGenerator(cg *callgraph.CallGraph, filter *ExternalFilter) *JSONGenerator {
	return &JSONGenerator{graph: cg, filter: filter}
}

func (j *JSONGenerator) Generate() (string, error) {
	v := newGraphView(j.graph, j.filter)
	doc := jsonDocument{
		Entry:       j.graph.Entry.String(),
		EntryFile:   j.graph.EntryFile,
		Root:        string(j.graph.Root),
		FilesParsed: j.graph.Stats.FilesParsed,
		Nodes:       make([]jsonNode, 0, len(v.locals)+len(v.externals)),
		Edges:       make([]jsonEdge, 0, len(v.edges)),
	}

	for _, n := range append(append([]callgraph.CallNode{}, v.locals...), v.externals...) {
		jn := jsonNode{
			Key:        string(n.Key),
			Kind:       n.Kind.String(),
			Type:       n.TypeName,
			Identifier: n.Identifier,
			File:       n.File,
			Recursive:  v.cycleNodes[n.Key],
		}
		if n.Kind == callgraph.NodeLocal {
			jn.Start = &jsonPosition{Line: n.Span.Start.Line, Column: n.Span.Start.Column}
			jn.End = &jsonPosition{Line: n.Span.End.Line, Column: n.Span.End.Column}
		}
		doc.Nodes = append(doc.Nodes, jn)
	}
	for _, e := range v.edges {
		doc.Edges = append(doc.Edges, jsonEdge{From: string(e.from), To: string(e.to), Calls: e.count})
	}
	for _, cycle := range j.graph.DetectCycles() {
		keys := make([]string, 0, len(cycle))
		for _, k := range cycle {
			keys = append(keys, string(k))
		}
		doc.Cycles = append(doc.Cycles, keys)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
