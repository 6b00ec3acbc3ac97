// # internal/output/view.go
package output

import (
	"docgen/internal/core/errors"
	"docgen/internal/engine/callgraph"
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// ExternalFilter hides external leaves whose key matches any pattern. Patterns
// use "::" as the separator, so "std::fmt::*" matches one level and
// "std::**" matches everything under std.
type ExternalFilter struct {
	patterns []glob.Glob
}

func NewExternalFilter(patterns []string) (*ExternalFilter, error) {
	f := &ExternalFilter{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, ':')
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid external filter %q", p)), errors.CtxOperation, "compile external filter")
		}
		f.patterns = append(f.patterns, g)
	}
	return f, nil
}

func (f *ExternalFilter) Hidden(key callgraph.NodeKey) bool {
	if f == nil {
		return false
	}
	for _, g := range f.patterns {
		if g.Match(string(key)) {
			return true
		}
	}
	return false
}

type viewEdge struct {
	from  callgraph.NodeKey
	to    callgraph.NodeKey
	count int
}

// graphView is the renderer-facing projection of a call graph: filtered
// externals, edges collapsed with call-site counts, recursion marked.
type graphView struct {
	locals     []callgraph.CallNode
	externals  []callgraph.CallNode
	nodes      map[callgraph.NodeKey]callgraph.CallNode
	edges      []viewEdge
	cycleNodes map[callgraph.NodeKey]bool
	cycleEdges map[string]bool
	root       callgraph.NodeKey
}

func newGraphView(cg *callgraph.CallGraph, filter *ExternalFilter) *graphView {
	v := &graphView{
		nodes:      make(map[callgraph.NodeKey]callgraph.CallNode),
		cycleNodes: make(map[callgraph.NodeKey]bool),
		cycleEdges: make(map[string]bool),
		root:       cg.Root,
	}
	for _, n := range cg.Nodes() {
		if n.Kind == callgraph.NodeExternal {
			if filter.Hidden(n.Key) {
				continue
			}
			v.externals = append(v.externals, n)
		} else {
			v.locals = append(v.locals, n)
		}
		v.nodes[n.Key] = n
	}
	sortNodes(v.locals)
	sortNodes(v.externals)

	index := make(map[string]int)
	for _, e := range cg.Calls() {
		if _, ok := v.nodes[e.To]; !ok {
			continue
		}
		id := edgeID(e.From, e.To)
		if i, ok := index[id]; ok {
			v.edges[i].count++
			continue
		}
		index[id] = len(v.edges)
		v.edges = append(v.edges, viewEdge{from: e.From, to: e.To, count: 1})
	}
	sort.SliceStable(v.edges, func(i, j int) bool {
		if v.edges[i].from != v.edges[j].from {
			return v.edges[i].from < v.edges[j].from
		}
		return v.edges[i].to < v.edges[j].to
	})

	for _, cycle := range cg.DetectCycles() {
		for i, key := range cycle {
			v.cycleNodes[key] = true
			v.cycleEdges[edgeID(key, cycle[(i+1)%len(cycle)])] = true
		}
	}
	return v
}

func (v *graphView) isExternal(key callgraph.NodeKey) bool {
	return v.nodes[key].Kind == callgraph.NodeExternal
}

// groups returns local nodes keyed by their file prefix, in sorted order.
func (v *graphView) groups() ([]string, map[string][]callgraph.CallNode) {
	byGroup := make(map[string][]callgraph.CallNode)
	for _, n := range v.locals {
		g := fileGroup(n)
		byGroup[g] = append(byGroup[g], n)
	}
	names := make([]string, 0, len(byGroup))
	for g := range byGroup {
		names = append(names, g)
	}
	sort.Strings(names)
	return names, byGroup
}

// fileGroup is the key prefix shared by every definition in the node's file.
func fileGroup(n callgraph.CallNode) string {
	trim := "::" + n.QualifiedName()
	return strings.TrimSuffix(string(n.Key), trim)
}

func sortNodes(nodes []callgraph.CallNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Key < nodes[j].Key })
}

func edgeID(from, to callgraph.NodeKey) string {
	return string(from) + "->" + string(to)
}
