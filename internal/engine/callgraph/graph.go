package callgraph

import (
	"docgen/internal/engine/parser"
	"path/filepath"
	"sort"
	"strings"
)

// NodeKey is the canonical identity of a resolved symbol:
// <file segments>::[<type>::]<fn> for local definitions, the canonical path for
// external ones.
type NodeKey string

type NodeKind int

const (
	NodeLocal NodeKind = iota
	NodeExternal
)

func (k NodeKind) String() string {
	if k == NodeExternal {
		return "external"
	}
	return "local"
}

// CallNode is the metadata attached to a vertex.
type CallNode struct {
	Key        NodeKey
	Kind       NodeKind
	TypeName   string
	Identifier string
	File       string
	Span       parser.Span
}

// QualifiedName is "Type::fn" for methods and the bare identifier otherwise.
func (n CallNode) QualifiedName() string {
	if n.TypeName != "" {
		return n.TypeName + "::" + n.Identifier
	}
	return n.Identifier
}

type Edge struct {
	From int
	To   int
}

// Graph is an arena of vertices (payload = NodeKey) and directed caller->callee
// edges. Vertex identity is deduplicated by Registry; edges are not.
type Graph struct {
	nodes []NodeKey
	edges []Edge
	out   [][]int
}

func NewGraph() *Graph {
	return &Graph{}
}

func (g *Graph) AddNode(key NodeKey) int {
	g.nodes = append(g.nodes, key)
	g.out = append(g.out, nil)
	return len(g.nodes) - 1
}

func (g *Graph) AddEdge(from, to int) {
	g.edges = append(g.edges, Edge{From: from, To: to})
	g.out[from] = append(g.out[from], to)
}

func (g *Graph) NodeCount() int { return len(g.nodes) }
func (g *Graph) EdgeCount() int { return len(g.edges) }

func (g *Graph) Node(idx int) NodeKey { return g.nodes[idx] }

// Edges returns edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Successors returns callee indices of idx in call-site order, duplicates included.
func (g *Graph) Successors(idx int) []int {
	out := make([]int, len(g.out[idx]))
	copy(out, g.out[idx])
	return out
}

// Registry maps NodeKey to vertex index and CallNode metadata. It only grows.
// Calls that reach an already registered local definition through the builder
// add no edge; they are kept as back-references instead.
type Registry struct {
	index    map[NodeKey]int
	nodes    map[NodeKey]CallNode
	backRefs []KeyedEdge
}

func NewRegistry() *Registry {
	return &Registry{
		index: make(map[NodeKey]int),
		nodes: make(map[NodeKey]CallNode),
	}
}

func (r *Registry) Lookup(key NodeKey) (int, bool) {
	idx, ok := r.index[key]
	return idx, ok
}

func (r *Registry) Node(key NodeKey) (CallNode, bool) {
	n, ok := r.nodes[key]
	return n, ok
}

func (r *Registry) Len() int { return len(r.index) }

// Keys returns all registered keys, sorted.
func (r *Registry) Keys() []NodeKey {
	keys := make([]NodeKey, 0, len(r.index))
	for k := range r.index {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// BackRefs returns the skipped caller->callee references in the order they
// were met.
func (r *Registry) BackRefs() []KeyedEdge {
	out := make([]KeyedEdge, len(r.backRefs))
	copy(out, r.backRefs)
	return out
}

func (r *Registry) register(node CallNode, idx int) {
	r.index[node.Key] = idx
	r.nodes[node.Key] = node
}

func (r *Registry) recordBackRef(from, to NodeKey) {
	r.backRefs = append(r.backRefs, KeyedEdge{From: from, To: to})
}

// keyspace derives file prefixes of node keys from source file paths.
type keyspace struct {
	sourceRoot string
	crateRoot  string
}

func (k keyspace) filePrefix(path string) string {
	rel := path
	for _, root := range []string{k.sourceRoot, k.crateRoot} {
		if root == "" {
			continue
		}
		if r, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
			break
		}
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), parser.RustExtension)
	rel = strings.TrimPrefix(rel, "/")
	return strings.ReplaceAll(rel, "/", "::")
}

func (k keyspace) localKey(path, typeName, fn string) NodeKey {
	parts := []string{k.filePrefix(path)}
	if typeName != "" {
		parts = append(parts, typeName)
	}
	parts = append(parts, fn)
	return NodeKey(strings.Join(parts, "::"))
}
