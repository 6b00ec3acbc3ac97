// Package callgraph builds a caller->callee graph for a Rust crate starting
// from one entry point. Calls are resolved through each file's use
// declarations; files are parsed on demand as calls lead into them.
package callgraph

import (
	"context"
	"docgen/internal/core/errors"
	"docgen/internal/engine/manifest"
	"docgen/internal/engine/parser"
	"docgen/internal/shared/observability"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var defaultExternalRoots = []string{"std", "core", "alloc"}

type options struct {
	parser        *parser.Parser
	externalRoots []string
}

type Option func(*options)

// WithParser shares a parser (and its pool) across builds.
func WithParser(p *parser.Parser) Option {
	return func(o *options) { o.parser = p }
}

// WithExternalRoots adds crate names whose paths are always external leaves.
func WithExternalRoots(roots ...string) Option {
	return func(o *options) { o.externalRoots = append(o.externalRoots, roots...) }
}

type BuildStats struct {
	// FilesParsed counts distinct files, not parse calls.
	FilesParsed int
	Duration    time.Duration
}

// CallGraph is the result of a build.
type CallGraph struct {
	Graph     *Graph
	Registry  *Registry
	Root      NodeKey
	EntryFile string
	Entry     EntryPoint
	Stats     BuildStats
}

// Build constructs the call graph reachable from entry in entryFile. When the
// entry definition does not exist the graph is empty. Any read, parse or import
// failure aborts the build.
func Build(ctx context.Context, entryFile string, entry EntryPoint, m *manifest.Manifest, opts ...Option) (*CallGraph, error) {
	start := time.Now()
	if m == nil {
		return nil, errors.New(errors.CodeValidationError, "manifest is required")
	}
	abs, err := filepath.Abs(entryFile)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "resolve entry file"), errors.CtxPath, entryFile)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.parser == nil {
		o.parser = parser.NewParser()
	}

	ctx, span := observability.Tracer.Start(ctx, "callgraph.Build")
	defer span.End()
	span.SetAttributes(
		attribute.String("entry_file", abs),
		attribute.String("entry", entry.String()),
	)

	b := newBuilder(m, o)
	if err := b.build(ctx, abs, entry, noParent, 0); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.BuildsTotal.WithLabelValues("error").Inc()
		return nil, errors.AddContext(err, errors.CtxOperation, "build call graph")
	}

	cg := &CallGraph{
		Graph:     b.graph,
		Registry:  b.registry,
		EntryFile: abs,
		Entry:     entry,
		Stats: BuildStats{
			FilesParsed: len(b.parsedFiles),
			Duration:    time.Since(start),
		},
	}
	if b.graph.NodeCount() > 0 {
		cg.Root = b.graph.Node(0)
	}

	observability.BuildsTotal.WithLabelValues("success").Inc()
	observability.BuildDuration.Observe(cg.Stats.Duration.Seconds())
	observability.GraphNodes.Set(float64(b.graph.NodeCount()))
	observability.GraphEdges.Set(float64(b.graph.EdgeCount()))
	observability.ExternalLeaves.Set(float64(len(cg.Externals())))
	span.SetAttributes(
		attribute.Int("nodes", b.graph.NodeCount()),
		attribute.Int("edges", b.graph.EdgeCount()),
		attribute.Int("files_parsed", len(b.parsedFiles)),
	)
	return cg, nil
}

func newBuilder(m *manifest.Manifest, o options) *builder {
	root, _ := filepath.Abs(m.Root())
	sourceRoot := filepath.Join(root, "src")
	pkg, _ := m.PackageName()

	roots := make(map[string]bool)
	for _, r := range defaultExternalRoots {
		roots[r] = true
	}
	for _, r := range m.Dependencies() {
		roots[r] = true
	}
	for _, r := range o.externalRoots {
		roots[manifest.SnakeCase(r)] = true
	}

	return &builder{
		graph:         NewGraph(),
		registry:      NewRegistry(),
		parser:        o.parser,
		resolver:      NewImportResolver(pkg, sourceRoot),
		keys:          keyspace{sourceRoot: sourceRoot, crateRoot: root},
		externalRoots: roots,
		parsedFiles:   make(map[string]bool),
	}
}

// Found reports whether the entry definition was located.
func (cg *CallGraph) Found() bool {
	return cg.Graph.NodeCount() > 0
}

// Nodes returns vertex metadata in vertex order.
func (cg *CallGraph) Nodes() []CallNode {
	out := make([]CallNode, 0, cg.Graph.NodeCount())
	for i := 0; i < cg.Graph.NodeCount(); i++ {
		n, _ := cg.Registry.Node(cg.Graph.Node(i))
		out = append(out, n)
	}
	return out
}

func (cg *CallGraph) Locals() []CallNode {
	return cg.filter(NodeLocal)
}

func (cg *CallGraph) Externals() []CallNode {
	return cg.filter(NodeExternal)
}

func (cg *CallGraph) filter(kind NodeKind) []CallNode {
	var out []CallNode
	for _, n := range cg.Nodes() {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// KeyedEdge is an edge expressed with node keys.
type KeyedEdge struct {
	From NodeKey
	To   NodeKey
}

// Edges returns edges in insertion order.
func (cg *CallGraph) Edges() []KeyedEdge {
	edges := cg.Graph.Edges()
	out := make([]KeyedEdge, 0, len(edges))
	for _, e := range edges {
		out = append(out, KeyedEdge{From: cg.Graph.Node(e.From), To: cg.Graph.Node(e.To)})
	}
	return out
}

// Calls returns every resolved call: graph edges in insertion order followed
// by back-references.
func (cg *CallGraph) Calls() []KeyedEdge {
	return append(cg.Edges(), cg.Registry.BackRefs()...)
}

// Callees returns the keys called from key: graph successors in call-site
// order, then back-referenced callees.
func (cg *CallGraph) Callees(key NodeKey) []NodeKey {
	idx, ok := cg.Registry.Lookup(key)
	if !ok {
		return nil
	}
	var out []NodeKey
	for _, s := range cg.Graph.Successors(idx) {
		out = append(out, cg.Graph.Node(s))
	}
	for _, ref := range cg.Registry.backRefs {
		if ref.From == key {
			out = append(out, ref.To)
		}
	}
	return out
}
