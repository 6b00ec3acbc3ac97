package callgraph

import (
	"context"
	"docgen/internal/engine/parser"
	"docgen/internal/shared/observability"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
)

const noParent = -1

// builder is the shared state of one build. It is owned by a single goroutine.
type builder struct {
	graph         *Graph
	registry      *Registry
	parser        *parser.Parser
	resolver      *ImportResolver
	keys          keyspace
	externalRoots map[string]bool
	parsedFiles   map[string]bool
}

// build parses file, locates entry and, if the definition has not been seen
// before, registers it, links it from parent and walks its body. An already
// registered definition is left alone; the call is only noted as a
// back-reference.
func (b *builder) build(ctx context.Context, file string, entry EntryPoint, parent, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := observability.Tracer.Start(ctx, "callgraph.file")
	defer span.End()
	span.SetAttributes(
		attribute.String("file", file),
		attribute.String("entry", entry.String()),
		attribute.Int("depth", depth),
	)

	tree, err := b.parser.ParseFile(file)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer tree.Close()
	b.parsedFiles[file] = true

	imports, err := collectImports(tree, b.resolver)
	if err != nil {
		span.RecordError(err)
		return err
	}

	def, ok := locate(tree, entry)
	if !ok {
		slog.Debug(indent(depth)+"entry not found "+entry.String(), "depth", depth, "file", file)
		return nil
	}

	node := b.localNode(tree, def)
	if _, ok := b.registry.Lookup(node.Key); ok {
		if parent != noParent {
			b.registry.recordBackRef(b.graph.Node(parent), node.Key)
		}
		slog.Debug(indent(depth)+"already registered "+string(node.Key), "depth", depth)
		return nil
	}
	idx, _ := b.enter(node, parent)
	slog.Debug(indent(depth)+"entered "+string(b.graph.Node(idx)), "depth", depth, "file", file)

	w := &fileWalker{b: b, tree: tree, imports: imports}
	return w.walkBody(ctx, def, idx, depth+1)
}

// enter returns the vertex for node, creating it when the key is new, and adds
// the parent edge either way. External leaves and Self:: calls go through here.
func (b *builder) enter(node CallNode, parent int) (int, bool) {
	idx, ok := b.registry.Lookup(node.Key)
	created := !ok
	if created {
		idx = b.graph.AddNode(node.Key)
		b.registry.register(node, idx)
	}
	if parent != noParent {
		b.graph.AddEdge(parent, idx)
	}
	return idx, created
}

func (b *builder) localNode(tree *parser.Tree, def definition) CallNode {
	name := fnName(tree, def.fn)
	return CallNode{
		Key:        b.keys.localKey(tree.Path, def.typeName, name),
		Kind:       NodeLocal,
		TypeName:   def.typeName,
		Identifier: name,
		File:       tree.Path,
		Span:       tree.Span(def.fn),
	}
}
