package callgraph

import (
	"context"
	"docgen/internal/engine/parser"
	"fmt"
	"log/slog"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type targetKind int

const (
	targetUnresolved targetKind = iota
	targetLocal
	targetExternal
	targetSelf
)

// callTarget is what a call expression resolved to.
type callTarget struct {
	kind   targetKind
	file   string
	entry  EntryPoint
	path   string
	method string
}

// definition is a located fn item and, for methods, its impl block.
type definition struct {
	fn       *sitter.Node
	impl     *sitter.Node
	typeName string
}

// fileWalker visits call sites inside the bodies of one parsed file.
type fileWalker struct {
	b       *builder
	tree    *parser.Tree
	imports ImportMap
}

func (w *fileWalker) walkBody(ctx context.Context, def definition, caller, depth int) error {
	return w.visit(ctx, def.fn.ChildByFieldName("body"), def, caller, depth)
}

func (w *fileWalker) visit(ctx context.Context, node *sitter.Node, def definition, caller, depth int) error {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	// nested items are not executed by the enclosing body
	case "function_item", "impl_item", "mod_item", "trait_item":
		return nil
	case "call_expression":
		if err := w.call(ctx, node, def, caller, depth); err != nil {
			return err
		}
	}
	for _, child := range parser.NamedChildren(node) {
		if err := w.visit(ctx, child, def, caller, depth); err != nil {
			return err
		}
	}
	return nil
}

func (w *fileWalker) call(ctx context.Context, call *sitter.Node, def definition, caller, depth int) error {
	fn := call.ChildByFieldName("function")
	target := w.classify(fn, def)

	switch target.kind {
	case targetLocal:
		slog.Debug(indent(depth)+"found fn call "+target.entry.String(), "depth", depth, "file", target.file)
		return w.b.build(ctx, target.file, target.entry, caller, depth+1)
	case targetExternal:
		slog.Debug(indent(depth)+"found external call "+target.path, "depth", depth)
		w.b.enter(externalNode(target.path), caller)
		return nil
	case targetSelf:
		return w.selfCall(ctx, def, target.method, caller, depth)
	case targetUnresolved:
		return nil
	default:
		panic(fmt.Sprintf("callgraph: unhandled call target kind %d", target.kind))
	}
}

func (w *fileWalker) selfCall(ctx context.Context, def definition, method string, caller, depth int) error {
	fn := findMethod(w.tree, def.impl, method)
	if fn == nil {
		return nil
	}
	slog.Debug(indent(depth)+"found Self::"+method, "depth", depth, "type", def.typeName)
	callee := definition{fn: fn, impl: def.impl, typeName: def.typeName}
	idx, created := w.b.enter(w.b.localNode(w.tree, callee), caller)
	if !created {
		return nil
	}
	return w.walkBody(ctx, callee, idx, depth+1)
}

func (w *fileWalker) classify(fn *sitter.Node, def definition) callTarget {
	if fn == nil {
		return callTarget{}
	}
	switch fn.Kind() {
	case "identifier":
		return w.fromImport(w.tree.Text(fn), "")
	case "generic_function":
		return w.classify(fn.ChildByFieldName("function"), def)
	case "scoped_identifier":
		return w.scoped(pathSegments(w.tree, fn), def)
	default:
		// method-call syntax, closures and computed callees
		return callTarget{}
	}
}

func (w *fileWalker) scoped(segs []string, def definition) callTarget {
	if len(segs) < 2 {
		return callTarget{}
	}
	head := segs[0]
	if len(segs) == 2 {
		if head == "Self" {
			if def.impl == nil {
				return callTarget{}
			}
			return callTarget{kind: targetSelf, method: segs[1]}
		}
		if _, ok := w.imports[head]; ok {
			return w.fromImport(head, segs[1])
		}
	}
	if imp, ok := w.imports[head]; ok && imp.Kind == ImportExternal {
		return callTarget{kind: targetExternal, path: joinPath(append([]string{imp.CanonicalPath}, segs[1:]...))}
	}
	if w.b.externalRoots[head] {
		return callTarget{kind: targetExternal, path: joinPath(segs)}
	}
	return callTarget{}
}

// fromImport resolves name (optionally qualified by member) against the import map.
func (w *fileWalker) fromImport(name, member string) callTarget {
	imp, ok := w.imports[name]
	if !ok {
		return callTarget{}
	}
	switch imp.Kind {
	case ImportLocal:
		entry := Function(name)
		if member != "" {
			entry = Method(name, member)
		}
		return callTarget{kind: targetLocal, file: imp.ResolvedFile, entry: entry}
	case ImportExternal:
		path := imp.CanonicalPath
		if member != "" {
			path += "::" + member
		}
		return callTarget{kind: targetExternal, path: path}
	}
	return callTarget{}
}

func externalNode(path string) CallNode {
	ident := path
	if i := strings.LastIndex(path, "::"); i >= 0 {
		ident = path[i+2:]
	}
	return CallNode{Key: NodeKey(path), Kind: NodeExternal, Identifier: ident}
}

// locate finds the entry definition among the file's top-level items.
func locate(tree *parser.Tree, entry EntryPoint) (definition, bool) {
	for _, item := range parser.NamedChildren(tree.Root()) {
		switch entry.Kind {
		case EntryFunction:
			if item.Kind() == "function_item" && fnName(tree, item) == entry.Name {
				return definition{fn: item}, true
			}
		case EntryMethod:
			if item.Kind() != "impl_item" || implTypeName(tree, item) != entry.TypeName {
				continue
			}
			if fn := findMethod(tree, item, entry.Name); fn != nil {
				return definition{fn: fn, impl: item, typeName: entry.TypeName}, true
			}
		}
	}
	return definition{}, false
}

func findMethod(tree *parser.Tree, impl *sitter.Node, name string) *sitter.Node {
	if impl == nil {
		return nil
	}
	for _, item := range parser.NamedChildren(impl.ChildByFieldName("body")) {
		if item.Kind() == "function_item" && fnName(tree, item) == name {
			return item
		}
	}
	return nil
}

func fnName(tree *parser.Tree, fn *sitter.Node) string {
	return tree.Text(fn.ChildByFieldName("name"))
}

// implTypeName is the last identifier of an impl block's self type.
func implTypeName(tree *parser.Tree, impl *sitter.Node) string {
	segs := pathSegments(tree, impl.ChildByFieldName("type"))
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

func joinPath(segs []string) string {
	return strings.Join(segs, "::")
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}
