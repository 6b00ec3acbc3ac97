// # internal/engine/parser/types.go
package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Position is a 1-based line/column pair.
type Position struct {
	Line   int
	Column int
}

type Span struct {
	Start Position
	End   Position
}

// Tree is a parsed source file. The tree-sitter tree stays alive until Close,
// so nodes obtained from Root must not be used afterwards.
type Tree struct {
	Path   string
	Source []byte
	tree   *sitter.Tree
}

func (t *Tree) Root() *sitter.Node {
	if t == nil || t.tree == nil {
		return nil
	}
	return t.tree.RootNode()
}

func (t *Tree) Close() {
	if t == nil || t.tree == nil {
		return
	}
	t.tree.Close()
	t.tree = nil
}

func (t *Tree) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(t.Source[node.StartByte():node.EndByte()])
}

func (t *Tree) Span(node *sitter.Node) Span {
	if node == nil {
		return Span{}
	}
	start := node.StartPosition()
	end := node.EndPosition()
	return Span{
		Start: Position{Line: int(start.Row) + 1, Column: int(start.Column) + 1},
		End:   Position{Line: int(end.Row) + 1, Column: int(end.Column) + 1},
	}
}

// NamedChildren returns the named children of node in source order.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// FirstErrorNode returns the first ERROR or MISSING node under node, depth first.
func FirstErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := FirstErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
