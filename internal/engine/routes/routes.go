// Package routes recovers axum route registrations from the functions of a
// call graph.
package routes

import (
	"context"
	"docgen/internal/core/errors"
	"docgen/internal/engine/callgraph"
	"docgen/internal/engine/parser"
	"docgen/internal/shared/observability"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

var methodOrder = map[Method]int{MethodGet: 0, MethodPost: 1, MethodPut: 2, MethodPatch: 3, MethodDelete: 4}

// ParseMethod maps an axum routing function name (get, post, ...) to a Method.
func ParseMethod(name string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := methodOrder[m]; !ok {
		return "", errors.New(errors.CodeValidationError, fmt.Sprintf("invalid http method: %s", name))
	}
	return m, nil
}

type ParamLocation string

const (
	InPath  ParamLocation = "path"
	InQuery ParamLocation = "query"
)

type Parameter struct {
	Name     string
	In       ParamLocation
	DataType string
}

type Route struct {
	Path       string
	Method     Method
	Handler    string
	Parameters []Parameter
	DefinedIn  callgraph.NodeKey
	File       string
	Line       int
}

// IR is the framework-neutral description of an API.
type IR struct {
	Routes []Route
}

var pathParamPattern = regexp.MustCompile(`[:{]([A-Za-z_][A-Za-z0-9_]*)\}?`)

// PathParameters lists the parameters in an axum path, accepting both the
// "/:id" and "/{id}" styles.
func PathParameters(path string) []Parameter {
	var params []Parameter
	for _, seg := range strings.Split(path, "/") {
		if !strings.HasPrefix(seg, ":") && !strings.HasPrefix(seg, "{") {
			continue
		}
		if m := pathParamPattern.FindStringSubmatch(seg); m != nil {
			params = append(params, Parameter{Name: m[1], In: InPath, DataType: "string"})
		}
	}
	return params
}

// Extract scans the bodies of local functions in cg for `.route(path, method(handler)...)`
// chains. Routes are sorted by path then method; duplicates keep the first definition.
func Extract(ctx context.Context, cg *callgraph.CallGraph, p *parser.Parser) (*IR, error) {
	start := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues("routes").Observe(time.Since(start).Seconds())
	}()

	byFile := make(map[string][]callgraph.CallNode)
	var files []string
	for _, n := range cg.Locals() {
		if _, ok := byFile[n.File]; !ok {
			files = append(files, n.File)
		}
		byFile[n.File] = append(byFile[n.File], n)
	}

	ir := &IR{}
	seen := make(map[string]bool)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := extractFile(p, file, byFile[file])
		if err != nil {
			return nil, err
		}
		for _, r := range found {
			id := string(r.Method) + " " + r.Path
			if seen[id] {
				continue
			}
			seen[id] = true
			ir.Routes = append(ir.Routes, r)
		}
	}

	sort.SliceStable(ir.Routes, func(i, j int) bool {
		if ir.Routes[i].Path != ir.Routes[j].Path {
			return ir.Routes[i].Path < ir.Routes[j].Path
		}
		return methodOrder[ir.Routes[i].Method] < methodOrder[ir.Routes[j].Method]
	})
	return ir, nil
}

func extractFile(p *parser.Parser, file string, nodes []callgraph.CallNode) ([]Route, error) {
	tree, err := p.ParseFile(file)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	fns := make(map[parser.Position]*sitter.Node)
	collectFunctions(tree, tree.Root(), fns)

	var out []Route
	for _, n := range nodes {
		fn, ok := fns[n.Span.Start]
		if !ok {
			continue
		}
		e := &extractor{tree: tree, owner: n}
		e.walk(fn.ChildByFieldName("body"))
		out = append(out, e.routes...)
	}
	return out, nil
}

func collectFunctions(tree *parser.Tree, node *sitter.Node, out map[parser.Position]*sitter.Node) {
	for _, child := range parser.NamedChildren(node) {
		switch child.Kind() {
		case "function_item":
			out[tree.Span(child).Start] = child
		case "impl_item":
			collectFunctions(tree, child.ChildByFieldName("body"), out)
		}
	}
}

type extractor struct {
	tree   *parser.Tree
	owner  callgraph.CallNode
	routes []Route
}

func (e *extractor) walk(node *sitter.Node) {
	if node == nil {
		return
	}
	for _, child := range parser.NamedChildren(node) {
		e.walk(child)
	}
	// receivers first, so chained registrations come out in source order
	if node.Kind() == "call_expression" {
		e.route(node)
	}
}

// route handles `<router>.route("<path>", <method router>)`.
func (e *extractor) route(call *sitter.Node) {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "field_expression" {
		return
	}
	if e.tree.Text(fn.ChildByFieldName("field")) != "route" {
		return
	}
	args := parser.NamedChildren(call.ChildByFieldName("arguments"))
	if len(args) < 2 {
		return
	}
	path, ok := e.stringLiteral(args[0])
	if !ok {
		return
	}
	line := e.tree.Span(fn.ChildByFieldName("field")).Start.Line
	for _, h := range e.methodHandlers(args[1]) {
		e.routes = append(e.routes, Route{
			Path:       path,
			Method:     h.method,
			Handler:    h.handler,
			Parameters: PathParameters(path),
			DefinedIn:  e.owner.Key,
			File:       e.tree.Path,
			Line:       line,
		})
	}
}

type methodHandler struct {
	method  Method
	handler string
}

// methodHandlers flattens `get(a).post(b)` and `routing::get(a)` into pairs in
// source order.
func (e *extractor) methodHandlers(node *sitter.Node) []methodHandler {
	if node == nil || node.Kind() != "call_expression" {
		return nil
	}
	var out []methodHandler
	fn := node.ChildByFieldName("function")
	var name string
	switch fn.Kind() {
	case "identifier":
		name = e.tree.Text(fn)
	case "scoped_identifier":
		name = e.tree.Text(fn.ChildByFieldName("name"))
	case "field_expression":
		out = append(out, e.methodHandlers(fn.ChildByFieldName("value"))...)
		name = e.tree.Text(fn.ChildByFieldName("field"))
	}
	method, err := ParseMethod(name)
	if err != nil {
		return out
	}
	args := parser.NamedChildren(node.ChildByFieldName("arguments"))
	if len(args) == 0 {
		return out
	}
	return append(out, methodHandler{method: method, handler: e.tree.Text(args[0])})
}

func (e *extractor) stringLiteral(node *sitter.Node) (string, bool) {
	if node.Kind() != "string_literal" && node.Kind() != "raw_string_literal" {
		return "", false
	}
	text := e.tree.Text(node)
	text = strings.TrimLeft(text, "r#")
	text = strings.TrimRight(text, "#")
	return strings.Trim(text, `"`), true
}
