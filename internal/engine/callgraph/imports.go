package callgraph

import (
	"docgen/internal/core/errors"
	"docgen/internal/engine/parser"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type ImportKind int

const (
	ImportLocal ImportKind = iota
	ImportExternal
)

// Import is one name brought into scope by a use declaration. ResolvedFile is
// only set for local imports.
type Import struct {
	Kind          ImportKind
	Identifier    string
	CanonicalPath string
	ResolvedFile  string
}

// ImportMap is keyed by the identifier the file uses.
type ImportMap map[string]Import

var sourceFileNames = []string{"lib.rs", "main.rs"}

// ImportResolver classifies use paths and locates the files local modules live in.
type ImportResolver struct {
	packageName string
	sourceRoot  string
}

// NewImportResolver creates a resolver for a crate. packageName is the
// snake_cased package name and may be empty. sourceRoot is used when the src
// directory cannot be found by walking up from the current file.
func NewImportResolver(packageName, sourceRoot string) *ImportResolver {
	return &ImportResolver{packageName: packageName, sourceRoot: sourceRoot}
}

func (r *ImportResolver) isLocalRoot(segment string) bool {
	switch segment {
	case "crate", "self", "super":
		return true
	}
	return r.packageName != "" && segment == r.packageName
}

// Resolve classifies segments as imported by currentFile.
func (r *ImportResolver) Resolve(segments []string, currentFile string) (Import, error) {
	if len(segments) == 0 {
		return Import{}, errors.New(errors.CodeImportResolution, "empty use path")
	}
	canonical := strings.Join(segments, "::")
	identifier := segments[len(segments)-1]

	if !r.isLocalRoot(segments[0]) {
		return Import{Kind: ImportExternal, Identifier: identifier, CanonicalPath: canonical}, nil
	}
	if len(segments) == 1 {
		return Import{}, errors.AddContext(
			errors.New(errors.CodeImportResolution, fmt.Sprintf("cannot import module root %q", canonical)),
			errors.CtxImport, canonical)
	}

	file, err := r.moduleFile(segments[:len(segments)-1], currentFile)
	if err != nil {
		return Import{}, errors.AddContext(errors.AddContext(err, errors.CtxImport, canonical), errors.CtxPath, currentFile)
	}
	return Import{
		Kind:          ImportLocal,
		Identifier:    identifier,
		CanonicalPath: canonical,
		ResolvedFile:  file,
	}, nil
}

func (r *ImportResolver) moduleFile(modulePath []string, currentFile string) (string, error) {
	currentDir := filepath.Dir(currentFile)
	root := modulePath[0]
	rest := modulePath[1:]

	var base string
	ups := 0
	switch root {
	case "self":
		base = currentDir
	case "super":
		base = filepath.Dir(currentDir)
		// super::super::x climbs one directory per leading super
		for len(rest) > 0 && rest[0] == "super" {
			base = filepath.Dir(base)
			rest = rest[1:]
			ups++
		}
	default:
		base = r.findSourceDir(currentDir)
		if base == "" {
			return "", errors.New(errors.CodeImportResolution, "could not locate crate src directory")
		}
	}

	if len(rest) == 0 {
		return r.rootModuleFile(root, base, currentFile, ups)
	}

	dir := filepath.Join(append([]string{base}, rest[:len(rest)-1]...)...)
	name := rest[len(rest)-1]
	candidates := []string{
		filepath.Join(dir, name+parser.RustExtension),
		filepath.Join(dir, name, "mod.rs"),
	}
	for _, c := range candidates {
		if isFile(c) {
			return c, nil
		}
	}
	return "", errors.New(errors.CodeImportResolution,
		fmt.Sprintf("module %s not found (tried %s)", strings.Join(modulePath, "::"), strings.Join(candidates, ", ")))
}

func (r *ImportResolver) rootModuleFile(root, base, currentFile string, ups int) (string, error) {
	switch root {
	case "self":
		return currentFile, nil
	case "super":
		currentDir := filepath.Dir(currentFile)
		ownerDir := currentDir
		if isModuleRootFile(currentFile) {
			ownerDir = filepath.Dir(currentDir)
		}
		for i := 0; i < ups; i++ {
			ownerDir = filepath.Dir(ownerDir)
		}
		if file, ok := r.moduleFileForDir(ownerDir); ok {
			return file, nil
		}
		return "", errors.New(errors.CodeImportResolution, fmt.Sprintf("parent module of %s not found", currentFile))
	default:
		for _, name := range sourceFileNames {
			if c := filepath.Join(base, name); isFile(c) {
				return c, nil
			}
		}
		return "", errors.New(errors.CodeImportResolution, fmt.Sprintf("crate root file not found in %s", base))
	}
}

// moduleFileForDir returns the file declaring the module whose children live in dir.
func (r *ImportResolver) moduleFileForDir(dir string) (string, bool) {
	if filepath.Base(dir) == "src" {
		for _, name := range sourceFileNames {
			if c := filepath.Join(dir, name); isFile(c) {
				return c, true
			}
		}
	}
	for _, c := range []string{filepath.Join(dir, "mod.rs"), dir + parser.RustExtension} {
		if isFile(c) {
			return c, true
		}
	}
	return "", false
}

func (r *ImportResolver) findSourceDir(start string) string {
	for dir := start; ; {
		if candidate := filepath.Join(dir, "src"); isDir(candidate) {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return r.sourceRoot
}

func isModuleRootFile(path string) bool {
	switch filepath.Base(path) {
	case "mod.rs", "lib.rs", "main.rs":
		return true
	}
	return false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// collectImports processes every use declaration reachable from the file's
// items. Items gated on cfg(test) are skipped, whether inline modules, use
// declarations or functions.
func collectImports(tree *parser.Tree, resolver *ImportResolver) (ImportMap, error) {
	imports := make(ImportMap)
	c := &importCollector{tree: tree, resolver: resolver, imports: imports}
	if err := c.items(tree.Root()); err != nil {
		return nil, err
	}
	return imports, nil
}

type importCollector struct {
	tree     *parser.Tree
	resolver *ImportResolver
	imports  ImportMap
}

func (c *importCollector) items(container *sitter.Node) error {
	testOnly := false
	for _, item := range parser.NamedChildren(container) {
		switch item.Kind() {
		case "attribute_item":
			if isCfgTest(c.tree.Text(item)) {
				testOnly = true
			}
			continue
		case "line_comment", "block_comment":
			continue
		}
		if testOnly {
			testOnly = false
			continue
		}
		switch item.Kind() {
		case "use_declaration":
			if err := c.useDeclaration(item); err != nil {
				return err
			}
		case "mod_item":
			if body := item.ChildByFieldName("body"); body != nil {
				if err := c.items(body); err != nil {
					return err
				}
			}
		case "function_item", "impl_item":
			if err := c.nested(item); err != nil {
				return err
			}
		}
	}
	return nil
}

// nested finds block-level use declarations inside function and impl bodies.
func (c *importCollector) nested(node *sitter.Node) error {
	for _, child := range parser.NamedChildren(node) {
		switch child.Kind() {
		case "use_declaration":
			if err := c.useDeclaration(child); err != nil {
				return err
			}
		case "mod_item":
			continue
		default:
			if err := c.nested(child); err != nil {
				return err
			}
		}
	}
	return nil
}

func isCfgTest(attr string) bool {
	compact := strings.ReplaceAll(attr, " ", "")
	return strings.Contains(compact, "cfg(test)")
}

func (c *importCollector) useDeclaration(decl *sitter.Node) error {
	arg := decl.ChildByFieldName("argument")
	if arg == nil {
		return nil
	}
	return c.useTree(arg, nil)
}

func (c *importCollector) useTree(node *sitter.Node, prefix []string) error {
	switch node.Kind() {
	case "use_as_clause", "use_wildcard":
		return c.unsupported(node)
	case "use_list":
		for _, item := range parser.NamedChildren(node) {
			if err := c.useTree(item, prefix); err != nil {
				return err
			}
		}
		return nil
	case "scoped_use_list":
		next := clonePath(prefix)
		if path := node.ChildByFieldName("path"); path != nil {
			next = append(next, c.pathSegments(path)...)
		}
		list := node.ChildByFieldName("list")
		if list == nil {
			return nil
		}
		return c.useTree(list, next)
	case "self":
		if len(prefix) > 0 {
			return c.add(clonePath(prefix))
		}
		return c.add([]string{"self"})
	default:
		return c.add(append(clonePath(prefix), c.pathSegments(node)...))
	}
}

func (c *importCollector) add(segments []string) error {
	imp, err := c.resolver.Resolve(segments, c.tree.Path)
	if err != nil {
		return err
	}
	c.imports[imp.Identifier] = imp
	return nil
}

func (c *importCollector) unsupported(node *sitter.Node) error {
	text := c.tree.Text(node)
	span := c.tree.Span(node)
	err := errors.New(errors.CodeUnsupportedImportForm,
		fmt.Sprintf("unsupported import form %q at %d:%d", text, span.Start.Line, span.Start.Column))
	return errors.AddContext(errors.AddContext(err, errors.CtxImport, text), errors.CtxPath, c.tree.Path)
}

// pathSegments flattens identifier and scoped_identifier nodes into segments.
func (c *importCollector) pathSegments(node *sitter.Node) []string {
	return pathSegments(c.tree, node)
}

func pathSegments(tree *parser.Tree, node *sitter.Node) []string {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "scoped_identifier", "scoped_type_identifier":
		segs := pathSegments(tree, node.ChildByFieldName("path"))
		if name := node.ChildByFieldName("name"); name != nil {
			segs = append(segs, tree.Text(name))
		}
		return segs
	case "generic_type":
		return pathSegments(tree, node.ChildByFieldName("type"))
	default:
		text := strings.TrimSpace(tree.Text(node))
		if text == "" {
			return nil
		}
		return []string{text}
	}
}

func clonePath(p []string) []string {
	out := make([]string, len(p), len(p)+2)
	copy(out, p)
	return out
}
