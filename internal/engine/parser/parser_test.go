// # internal/engine/parser/parser_test.go
package parser

import (
	"docgen/internal/core/errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParse_ValidRust(t *testing.T) {
	p := NewParser()

	code := `
use crate::handlers::list;

pub struct Server;

impl Server {
    pub fn run(&self) {
        list();
    }
}

fn main() {
    Server.run();
}
`
	tree, err := p.Parse("main.rs", []byte(code))
	if err != nil {
		t.Fatal(err)
	}
	defer tree.Close()

	root := tree.Root()
	if root == nil || root.Kind() != "source_file" {
		t.Fatalf("expected source_file root, got %v", root)
	}

	kinds := make(map[string]int)
	for _, child := range NamedChildren(root) {
		kinds[child.Kind()]++
	}
	for _, kind := range []string{"use_declaration", "struct_item", "impl_item", "function_item"} {
		if kinds[kind] != 1 {
			t.Errorf("expected one %s, got %d", kind, kinds[kind])
		}
	}
}

func TestParse_SpanAndText(t *testing.T) {
	p := NewParser()
	tree, err := p.Parse("lib.rs", []byte("fn a() {}\n\nfn helper() {\n}\n"))
	if err != nil {
		t.Fatal(err)
	}
	defer tree.Close()

	items := NamedChildren(tree.Root())
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	fn := items[1]
	if name := tree.Text(fn.ChildByFieldName("name")); name != "helper" {
		t.Errorf("expected helper, got %q", name)
	}
	span := tree.Span(fn)
	if span.Start.Line != 3 || span.Start.Column != 1 {
		t.Errorf("unexpected start %+v", span.Start)
	}
	if span.End.Line != 4 {
		t.Errorf("unexpected end %+v", span.End)
	}
}

func TestParse_SyntaxError(t *testing.T) {
	p := NewParser()
	_, err := p.Parse("broken.rs", []byte("fn main( {\n"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !errors.IsCode(err, errors.CodeParse) {
		t.Errorf("expected PARSE_ERROR, got %v", err)
	}
}

func TestParseFile_Missing(t *testing.T) {
	p := NewParser()
	_, err := p.ParseFile(filepath.Join(t.TempDir(), "nope.rs"))
	if !errors.IsCode(err, errors.CodeFileRead) {
		t.Errorf("expected FILE_READ_ERROR, got %v", err)
	}
}

func TestParseFile_ReleasesParser(t *testing.T) {
	p := NewParser()
	path := filepath.Join(t.TempDir(), "ok.rs")
	if err := os.WriteFile(path, []byte("fn ok() {}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	tree, err := p.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	tree.Close()
	tree.Close()

	if n := p.ActiveParsers(); n != 0 {
		t.Errorf("expected all parsers returned to pool, %d still leased", n)
	}
}

func TestIsRustSource(t *testing.T) {
	if !IsRustSource("src/main.rs") || !IsRustSource("LIB.RS") {
		t.Error("expected .rs files to be recognised")
	}
	if IsRustSource("Cargo.toml") {
		t.Error("Cargo.toml is not Rust source")
	}
}
