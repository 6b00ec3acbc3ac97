// # internal/output/output_test.go
package output

import (
	"context"
	"docgen/internal/engine/callgraph"
	"docgen/internal/engine/manifest"
	"docgen/internal/engine/routes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

// buildFixture builds main -> {a::ping x2, std::fs::read}, ping <-> pong.
func buildFixture(t *testing.T) *callgraph.CallGraph {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"Cargo.toml": "[package]\nname = \"demo\"\n",
		"src/main.rs": `use crate::a::ping;
fn main() {
    ping();
    ping();
    std::fs::read("x");
    std::fmt::format(1);
}
`,
		"src/a.rs": `use crate::b::pong;
pub fn ping() { pong(); }
`,
		"src/b.rs": `use crate::a::ping;
pub fn pong() { ping(); }
`,
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	m, err := manifest.Load(root)
	if err != nil {
		t.Fatal(err)
	}
	cg, err := callgraph.Build(context.Background(), filepath.Join(root, "src", "main.rs"), callgraph.Function("main"), m)
	if err != nil {
		t.Fatal(err)
	}
	return cg
}

func mustFilter(t *testing.T, patterns ...string) *ExternalFilter {
	t.Helper()
	f, err := NewExternalFilter(patterns)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestDOTGenerator(t *testing.T) {
	cg := buildFixture(t)
	dot, err := NewDOTGenerator(cg, nil).Generate()
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(dot, "digraph callgraph") {
		t.Error("DOT output missing digraph header")
	}
	if !strings.Contains(dot, "\"main::main\" -> \"a::ping\"") {
		t.Error("DOT output missing edge main -> ping")
	}
	if !strings.Contains(dot, "taillabel=\"x2\"") {
		t.Error("DOT output should count repeated call sites")
	}
	if !strings.Contains(dot, "RECURSION") {
		t.Error("DOT output missing RECURSION label")
	}
	if !strings.Contains(dot, "\"std::fs::read\" [label=\"std::fs::read\"]") {
		t.Error("DOT output missing external leaf")
	}
}

func TestExternalFilter(t *testing.T) {
	cg := buildFixture(t)
	dot, err := NewDOTGenerator(cg, mustFilter(t, "std::fmt::*")).Generate()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(dot, "std::fmt::format") {
		t.Error("filtered external leaf should not be rendered")
	}
	if !strings.Contains(dot, "std::fs::read") {
		t.Error("unfiltered external leaf should be rendered")
	}

	f := mustFilter(t, "std::*")
	if f.Hidden("std::fs::read") {
		t.Error("single star must not cross :: separators")
	}
	if !mustFilter(t, "std::**").Hidden("std::fs::read") {
		t.Error("double star should match nested paths")
	}
	if _, err := NewExternalFilter([]string{"std::[fs"}); err == nil {
		t.Error("expected error for malformed pattern")
	}
}

func TestTSVGenerator(t *testing.T) {
	cg := buildFixture(t)
	tsv, err := NewTSVGenerator(cg, nil).Generate()
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(tsv), "\n")
	// header + main->ping, main->read, main->format, ping->pong, pong->ping
	if len(lines) != 6 {
		t.Fatalf("Expected 6 lines in TSV, got %d:\n%s", len(lines), tsv)
	}
	if !strings.HasPrefix(lines[0], "From\tTo\tKind\tCalls") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	var pingRow string
	for _, l := range lines {
		if strings.HasPrefix(l, "main::main\ta::ping\t") {
			pingRow = l
		}
	}
	if !strings.Contains(pingRow, "\tlocal\t2\t") || !strings.HasSuffix(pingRow, "\t2\t1") {
		t.Errorf("Unexpected TSV line: %q", pingRow)
	}
}

func TestMermaidGenerator(t *testing.T) {
	cg := buildFixture(t)
	out, err := NewMermaidGenerator(cg, nil).Generate()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"flowchart LR",
		"subgraph file_main[\"main\"]",
		"main__main -->|x2| a__ping",
		"a__ping -->|RECURSION| b__pong",
		"class main__main rootNode;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("mermaid output missing %q:\n%s", want, out)
		}
	}
}

func TestPlantUMLGenerator(t *testing.T) {
	cg := buildFixture(t)
	out, err := NewPlantUMLGenerator(cg, nil).Generate()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "@startuml") || !strings.Contains(out, "@enduml") {
		t.Error("plantuml output missing start/end markers")
	}
	if !strings.Contains(out, "package \"a\" {") {
		t.Error("plantuml output missing file package")
	}
	if !strings.Contains(out, "main__main --> a__ping : x2") {
		t.Errorf("plantuml output missing counted edge:\n%s", out)
	}
}

func TestJSONGenerator(t *testing.T) {
	cg := buildFixture(t)
	out, err := NewJSONGenerator(cg, nil).Generate()
	if err != nil {
		t.Fatal(err)
	}
	var doc jsonDocument
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Root != "main::main" || doc.Entry != "main" {
		t.Errorf("unexpected header %+v", doc)
	}
	if len(doc.Nodes) != 5 || len(doc.Edges) != 5 {
		t.Errorf("expected 5 nodes and 5 edges, got %d and %d", len(doc.Nodes), len(doc.Edges))
	}
	if len(doc.Cycles) != 1 {
		t.Errorf("expected one cycle, got %v", doc.Cycles)
	}
	for _, n := range doc.Nodes {
		if n.Kind == "external" && (n.File != "" || n.Start != nil) {
			t.Errorf("external node %s should carry no location", n.Key)
		}
	}
}

func TestTreeGenerator(t *testing.T) {
	cg := buildFixture(t)
	out, err := NewTreeGenerator(cg, mustFilter(t, "std::fmt::*")).Generate()
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"main::main",
		"  a::ping",
		"    b::pong",
		"      a::ping [recursive]",
		"  std::fs::read [external]",
		"",
	}, "\n")
	if out != want {
		t.Errorf("unexpected tree:\n%s\nwant:\n%s", out, want)
	}
}

func TestOpenAPI(t *testing.T) {
	ir := &routes.IR{Routes: []routes.Route{
		{Path: "/items", Method: routes.MethodGet, Handler: "list_items"},
		{Path: "/items", Method: routes.MethodPost, Handler: "handlers::create_item"},
		{Path: "/items/:id", Method: routes.MethodGet, Handler: "get_item", Parameters: routes.PathParameters("/items/:id")},
		{Path: "/legacy/:id", Method: routes.MethodGet, Handler: "get_item", Parameters: routes.PathParameters("/legacy/:id")},
	}}

	doc, err := BuildOpenAPI(ir, OpenAPIInfo{})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Info.Title != "Generated API" || doc.OpenAPI != "3.0.3" {
		t.Errorf("unexpected info %+v", doc.Info)
	}

	item := doc.Paths.Value("/items/{id}")
	if item == nil || item.Get == nil {
		t.Fatal("expected GET /items/{id}")
	}
	if len(item.Get.Parameters) != 1 || item.Get.Parameters[0].Value.Name != "id" || !item.Get.Parameters[0].Value.Required {
		t.Errorf("unexpected parameters %+v", item.Get.Parameters)
	}
	if resp := item.Get.Responses.Status(200); resp == nil || *resp.Value.Description != "Successful operation" {
		t.Error("expected 200 response")
	}
	if doc.Paths.Value("/items").Post.OperationID != "create_item" {
		t.Error("operation id should use the handler name")
	}
	if doc.Paths.Value("/legacy/{id}").Get.OperationID != "get_item_get" {
		t.Errorf("duplicate handler should get a unique id, got %q", doc.Paths.Value("/legacy/{id}").Get.OperationID)
	}

	data, err := MarshalOpenAPIYAML(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "openapi: 3.0.3") {
		t.Errorf("yaml should be block style:\n%s", data)
	}
	loaded, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		t.Fatalf("reload yaml: %v", err)
	}
	if err := loaded.Validate(context.Background()); err != nil {
		t.Fatalf("reloaded document invalid: %v", err)
	}
	if loaded.Paths.Len() != 3 {
		t.Errorf("expected 3 paths, got %d", loaded.Paths.Len())
	}
}

func TestToOpenAPIPath(t *testing.T) {
	cases := map[string]string{
		"/":                     "/",
		"/users/:id":            "/users/{id}",
		"/a/:x/b/:y":            "/a/{x}/b/{y}",
		"/already/{templated}": "/already/{templated}",
	}
	for in, want := range cases {
		if got := ToOpenAPIPath(in); got != want {
			t.Errorf("ToOpenAPIPath(%q) = %q, want %q", in, got, want)
		}
	}
}
