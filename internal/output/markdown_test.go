package output

import (
	"docgen/internal/core/errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReplaceBetweenMarkers(t *testing.T) {
	content := "# Title\n<!-- docgen:graph:start -->\nold\n<!-- docgen:graph:end -->\ntail\n"
	got, err := ReplaceBetweenMarkers(content, "graph", "new\n")
	if err != nil {
		t.Fatal(err)
	}
	want := "# Title\n<!-- docgen:graph:start -->\nnew\n<!-- docgen:graph:end -->\ntail\n"
	if got != want {
		t.Errorf("unexpected content:\n%s", got)
	}

	crlf := "a\r\n<!-- docgen:g:start -->\r\n<!-- docgen:g:end -->\r\n"
	got, err = ReplaceBetweenMarkers(crlf, "g", "x\ny")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "start -->\r\nx\r\ny\r\n<!--") {
		t.Errorf("expected CRLF line endings to be preserved, got %q", got)
	}
}

func TestReplaceBetweenMarkers_Errors(t *testing.T) {
	cases := map[string]struct {
		content string
		marker  string
	}{
		"EmptyMarker": {"x", " "},
		"Missing":     {"no markers here", "graph"},
		"Duplicated":  {"<!-- docgen:g:start --><!-- docgen:g:start --><!-- docgen:g:end -->", "g"},
		"Reversed":    {"<!-- docgen:g:end -->\n<!-- docgen:g:start -->", "g"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReplaceBetweenMarkers(tc.content, tc.marker, "x")
			if !errors.IsCode(err, errors.CodeValidationError) {
				t.Errorf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}

func TestInjectDiagram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README.md")
	if err := os.WriteFile(path, []byte("<!-- docgen:cg:start -->\n<!-- docgen:cg:end -->\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cg := buildFixture(t)
	diagram, err := NewMermaidGenerator(cg, nil).Generate()
	if err != nil {
		t.Fatal(err)
	}
	if err := InjectDiagram(path, "cg", MarkdownBlock("mermaid", diagram)); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "start -->\n```mermaid\n") || !strings.Contains(string(data), "flowchart LR") {
		t.Errorf("diagram not injected:\n%s", data)
	}

	if err := InjectDiagram(filepath.Join(t.TempDir(), "missing.md"), "cg", "x"); !errors.IsCode(err, errors.CodeFileRead) {
		t.Errorf("expected FILE_READ_ERROR, got %v", err)
	}
}
