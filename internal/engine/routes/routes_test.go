package routes

import (
	"context"
	"docgen/internal/engine/callgraph"
	"docgen/internal/engine/manifest"
	"docgen/internal/engine/parser"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_AxumRouter(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"Cargo.toml": `[package]
name = "shop"

[dependencies]
axum = "0.7"
`,
		"src/main.rs": `use crate::router::build;

fn main() {
    let app = build();
}
`,
		"src/router.rs": `use axum::{Router, routing::{get, post}};
use crate::handlers::list_items;

pub fn build() -> Router {
    Router::new()
        .route("/items", get(list_items).post(handlers::create_item))
        .route("/items/:id", axum::routing::delete(remove_item))
        .route("/items", get(duplicate))
        .route(r"/health", get(health))
}
`,
		"src/handlers.rs": `pub fn list_items() {}
`,
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	m, err := manifest.Load(root)
	require.NoError(t, err)

	p := parser.NewParser()
	cg, err := callgraph.Build(context.Background(), filepath.Join(root, "src", "main.rs"), callgraph.Function("main"), m, callgraph.WithParser(p))
	require.NoError(t, err)

	ir, err := Extract(context.Background(), cg, p)
	require.NoError(t, err)
	require.Len(t, ir.Routes, 4)

	assert.Equal(t, "/health", ir.Routes[0].Path)
	assert.Equal(t, Route{
		Path:      "/items",
		Method:    MethodGet,
		Handler:   "list_items",
		DefinedIn: "router::build",
		File:      filepath.Join(root, "src", "router.rs"),
		Line:      6,
	}, ir.Routes[1])
	assert.Equal(t, MethodPost, ir.Routes[2].Method)
	assert.Equal(t, "handlers::create_item", ir.Routes[2].Handler)
	assert.Equal(t, MethodDelete, ir.Routes[3].Method)
	assert.Equal(t, []Parameter{{Name: "id", In: InPath, DataType: "string"}}, ir.Routes[3].Parameters)
}

func TestPathParameters(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/", nil},
		{"/users/:id", []string{"id"}},
		{"/users/{user_id}/posts/{post_id}", []string{"user_id", "post_id"}},
		{"/files/:name/raw", []string{"name"}},
	}
	for _, tt := range tests {
		var got []string
		for _, p := range PathParameters(tt.path) {
			got = append(got, p.Name)
		}
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("patch")
	require.NoError(t, err)
	assert.Equal(t, MethodPatch, m)

	_, err = ParseMethod("options")
	assert.Error(t, err)
}
