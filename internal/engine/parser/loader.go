// # internal/engine/parser/loader.go
package parser

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

const (
	LanguageRust  = "rust"
	RustExtension = ".rs"
)

var (
	rustOnce sync.Once
	rustLang *sitter.Language
)

// RustLanguage returns the process-wide Rust grammar.
func RustLanguage() *sitter.Language {
	rustOnce.Do(func() {
		rustLang = sitter.NewLanguage(tree_sitter_rust.Language())
	})
	return rustLang
}

func IsRustSource(path string) bool {
	return strings.EqualFold(filepath.Ext(path), RustExtension)
}
