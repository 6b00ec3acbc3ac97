// # internal/engine/parser/parser.go
package parser

import (
	"docgen/internal/core/errors"
	"docgen/internal/shared/observability"
	"fmt"
	"os"
	"time"
)

// Parser turns Rust source files into syntax trees.
type Parser struct {
	pool *ParserPool
}

func NewParser() *Parser {
	return &Parser{pool: NewParserPool(RustLanguage())}
}

// ParseFile reads and parses path. Read failures are FILE_READ_ERROR, syntax
// errors anywhere in the file are PARSE_ERROR.
func (p *Parser) ParseFile(path string) (*Tree, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeFileRead, "read source file"), errors.CtxPath, path)
	}
	return p.Parse(path, content)
}

// Parse parses content as the file at path. The caller owns the returned tree.
func (p *Parser) Parse(path string, content []byte) (*Tree, error) {
	start := time.Now()
	defer func() {
		observability.ParsingDuration.WithLabelValues(LanguageRust).Observe(time.Since(start).Seconds())
	}()

	sp := p.pool.Get(path)
	defer p.pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeParse, "parser returned no tree"), errors.CtxPath, path)
	}
	observability.FilesParsedTotal.Inc()

	t := &Tree{Path: path, Source: content, tree: tree}
	if bad := FirstErrorNode(t.Root()); bad != nil {
		span := t.Span(bad)
		t.Close()
		msg := fmt.Sprintf("syntax error at %d:%d", span.Start.Line, span.Start.Column)
		return nil, errors.AddContext(errors.New(errors.CodeParse, msg), errors.CtxPath, path)
	}
	return t, nil
}

// ActiveParsers reports parsers currently leased from the pool.
func (p *Parser) ActiveParsers() int {
	return p.pool.Stats().Leased
}

func (p *Parser) PoolStats() PoolStats {
	return p.pool.Stats()
}
