package parser

import (
	"sync"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ParserPool hands out Rust-configured tree-sitter parsers and remembers which
// source file each leased parser is working on. Watch mode rebuilds reuse the
// same few parsers for the life of the process.
type ParserPool struct {
	lang *sitter.Language
	pool sync.Pool

	mu      sync.Mutex
	leases  map[*sitter.Parser]lease
	fresh   map[*sitter.Parser]bool
	created int
	reused  int
}

type lease struct {
	path  string
	since time.Time
}

// PoolStats is a point-in-time view of the pool for health reporting.
type PoolStats struct {
	Leased      int
	Created     int
	Reused      int
	OldestPath  string
	OldestLease time.Duration
}

func NewParserPool(lang *sitter.Language) *ParserPool {
	p := &ParserPool{
		lang:   lang,
		leases: make(map[*sitter.Parser]lease),
		fresh:  make(map[*sitter.Parser]bool),
	}
	p.pool.New = func() any {
		sp := sitter.NewParser()
		_ = sp.SetLanguage(lang)
		p.mu.Lock()
		p.created++
		p.fresh[sp] = true
		p.mu.Unlock()
		return sp
	}
	return p
}

// Get leases a parser for the file at path.
func (p *ParserPool) Get(path string) *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	_ = sp.SetLanguage(p.lang)

	p.mu.Lock()
	if p.fresh[sp] {
		delete(p.fresh, sp)
	} else {
		p.reused++
	}
	p.leases[sp] = lease{path: path, since: time.Now()}
	p.mu.Unlock()
	return sp
}

// Put resets sp and returns it. sp must not be used afterwards.
func (p *ParserPool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	p.mu.Lock()
	delete(p.leases, sp)
	p.mu.Unlock()

	sp.Reset()
	p.pool.Put(sp)
}

func (p *ParserPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := PoolStats{Leased: len(p.leases), Created: p.created, Reused: p.reused}
	now := time.Now()
	for _, l := range p.leases {
		if age := now.Sub(l.since); stats.OldestPath == "" || age > stats.OldestLease {
			stats.OldestPath = l.path
			stats.OldestLease = age
		}
	}
	return stats
}
