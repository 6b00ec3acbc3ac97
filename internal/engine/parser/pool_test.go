package parser

import (
	"sync"
	"testing"
	"time"
)

func TestParserPool_LeasesTrackFiles(t *testing.T) {
	pool := NewParserPool(RustLanguage())

	first := pool.Get("src/main.rs")
	if first == nil {
		t.Fatal("expected non-nil parser from pool")
	}
	time.Sleep(5 * time.Millisecond)
	second := pool.Get("src/net/mod.rs")

	stats := pool.Stats()
	if stats.Leased != 2 || stats.Created != 2 {
		t.Fatalf("expected 2 leased and 2 created, got %+v", stats)
	}
	if stats.OldestPath != "src/main.rs" || stats.OldestLease <= 0 {
		t.Errorf("expected oldest lease on src/main.rs, got %+v", stats)
	}

	pool.Put(first)
	pool.Put(second)
	if stats := pool.Stats(); stats.Leased != 0 || stats.OldestPath != "" {
		t.Errorf("expected no active leases, got %+v", stats)
	}
}

func TestParserPool_PutNil(t *testing.T) {
	pool := NewParserPool(RustLanguage())
	pool.Put(nil)
}

func TestParserPool_ParsesValidRust(t *testing.T) {
	pool := NewParserPool(RustLanguage())

	sp := pool.Get("main.rs")
	defer pool.Put(sp)

	tree := sp.Parse([]byte("fn main() {}\n"), nil)
	if tree == nil {
		t.Fatal("expected non-nil parse tree for valid Rust source")
	}
	defer tree.Close()

	if root := tree.RootNode(); root == nil || root.HasError() {
		t.Fatal("expected error-free root node")
	}
}

func TestParserPool_ConcurrentAccess(t *testing.T) {
	pool := NewParserPool(RustLanguage())

	const goroutines = 20
	const iters = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	src := []byte("fn run() { helper(); }\n")

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iters; j++ {
				sp := pool.Get("run.rs")
				tree := sp.Parse(src, nil)
				if tree == nil {
					t.Errorf("expected non-nil parse tree")
				} else {
					tree.Close()
				}
				pool.Put(sp)
			}
		}()
	}
	wg.Wait()

	stats := pool.Stats()
	if stats.Leased != 0 {
		t.Errorf("expected all leases returned, got %d", stats.Leased)
	}
	if stats.Created+stats.Reused != goroutines*iters {
		t.Errorf("every Get is either a new or a reused parser, got %+v", stats)
	}
}

func TestParserPool_LanguageSetAfterReset(t *testing.T) {
	pool := NewParserPool(RustLanguage())

	sp := pool.Get("a.rs")
	sp.Reset()
	pool.Put(sp)

	sp2 := pool.Get("b.rs")
	defer pool.Put(sp2)

	tree := sp2.Parse([]byte("fn ok() {}\n"), nil)
	if tree == nil {
		t.Fatal("parser should still parse correctly after Reset")
	}
	defer tree.Close()
}
