package util

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestHasPathPrefix(t *testing.T) {
	t.Parallel()

	root := filepath.Join("crate", "src")
	cases := []struct {
		path     string
		expected bool
	}{
		{root, true},
		{filepath.Join(root, "main.rs"), true},
		{filepath.Join("crate", "src2", "main.rs"), false},
		{filepath.Join("crate", "Cargo.toml"), false},
	}
	for _, tc := range cases {
		if got := HasPathPrefix(tc.path, root); got != tc.expected {
			t.Fatalf("HasPathPrefix(%q) = %v, want %v", tc.path, got, tc.expected)
		}
	}
}

func TestReadRuntimeStats(t *testing.T) {
	buf := make([]byte, 4<<20)
	stats := ReadRuntimeStats()
	if stats.HeapMB == 0 {
		t.Fatal("expected a live 4MB allocation to register")
	}
	if stats.Goroutines < 1 {
		t.Fatalf("expected at least the test goroutine, got %d", stats.Goroutines)
	}
	if got := stats.String(); !strings.Contains(got, "MB") || !strings.Contains(got, "goroutines") {
		t.Fatalf("unexpected summary %q", got)
	}
	runtime.KeepAlive(buf)
}

func TestSortedStringKeys(t *testing.T) {
	t.Parallel()

	m := map[string]int{"b": 2, "a": 1, "c": 3}
	keys := SortedStringKeys(m)
	expected := []string{"a", "b", "c"}
	if len(keys) != len(expected) {
		t.Fatalf("expected %d keys, got %d", len(expected), len(keys))
	}
	for i, key := range expected {
		if keys[i] != key {
			t.Fatalf("expected %q at %d, got %q", key, i, keys[i])
		}
	}
}

func TestWriteFileWithDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "file.txt")
	content := []byte("hello")

	if err := WriteFileWithDirs(path, content, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("expected %q, got %q", string(content), string(got))
	}
}

func TestWriteStringWithDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "file.txt")

	if err := WriteStringWithDirs(path, "hello", 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("expected %q, got %q", "hello", string(got))
	}
}
