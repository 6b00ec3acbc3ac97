package callgraph

import (
	"context"
	"docgen/internal/core/errors"
	"docgen/internal/engine/manifest"
	stderrors "errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCrate lays out files under a fresh crate root and returns its manifest.
func writeCrate(t *testing.T, cargo string, files map[string]string) *manifest.Manifest {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, manifest.FileName), []byte(cargo), 0644))
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	m, err := manifest.Load(root)
	require.NoError(t, err)
	return m
}

const demoCargo = `[package]
name = "demo"
version = "0.1.0"

[dependencies]
serde_json = "1"
`

func srcPath(m *manifest.Manifest, rel string) string {
	return filepath.Join(m.SourceRoot(), filepath.FromSlash(rel))
}

func keysOf(cg *CallGraph) []string {
	var out []string
	for _, k := range cg.Registry.Keys() {
		out = append(out, string(k))
	}
	return out
}

func edgeStrings(cg *CallGraph) []string {
	var out []string
	for _, e := range cg.Edges() {
		out = append(out, string(e.From)+" -> "+string(e.To))
	}
	sort.Strings(out)
	return out
}

func TestBuild_MainCallsHelper(t *testing.T) {
	m := writeCrate(t, demoCargo, map[string]string{
		"src/main.rs": `mod utils;
use crate::utils::helper;

fn main() {
    helper();
}
`,
		"src/utils.rs": `pub fn helper() {}
`,
	})

	cg, err := Build(context.Background(), srcPath(m, "main.rs"), Function("main"), m)
	require.NoError(t, err)

	assert.Equal(t, []string{"main::main", "utils::helper"}, keysOf(cg))
	assert.Equal(t, []string{"main::main -> utils::helper"}, edgeStrings(cg))
	assert.Equal(t, NodeKey("main::main"), cg.Root)
	assert.Equal(t, 2, cg.Stats.FilesParsed)

	helper, ok := cg.Registry.Node("utils::helper")
	require.True(t, ok)
	assert.Equal(t, NodeLocal, helper.Kind)
	assert.Equal(t, srcPath(m, "utils.rs"), helper.File)
	assert.Equal(t, 1, helper.Span.Start.Line)
}

func TestBuild_StdLeafWithoutFileAccess(t *testing.T) {
	m := writeCrate(t, demoCargo, map[string]string{
		"src/main.rs": `use std::fs;
use std::fs::read_to_string;

fn main() {
    let a = std::fs::read_to_string("a.txt");
    let b = read_to_string("b.txt");
    let c = fs::read("c.bin");
    let d = serde_json::to_string(&a);
}
`,
	})

	cg, err := Build(context.Background(), srcPath(m, "main.rs"), Function("main"), m)
	require.NoError(t, err)

	assert.Equal(t, 1, cg.Stats.FilesParsed)
	assert.ElementsMatch(t, []string{
		"main::main",
		"std::fs::read_to_string",
		"std::fs::read",
		"serde_json::to_string",
	}, keysOf(cg))
	// read_to_string is reached twice but registered once
	assert.Equal(t, 4, cg.Graph.EdgeCount())
	for _, n := range cg.Externals() {
		assert.Empty(t, n.File)
	}
}

func TestBuild_MutualRecursionTerminates(t *testing.T) {
	m := writeCrate(t, demoCargo, map[string]string{
		"src/main.rs": `use crate::a::ping;
fn main() { ping(); }
`,
		"src/a.rs": `use crate::b::pong;
pub fn ping() { pong(); }
`,
		"src/b.rs": `use crate::a::ping;
pub fn pong() { ping(); }
`,
	})

	cg, err := Build(context.Background(), srcPath(m, "main.rs"), Function("main"), m)
	require.NoError(t, err)

	assert.Equal(t, []string{"a::ping", "b::pong", "main::main"}, keysOf(cg))
	// pong -> ping reaches a registered definition: no edge, only a back-reference
	assert.Equal(t, []string{
		"a::ping -> b::pong",
		"main::main -> a::ping",
	}, edgeStrings(cg))
	assert.Equal(t, []KeyedEdge{{From: "b::pong", To: "a::ping"}}, cg.Registry.BackRefs())
	assert.Equal(t, 3, cg.Stats.FilesParsed)

	cycles := cg.DetectCycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []NodeKey{"a::ping", "b::pong"}, cycles[0])

	chain, ok := cg.FindCallChain("main::main", "b::pong")
	require.True(t, ok)
	assert.Equal(t, []NodeKey{"main::main", "a::ping", "b::pong"}, chain)
}

func TestBuild_SelfMethodCalls(t *testing.T) {
	m := writeCrate(t, demoCargo, map[string]string{
		"src/main.rs": `use crate::server::Server;
fn main() { Server::start(); }
`,
		"src/server.rs": `pub struct Server;

impl Server {
    pub fn start() {
        Self::bind();
        Self::bind();
    }

    fn bind() {}
}
`,
	})

	t.Run("FromMain", func(t *testing.T) {
		cg, err := Build(context.Background(), srcPath(m, "main.rs"), Function("main"), m)
		require.NoError(t, err)
		assert.Equal(t, []string{"main::main", "server::Server::bind", "server::Server::start"}, keysOf(cg))
		assert.Equal(t, 2, cg.Stats.FilesParsed)

		start, ok := cg.Registry.Node("server::Server::start")
		require.True(t, ok)
		assert.Equal(t, "Server", start.TypeName)
		assert.Equal(t, "Server::start", start.QualifiedName())
	})

	t.Run("MethodEntry", func(t *testing.T) {
		cg, err := Build(context.Background(), srcPath(m, "server.rs"), Method("Server", "start"), m)
		require.NoError(t, err)
		assert.Equal(t, []string{"server::Server::bind", "server::Server::start"}, keysOf(cg))
		// two call sites, two edges, one vertex
		assert.Equal(t, []string{
			"server::Server::start -> server::Server::bind",
			"server::Server::start -> server::Server::bind",
		}, edgeStrings(cg))
	})
}

func TestBuild_Determinism(t *testing.T) {
	m := writeCrate(t, demoCargo, map[string]string{
		"src/main.rs": `use crate::a::{ping, util::{trim, pad}};
use std::io;
fn main() {
    ping();
    trim(pad());
    io::stdout();
}
`,
		"src/a.rs": `pub fn ping() { crate_level(); }
`,
		"src/a/util.rs": `pub fn trim() {}
pub fn pad() {}
`,
	})

	first, err := Build(context.Background(), srcPath(m, "main.rs"), Function("main"), m)
	require.NoError(t, err)
	second, err := Build(context.Background(), srcPath(m, "main.rs"), Function("main"), m)
	require.NoError(t, err)

	assert.Equal(t, keysOf(first), keysOf(second))
	assert.Equal(t, edgeStrings(first), edgeStrings(second))
	assert.Equal(t, first.Nodes(), second.Nodes())
	assert.Contains(t, keysOf(first), "a::util::trim")
	assert.Contains(t, keysOf(first), "a::util::pad")
	assert.Contains(t, keysOf(first), "std::io::stdout")
}

func TestBuild_NoDuplicateVertices(t *testing.T) {
	m := writeCrate(t, demoCargo, map[string]string{
		"src/main.rs": `use crate::a::shared;
use crate::b::other;
fn main() { shared(); other(); shared(); }
`,
		"src/a.rs": `pub fn shared() {}
`,
		"src/b.rs": `use crate::a::shared;
pub fn other() { shared(); }
`,
	})

	cg, err := Build(context.Background(), srcPath(m, "main.rs"), Function("main"), m)
	require.NoError(t, err)

	assert.Equal(t, cg.Registry.Len(), cg.Graph.NodeCount())
	seen := make(map[NodeKey]bool)
	for i := 0; i < cg.Graph.NodeCount(); i++ {
		key := cg.Graph.Node(i)
		assert.False(t, seen[key], "duplicate vertex %s", key)
		seen[key] = true
	}
	assert.Len(t, cg.Callees("main::main"), 3)

	// only first arrivals become edges; repeat arrivals are back-references
	assert.Equal(t, []string{
		"main::main -> a::shared",
		"main::main -> b::other",
	}, edgeStrings(cg))
	assert.Equal(t, []KeyedEdge{
		{From: "b::other", To: "a::shared"},
		{From: "main::main", To: "a::shared"},
	}, cg.Registry.BackRefs())
	assert.Len(t, cg.Calls(), 4)
	assert.Equal(t, 3, cg.Stats.FilesParsed, "a.rs is parsed three times but counted once")
	assert.Empty(t, cg.DetectCycles())
}

func TestBuild_ImportsAreScopedPerFile(t *testing.T) {
	m := writeCrate(t, demoCargo, map[string]string{
		"src/main.rs": `use crate::a::ping;
use crate::b::helper;
fn main() { ping(); }
`,
		"src/a.rs": `pub fn ping() { helper(); }
`,
		"src/b.rs": `pub fn helper() {}
`,
	})

	cg, err := Build(context.Background(), srcPath(m, "main.rs"), Function("main"), m)
	require.NoError(t, err)
	// a.rs never imports helper, so main's import must not leak into it
	assert.Equal(t, []string{"a::ping", "main::main"}, keysOf(cg))
	assert.Equal(t, []string{"main::main -> a::ping"}, edgeStrings(cg))
}

func TestBuild_SelfInFreeFunctionUnresolved(t *testing.T) {
	m := writeCrate(t, demoCargo, map[string]string{
		"src/main.rs": `struct Server;
impl Server {
    fn x() {}
}
fn free() { Self::x(); }
`,
	})

	cg, err := Build(context.Background(), srcPath(m, "main.rs"), Function("free"), m)
	require.NoError(t, err)
	assert.Equal(t, []string{"main::free"}, keysOf(cg))
	assert.Zero(t, cg.Graph.EdgeCount())
}

func TestBuild_ImportClassification(t *testing.T) {
	m := writeCrate(t, `[package]
name = "my-app"
`, map[string]string{
		"src/lib.rs": `pub fn root_fn() {}
`,
		"src/main.rs": `use my_app::utils::helper;
use crate::root_fn;
fn main() { helper(); root_fn(); }
`,
		"src/utils.rs": `pub fn helper() {}
`,
		"src/net/client.rs": `use super::utils::helper;
use self::codec::encode;
pub fn send() { helper(); encode(); }
`,
		"src/net/codec.rs": `pub fn encode() {}
`,
		"src/net/sub/deep.rs": `use super::super::utils::helper;
pub fn run() { helper(); }
`,
	})

	t.Run("PackageNameAndCrateRoot", func(t *testing.T) {
		cg, err := Build(context.Background(), srcPath(m, "main.rs"), Function("main"), m)
		require.NoError(t, err)
		assert.Equal(t, []string{"lib::root_fn", "main::main", "utils::helper"}, keysOf(cg))
	})

	t.Run("NestedSuper", func(t *testing.T) {
		cg, err := Build(context.Background(), srcPath(m, "net/sub/deep.rs"), Function("run"), m)
		require.NoError(t, err)
		assert.Equal(t, []string{"net::sub::deep::run", "utils::helper"}, keysOf(cg))
	})

	t.Run("SelfAndSuper", func(t *testing.T) {
		cg, err := Build(context.Background(), srcPath(m, "net/client.rs"), Function("send"), m)
		require.NoError(t, err)
		assert.Equal(t, []string{"net::client::send", "net::codec::encode", "utils::helper"}, keysOf(cg))
	})
}

func TestBuild_UnresolvedCallsIgnored(t *testing.T) {
	m := writeCrate(t, demoCargo, map[string]string{
		"src/main.rs": `use crate::a::helper;
use crate::a;
fn main() {
    let s = Server::new();
    s.run(helper());
    local();
    a::b::c::deep();
    let f = || helper();
    f();
    println!("{}", 1);
}
fn local() {}
`,
		"src/a.rs": `pub fn helper() {}
`,
	})

	cg, err := Build(context.Background(), srcPath(m, "main.rs"), Function("main"), m)
	require.NoError(t, err)
	assert.Equal(t, []string{"a::helper", "main::main"}, keysOf(cg))
	// helper() is called twice: as a method argument and inside the closure
	assert.Equal(t, 1, cg.Graph.EdgeCount())
	assert.Len(t, cg.Registry.BackRefs(), 1)
	assert.Equal(t, []NodeKey{"a::helper", "a::helper"}, cg.Callees("main::main"))
}

func TestBuild_ExternalImportMember(t *testing.T) {
	m := writeCrate(t, demoCargo, map[string]string{
		"src/main.rs": `use reqwest::Client;
use tokio::time;
fn main() {
    let c = Client::new();
    time::sleep::<u64>(1);
    tokio::spawn(c);
}
`,
	})

	cg, err := Build(context.Background(), srcPath(m, "main.rs"), Function("main"), m)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main::main", "reqwest::Client::new", "tokio::time::sleep"}, keysOf(cg))
}

func TestBuild_SkipsTestModules(t *testing.T) {
	m := writeCrate(t, demoCargo, map[string]string{
		"src/main.rs": `fn main() {}

#[cfg(test)]
mod tests {
    use super::*;
}
`,
	})

	cg, err := Build(context.Background(), srcPath(m, "main.rs"), Function("main"), m)
	require.NoError(t, err)
	assert.Equal(t, []string{"main::main"}, keysOf(cg))

	t.Run("TestOnlyUse", func(t *testing.T) {
		m := writeCrate(t, demoCargo, map[string]string{
			"src/main.rs": `use std::fs;

#[cfg(test)]
// fixtures
use std::io::*;

fn main() { fs::read("x"); }
`,
		})
		cg, err := Build(context.Background(), srcPath(m, "main.rs"), Function("main"), m)
		require.NoError(t, err)
		assert.Equal(t, []string{"main::main", "std::fs::read"}, keysOf(cg))
	})
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		main string
		code errors.ErrorCode
	}{
		{"Glob", "use std::io::*;\nfn main() {}\n", errors.CodeUnsupportedImportForm},
		{"Rename", "use crate::a::b as c;\nfn main() {}\n", errors.CodeUnsupportedImportForm},
		{"GroupedRename", "use std::{fs, io as sio};\nfn main() {}\n", errors.CodeUnsupportedImportForm},
		{"MissingModule", "use crate::nope::f;\nfn main() { f(); }\n", errors.CodeImportResolution},
		{"SyntaxError", "fn main( {\n", errors.CodeParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := writeCrate(t, demoCargo, map[string]string{"src/main.rs": tt.main})
			_, err := Build(context.Background(), srcPath(m, "main.rs"), Function("main"), m)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "expected %s, got %v", tt.code, err)
		})
	}

	t.Run("MissingEntryFile", func(t *testing.T) {
		m := writeCrate(t, demoCargo, nil)
		_, err := Build(context.Background(), srcPath(m, "main.rs"), Function("main"), m)
		assert.True(t, errors.IsCode(err, errors.CodeFileRead), "got %v", err)
	})

	t.Run("NilManifest", func(t *testing.T) {
		_, err := Build(context.Background(), "main.rs", Function("main"), nil)
		assert.True(t, errors.IsCode(err, errors.CodeValidationError))
	})
}

func TestBuild_EntryNotFound(t *testing.T) {
	m := writeCrate(t, demoCargo, map[string]string{"src/main.rs": "fn other() {}\n"})

	cg, err := Build(context.Background(), srcPath(m, "main.rs"), Function("main"), m)
	require.NoError(t, err)
	assert.False(t, cg.Found())
	assert.Empty(t, cg.Root)
	assert.Zero(t, cg.Graph.NodeCount())
}

func TestBuild_CancelledContext(t *testing.T) {
	m := writeCrate(t, demoCargo, map[string]string{"src/main.rs": "fn main() {}\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, srcPath(m, "main.rs"), Function("main"), m)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, context.Canceled))
}
