// # internal/engine/manifest/manifest.go
package manifest

import (
	"docgen/internal/core/errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

const FileName = "Cargo.toml"

// Manifest exposes the parts of a crate's Cargo.toml the call graph needs.
type Manifest struct {
	root string
	name string
	deps map[string]bool
}

type cargoFile struct {
	Package           *cargoPackage  `toml:"package"`
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
}

type cargoPackage struct {
	Name string `toml:"name"`
}

// Load reads <dir>/Cargo.toml.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "manifest not found"), errors.CtxPath, path)
		}
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeFileRead, "read manifest"), errors.CtxPath, path)
	}
	return Parse(dir, data)
}

// Parse decodes manifest content as if it was read from <dir>/Cargo.toml.
func Parse(dir string, data []byte) (*Manifest, error) {
	var cf cargoFile
	if _, err := toml.Decode(string(data), &cf); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeParse, "decode manifest"), errors.CtxPath, filepath.Join(dir, FileName))
	}

	m := &Manifest{
		root: dir,
		deps: make(map[string]bool),
	}
	if cf.Package != nil {
		m.name = strings.TrimSpace(cf.Package.Name)
	}
	for _, table := range []map[string]any{cf.Dependencies, cf.DevDependencies, cf.BuildDependencies} {
		for name := range table {
			m.deps[SnakeCase(name)] = true
		}
	}
	return m, nil
}

// Discover walks up from start (a file or directory) to the nearest Cargo.toml.
func Discover(start string) (*Manifest, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, err
	}
	dir := abs
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		dir = filepath.Dir(abs)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("no %s found above %s", FileName, start))
		}
		dir = parent
	}
}

// New builds a manifest in memory; used by callers that already know the crate layout.
func New(root, packageName string, deps ...string) *Manifest {
	m := &Manifest{root: root, name: packageName, deps: make(map[string]bool, len(deps))}
	for _, d := range deps {
		m.deps[SnakeCase(d)] = true
	}
	return m
}

// PackageName returns the package name as it appears in `use` paths.
func (m *Manifest) PackageName() (string, bool) {
	if m == nil || m.name == "" {
		return "", false
	}
	return SnakeCase(m.name), true
}

// RawPackageName returns the name exactly as written in Cargo.toml.
func (m *Manifest) RawPackageName() string {
	if m == nil {
		return ""
	}
	return m.name
}

func (m *Manifest) Root() string {
	if m == nil {
		return ""
	}
	return m.root
}

func (m *Manifest) SourceRoot() string {
	return filepath.Join(m.Root(), "src")
}

// Dependencies returns declared dependency crate names, snake_cased and sorted.
func (m *Manifest) Dependencies() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.deps))
	for d := range m.deps {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (m *Manifest) HasDependency(name string) bool {
	if m == nil {
		return false
	}
	return m.deps[SnakeCase(name)]
}

// SnakeCase maps a crate name to its identifier form (hyphens become underscores).
func SnakeCase(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), "-", "_")
}
