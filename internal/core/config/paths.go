package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	ProjectRoot string
	EntryFile   string
	OutputDir   string
	HistoryPath string
	StateDir    string
}

// ResolvePaths anchors the relative paths in cfg. The project root is taken
// from project.root relative to cwd, or detected from cwd when left at ".".
func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	var projectRoot string
	if root := strings.TrimSpace(cfg.Project.Root); root != "" && root != "." {
		projectRoot = ResolveRelative(cwd, root)
	} else {
		detected, err := DetectProjectRoot([]string{cwd})
		if err != nil {
			return ResolvedPaths{}, err
		}
		projectRoot = detected
	}

	stateDir := filepath.Join(projectRoot, ".docgen")
	return ResolvedPaths{
		ProjectRoot: filepath.Clean(projectRoot),
		EntryFile:   ResolveRelative(projectRoot, cfg.Project.EntryFile),
		OutputDir:   ResolveRelative(projectRoot, cfg.Output.Dir),
		HistoryPath: ResolveRelative(projectRoot, cfg.History.Path),
		StateDir:    filepath.Clean(stateDir),
	}, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot walks up from each candidate to the first directory
// holding a Cargo.toml or docgen.toml, falling back to the working directory.
func DetectProjectRoot(candidates []string) (string, error) {
	markers := []string{
		"Cargo.toml",
		DefaultFileName,
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
