package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

var markdownFormats = map[string]bool{"mermaid": true, "tree": true}

// Validate reports every problem found in cfg rather than stopping at the first.
func Validate(cfg *Config) []error {
	var errs []error
	if cfg.Version != 1 {
		errs = append(errs, fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version))
	}
	errs = append(errs, validateProject(cfg)...)
	errs = append(errs, validateOutput(cfg)...)
	errs = append(errs, validateExclude(cfg)...)
	errs = append(errs, validateWatch(cfg)...)
	errs = append(errs, validateObservability(cfg)...)
	if cfg.History.Keep < 0 {
		errs = append(errs, fmt.Errorf("history.keep must be >= 0, got %d", cfg.History.Keep))
	}
	return errs
}

func validateProject(cfg *Config) []error {
	var errs []error
	if !strings.HasSuffix(cfg.Project.EntryFile, ".rs") {
		errs = append(errs, fmt.Errorf("project.entry_file must be a .rs file, got %q", cfg.Project.EntryFile))
	}
	entry := strings.TrimSpace(cfg.Project.Entry)
	if parts := strings.Split(entry, "::"); len(parts) > 2 {
		errs = append(errs, fmt.Errorf("project.entry must be \"name\" or \"Type::method\", got %q", entry))
	}
	return errs
}

func validateOutput(cfg *Config) []error {
	var errs []error
	targets := []struct {
		name string
		path string
	}{
		{"output.dot", cfg.Output.DOT},
		{"output.mermaid", cfg.Output.Mermaid},
		{"output.plantuml", cfg.Output.PlantUML},
		{"output.tsv", cfg.Output.TSV},
		{"output.json", cfg.Output.JSON},
		{"output.openapi", cfg.Output.OpenAPI},
	}
	seen := make(map[string]string)
	for _, t := range targets {
		p := strings.TrimSpace(t.path)
		if p == "" {
			continue
		}
		key := filepath.Clean(p)
		if other, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("output conflict: %s and %s share the same path %q", other, t.name, p))
			continue
		}
		seen[key] = t.name
	}

	for i, inj := range cfg.Output.UpdateMarkdown {
		ref := fmt.Sprintf("output.update_markdown[%d]", i)
		if strings.TrimSpace(inj.File) == "" {
			errs = append(errs, fmt.Errorf("%s.file must not be empty", ref))
		}
		if strings.TrimSpace(inj.Marker) == "" {
			errs = append(errs, fmt.Errorf("%s.marker must not be empty", ref))
		}
		if !markdownFormats[strings.ToLower(strings.TrimSpace(inj.Format))] {
			errs = append(errs, fmt.Errorf("%s.format must be one of: mermaid, tree", ref))
		}
	}
	return errs
}

func validateExclude(cfg *Config) []error {
	var errs []error
	for _, p := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("invalid exclude.dirs pattern %q: %w", p, err))
		}
	}
	for _, p := range cfg.Exclude.Files {
		if _, err := glob.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("invalid exclude.files pattern %q: %w", p, err))
		}
	}
	for _, p := range cfg.Exclude.Externals {
		if _, err := glob.Compile(p, ':'); err != nil {
			errs = append(errs, fmt.Errorf("invalid exclude.externals pattern %q: %w", p, err))
		}
	}
	return errs
}

func validateWatch(cfg *Config) []error {
	var errs []error
	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative"))
	}
	if cfg.Watch.MaxRebuildsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("watch.max_rebuilds_per_minute must be >= 0, got %d", cfg.Watch.MaxRebuildsPerMinute))
	}
	return errs
}

func validateObservability(cfg *Config) []error {
	var errs []error
	switch strings.ToLower(strings.TrimSpace(cfg.Observability.TraceExporter)) {
	case "none":
	case "otlp":
		if strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
			errs = append(errs, fmt.Errorf("observability.otlp_endpoint must not be empty when trace_exporter=otlp"))
		}
	default:
		errs = append(errs, fmt.Errorf("observability.trace_exporter must be one of: none, otlp"))
	}
	return errs
}
