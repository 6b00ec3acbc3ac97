package config

import (
	"docgen/internal/core/errors"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const DefaultFileName = "docgen.toml"

type Config struct {
	Version       int           `toml:"version"`
	Project       Project       `toml:"project"`
	Output        Output        `toml:"output"`
	Exclude       Exclude       `toml:"exclude"`
	Watch         Watch         `toml:"watch"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
	OpenAPI       OpenAPI       `toml:"openapi"`
}

type Project struct {
	Root      string `toml:"root"`
	EntryFile string `toml:"entry_file"`
	Entry     string `toml:"entry"`
	// Crate names whose paths are always external leaves, on top of std,
	// core, alloc and the manifest's dependencies.
	ExternalCrates []string `toml:"external_crates"`
}

type Output struct {
	Dir            string              `toml:"dir"`
	DOT            string              `toml:"dot"`
	Mermaid        string              `toml:"mermaid"`
	PlantUML       string              `toml:"plantuml"`
	TSV            string              `toml:"tsv"`
	JSON           string              `toml:"json"`
	OpenAPI        string              `toml:"openapi"`
	UpdateMarkdown []MarkdownInjection `toml:"update_markdown"`
}

type MarkdownInjection struct {
	File   string `toml:"file"`
	Marker string `toml:"marker"`
	Format string `toml:"format"`
}

type Exclude struct {
	Dirs      []string `toml:"dirs"`
	Files     []string `toml:"files"`
	Externals []string `toml:"externals"`
}

type Watch struct {
	Debounce             time.Duration `toml:"debounce"`
	MaxRebuildsPerMinute int           `toml:"max_rebuilds_per_minute"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	Keep    int    `toml:"keep"`
}

type Observability struct {
	MetricsAddr   string `toml:"metrics_addr"`
	TraceExporter string `toml:"trace_exporter"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	OTLPInsecure  bool   `toml:"otlp_insecure"`
}

type OpenAPI struct {
	Title       string `toml:"title"`
	Version     string `toml:"version"`
	Description string `toml:"description"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "config file not found"), errors.CtxPath, path)
		}
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeFileRead, "read config"), errors.CtxPath, path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return cfg, nil
}

// Parse decodes TOML, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, "decode config")
	}

	applyDefaults(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return nil, errors.New(errors.CodeValidationError, strings.Join(msgs, "; "))
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Project.Root) == "" {
		cfg.Project.Root = "."
	}
	if strings.TrimSpace(cfg.Project.EntryFile) == "" {
		cfg.Project.EntryFile = "src/main.rs"
	}
	if strings.TrimSpace(cfg.Project.Entry) == "" {
		cfg.Project.Entry = "main"
	}

	if strings.TrimSpace(cfg.Output.Dir) == "" {
		cfg.Output.Dir = "docs"
	}
	for i := range cfg.Output.UpdateMarkdown {
		if strings.TrimSpace(cfg.Output.UpdateMarkdown[i].Format) == "" {
			cfg.Output.UpdateMarkdown[i].Format = "mermaid"
		}
	}

	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{"target", ".git"}
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRebuildsPerMinute == 0 {
		cfg.Watch.MaxRebuildsPerMinute = 30
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = ".docgen/history.db"
	}
	if cfg.History.Keep == 0 {
		cfg.History.Keep = 200
	}

	if strings.TrimSpace(cfg.Observability.TraceExporter) == "" {
		cfg.Observability.TraceExporter = "none"
	}
	if strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
		cfg.Observability.OTLPEndpoint = "localhost:4317"
	}

	if strings.TrimSpace(cfg.OpenAPI.Title) == "" {
		cfg.OpenAPI.Title = "Generated API"
	}
	if strings.TrimSpace(cfg.OpenAPI.Version) == "" {
		cfg.OpenAPI.Version = "1.0.0"
	}
}
