package cli

import (
	"context"
	coreapp "docgen/internal/core/app"
	"docgen/internal/core/config"
	"docgen/internal/core/errors"
	"docgen/internal/data/history"
	"docgen/internal/engine/callgraph"
	"docgen/internal/shared/observability"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "docgen v%s\n", versionString)
		return 0
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "failed to detect working directory: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	if err := applyModeOptions(&opts, cfg); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}

	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		fmt.Fprintf(stderr, "failed to resolve runtime paths: %v\n", err)
		return 1
	}

	cleanupLogs := configureLogging(opts.ui, opts.verbose, stderr, paths.StateDir)
	defer cleanupLogs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    "docgen",
		ServiceVersion: versionString,
		Exporter:       cfg.Observability.TraceExporter,
		Endpoint:       cfg.Observability.OTLPEndpoint,
		Insecure:       cfg.Observability.OTLPInsecure,
	})
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Warn("trace shutdown failed", "error", err)
		}
	}()

	a, err := coreapp.New(cfg, paths)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer a.Close()

	if addr := strings.TrimSpace(cfg.Observability.MetricsAddr); addr != "" {
		server := NewObservabilityServer(addr, coreapp.NewHealthService(a))
		if err := server.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(shutdownCtx)
		}()
	}

	update, err := a.Build(ctx)
	if err != nil {
		slog.Error("build failed", "error", err, "code", errors.CodeOf(err))
		if opts.once {
			return 1
		}
	}

	var report *history.TrendReport
	if opts.history {
		report = loadTrendReport(ctx, a, opts.historyWindow)
	}

	if !opts.ui && err == nil {
		if code := printResult(stdout, a, update, opts); code != 0 {
			return code
		}
		printSummary(stderr, update, report)
	}

	if opts.once {
		return 0
	}

	if err := a.StartWatcher(ctx); err != nil {
		slog.Error("failed to start watcher", "error", err)
		return 1
	}

	if opts.ui {
		if err := runUI(ctx, a, report); err != nil {
			slog.Error("failed to run UI", "error", err)
			return 1
		}
		return 0
	}

	<-ctx.Done()
	return 0
}

func printResult(stdout io.Writer, a *coreapp.App, update coreapp.Update, opts cliOptions) int {
	if opts.chain != "" {
		from, to, err := parseChain(opts.chain)
		if err != nil {
			slog.Error("invalid chain", "error", err)
			return 2
		}
		path, ok := update.Graph.FindCallChain(callgraph.NodeKey(from), callgraph.NodeKey(to))
		if !ok {
			fmt.Fprintf(stdout, "no call chain from %s to %s\n", from, to)
			return 1
		}
		keys := make([]string, 0, len(path))
		for _, k := range path {
			keys = append(keys, string(k))
		}
		fmt.Fprintln(stdout, strings.Join(keys, " -> "))
		return 0
	}

	if opts.format == "none" {
		return 0
	}
	out, err := a.Render(opts.format, update.Graph)
	if err != nil {
		slog.Error("render failed", "error", err)
		return 1
	}
	fmt.Fprint(stdout, out)
	if !strings.HasSuffix(out, "\n") {
		fmt.Fprintln(stdout)
	}
	return 0
}

// loadConfig reads path, or ./docgen.toml when path is empty. A missing
// default file yields the built-in defaults.
func loadConfig(path, cwd string) (*config.Config, error) {
	if strings.TrimSpace(path) != "" {
		return config.Load(path)
	}
	candidate := filepath.Join(cwd, config.DefaultFileName)
	cfg, err := config.Load(candidate)
	if err == nil {
		return cfg, nil
	}
	if errors.IsCode(err, errors.CodeNotFound) {
		return config.Default(), nil
	}
	return nil, err
}

// applyModeOptions folds flags and the positional crate root into cfg.
func applyModeOptions(opts *cliOptions, cfg *config.Config) error {
	if opts.ui && !opts.watch {
		return fmt.Errorf("--ui requires --watch")
	}
	if opts.chain != "" && opts.watch {
		return fmt.Errorf("--chain cannot be combined with --watch")
	}
	if len(opts.args) > 1 {
		return fmt.Errorf("expected at most one crate root argument, got %d", len(opts.args))
	}
	if len(opts.args) == 1 {
		cfg.Project.Root = opts.args[0]
	}
	if opts.entry != "" {
		if _, err := callgraph.ParseEntryPoint(opts.entry); err != nil {
			return err
		}
		cfg.Project.Entry = opts.entry
	}
	if opts.entryFile != "" {
		cfg.Project.EntryFile = opts.entryFile
	}
	if opts.format != "none" && !isKnownFormat(opts.format) {
		return fmt.Errorf("--format must be one of: %s, none", strings.Join(coreapp.Formats, ", "))
	}
	if opts.chain != "" {
		if _, _, err := parseChain(opts.chain); err != nil {
			return err
		}
	}
	if opts.history {
		cfg.History.Enabled = true
		if _, err := parseHistoryWindow(opts.historyWindow); err != nil {
			return err
		}
	}
	return nil
}

func isKnownFormat(format string) bool {
	for _, f := range coreapp.Formats {
		if f == format {
			return true
		}
	}
	return false
}

func parseChain(raw string) (string, string, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return "", "", fmt.Errorf("--chain must be <from>,<to>, got %q", raw)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

func parseHistoryWindow(value string) (time.Duration, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("--history-window must be a Go duration (example: 24h), got %q", value)
	}
	if d <= 0 {
		return 0, fmt.Errorf("--history-window must be > 0, got %q", value)
	}
	return d, nil
}

func configureLogging(uiMode, verbose bool, stderr io.Writer, stateDir string) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := stderr
	closeFn := func() {}
	if uiMode {
		logPath := filepath.Join(stateDir, "docgen.log")
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
			fmt.Fprintf(stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
		} else {
			f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
			if err == nil {
				output = f
				closeFn = func() { _ = f.Close() }
			} else {
				fmt.Fprintf(stderr, "warning: failed to open log file %s: %v\n", logPath, err)
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}
