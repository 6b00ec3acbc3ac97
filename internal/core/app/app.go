package app

import (
	"context"
	"docgen/internal/core/config"
	"docgen/internal/core/errors"
	"docgen/internal/core/ports"
	"docgen/internal/core/watcher"
	"docgen/internal/data/history"
	"docgen/internal/engine/callgraph"
	"docgen/internal/engine/manifest"
	"docgen/internal/engine/parser"
	"docgen/internal/engine/routes"
	"docgen/internal/output"
	"docgen/internal/shared/util"
	"log/slog"
	"sync"
	"time"
)

// Update describes the outcome of one build.
type Update struct {
	Graph      *callgraph.CallGraph
	Routes     *routes.IR
	Cycles     [][]callgraph.NodeKey
	SnapshotID string
	BuiltAt    time.Time
	Err        error
}

type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths
	Parser *parser.Parser

	entry   callgraph.EntryPoint
	filter  *output.ExternalFilter
	history ports.HistoryStore
	limiter *util.Limiter

	activeWatcher *watcher.Watcher
	watchCtx      context.Context

	buildMu sync.Mutex
	stateMu sync.RWMutex
	last    Update

	updateMu sync.RWMutex
	onUpdate func(Update)
}

func New(cfg *config.Config, paths config.ResolvedPaths) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "config is required")
	}
	entry, err := callgraph.ParseEntryPoint(cfg.Project.Entry)
	if err != nil {
		return nil, err
	}
	filter, err := output.NewExternalFilter(cfg.Exclude.Externals)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "compile external filters")
	}

	a := &App{
		Config:  cfg,
		Paths:   paths,
		Parser:  parser.NewParser(),
		entry:   entry,
		filter:  filter,
		limiter: util.NewRebuildLimiter(cfg.Watch.MaxRebuildsPerMinute),
	}

	if cfg.History.Enabled {
		store, err := history.Open(paths.HistoryPath)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "open history store"), errors.CtxPath, paths.HistoryPath)
		}
		a.history = store
	}
	return a, nil
}

func (a *App) Close() error {
	var firstErr error
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			firstErr = err
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *App) Entry() callgraph.EntryPoint {
	return a.entry
}

func (a *App) Filter() *output.ExternalFilter {
	return a.filter
}

func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

func (a *App) emitUpdate(update Update) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(update)
	}
}

// CurrentUpdate returns the most recent build outcome.
func (a *App) CurrentUpdate() Update {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.last
}

// Build discovers the crate manifest, builds the call graph, extracts routes,
// writes every configured output and records a history snapshot.
func (a *App) Build(ctx context.Context) (Update, error) {
	a.buildMu.Lock()
	defer a.buildMu.Unlock()

	update := Update{BuiltAt: time.Now().UTC()}
	cg, ir, err := a.buildGraph(ctx)
	if err == nil {
		update.Graph = cg
		update.Routes = ir
		update.Cycles = cg.DetectCycles()
		err = a.GenerateOutputs(cg, ir)
	}
	if err == nil && a.history != nil {
		update.SnapshotID, err = a.saveSnapshot(ctx, cg, len(ir.Routes))
	}
	update.Err = err

	a.stateMu.Lock()
	a.last = update
	a.stateMu.Unlock()
	a.emitUpdate(update)

	if err != nil {
		return update, err
	}
	slog.Info("call graph built",
		"entry", a.entry.String(),
		"found", cg.Found(),
		"nodes", cg.Graph.NodeCount(),
		"edges", cg.Graph.EdgeCount(),
		"cycles", len(update.Cycles),
		"routes", len(ir.Routes),
		"duration", cg.Stats.Duration,
	)
	return update, nil
}

func (a *App) buildGraph(ctx context.Context) (*callgraph.CallGraph, *routes.IR, error) {
	m, err := manifest.Discover(a.Paths.EntryFile)
	if err != nil {
		return nil, nil, err
	}

	cg, err := callgraph.Build(ctx, a.Paths.EntryFile, a.entry, m,
		callgraph.WithParser(a.Parser),
		callgraph.WithExternalRoots(a.Config.Project.ExternalCrates...),
	)
	if err != nil {
		return nil, nil, err
	}
	if !cg.Found() {
		slog.Warn("entry point not found", "entry", a.entry.String(), "file", a.Paths.EntryFile)
	}

	ir, err := routes.Extract(ctx, cg, a.Parser)
	if err != nil {
		return nil, nil, err
	}
	return cg, ir, nil
}
