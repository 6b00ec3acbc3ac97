package app

import (
	"context"
	"docgen/internal/core/watcher"
	"docgen/internal/shared/util"
	"log/slog"
	"path/filepath"
)

// StartWatcher rebuilds whenever Rust sources or manifests below the project
// root change. Rebuilds stop when ctx is done.
func (a *App) StartWatcher(ctx context.Context) error {
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		a.HandleChanges,
	)
	if err != nil {
		return err
	}
	a.watchCtx = ctx
	a.activeWatcher = w
	return w.Watch([]string{a.Paths.ProjectRoot})
}

func (a *App) HandleChanges(paths []string) {
	ctx := a.watchCtx
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}

	relevant := 0
	for _, p := range paths {
		if util.HasPathPrefix(p, a.Paths.ProjectRoot) && a.isTracked(p) {
			relevant++
		}
	}
	if relevant == 0 {
		return
	}
	slog.Info("detected changes", "count", relevant)

	if !a.limiter.AllowRebuild() {
		slog.Warn("rebuild throttled", "max_per_minute", a.Config.Watch.MaxRebuildsPerMinute)
		if err := a.limiter.Wait(ctx, 1); err != nil {
			return
		}
	}

	if _, err := a.Build(ctx); err != nil {
		slog.Error("rebuild failed", "error", err)
	}
}

func (a *App) isTracked(path string) bool {
	return filepath.Ext(path) == ".rs" || filepath.Base(path) == "Cargo.toml"
}
