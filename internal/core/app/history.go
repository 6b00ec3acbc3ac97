package app

import (
	"context"
	"docgen/internal/data/history"
	"docgen/internal/engine/callgraph"
	"time"
)

func (a *App) saveSnapshot(ctx context.Context, cg *callgraph.CallGraph, routeCount int) (string, error) {
	id, err := a.history.Save(ctx, history.NewSnapshot(cg, routeCount))
	if err != nil {
		return "", err
	}
	if _, err := a.history.Prune(ctx, a.Config.History.Keep); err != nil {
		return id, err
	}
	return id, nil
}

// HistoryEnabled reports whether snapshots are being recorded.
func (a *App) HistoryEnabled() bool {
	return a.history != nil
}

// History returns up to limit recent snapshots for the configured entry,
// oldest first.
func (a *App) History(ctx context.Context, limit int) ([]history.Snapshot, error) {
	if a.history == nil {
		return nil, nil
	}
	return a.history.List(ctx, a.entry.String(), time.Time{}, limit)
}

// Trends summarizes the recorded builds for the configured entry.
func (a *App) Trends(ctx context.Context, window time.Duration) (history.TrendReport, error) {
	snapshots, err := a.History(ctx, 0)
	if err != nil {
		return history.TrendReport{}, err
	}
	return history.BuildTrendReport(a.entry.String(), snapshots, window)
}
