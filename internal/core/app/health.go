package app

import (
	"context"
	"docgen/internal/engine/parser"
	"docgen/internal/shared/util"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	last := s.app.CurrentUpdate()
	switch {
	case last.Err != nil:
		status.Status = "degraded"
		status.Components["graph"] = "error: " + last.Err.Error()
	case last.Graph == nil:
		status.Components["graph"] = "not built"
	default:
		status.Components["graph"] = fmt.Sprintf("ok (%d nodes, %d edges)", last.Graph.Graph.NodeCount(), last.Graph.Graph.EdgeCount())
	}

	if s.app.history != nil {
		if _, err := s.app.history.List(ctx, "", time.Time{}, 1); err != nil {
			status.Status = "degraded"
			status.Components["history"] = "error: " + err.Error()
		} else {
			status.Components["history"] = "ok"
		}
	} else {
		status.Components["history"] = "disabled"
	}

	if s.app.Parser != nil {
		status.Components["parser"] = parserStatus(s.app.Parser.PoolStats())
	} else {
		status.Status = "degraded"
		status.Components["parser"] = "missing"
	}

	status.Components["runtime"] = util.ReadRuntimeStats().String()
	return status
}

// parserStatus names the file behind the longest running lease so a parse
// stuck on one source file shows up in health output.
func parserStatus(stats parser.PoolStats) string {
	out := fmt.Sprintf("ok (%d active, %d created, %d reused)", stats.Leased, stats.Created, stats.Reused)
	if stats.Leased > 0 {
		out += fmt.Sprintf(", oldest %s for %s", stats.OldestPath, stats.OldestLease.Round(time.Millisecond))
	}
	return out
}
