package history

import (
	"docgen/internal/engine/callgraph"
	"time"

	"github.com/google/uuid"
)

const SchemaVersion = 1

// Snapshot summarizes one call-graph build.
type Snapshot struct {
	ID            string        `json:"id"`
	SchemaVersion int           `json:"schema_version"`
	Timestamp     time.Time     `json:"timestamp"`
	EntryFile     string        `json:"entry_file"`
	Entry         string        `json:"entry"`
	Found         bool          `json:"found"`
	NodeCount     int           `json:"node_count"`
	EdgeCount     int           `json:"edge_count"`
	ExternalCount int           `json:"external_count"`
	CycleCount    int           `json:"cycle_count"`
	RouteCount    int           `json:"route_count"`
	FilesParsed   int           `json:"files_parsed"`
	Duration      time.Duration `json:"duration"`
}

func NewSnapshot(cg *callgraph.CallGraph, routeCount int) Snapshot {
	return Snapshot{
		ID:            uuid.NewString(),
		SchemaVersion: SchemaVersion,
		Timestamp:     time.Now().UTC(),
		EntryFile:     cg.EntryFile,
		Entry:         cg.Entry.String(),
		Found:         cg.Found(),
		NodeCount:     cg.Graph.NodeCount(),
		EdgeCount:     cg.Graph.EdgeCount(),
		ExternalCount: len(cg.Externals()),
		CycleCount:    len(cg.DetectCycles()),
		RouteCount:    routeCount,
		FilesParsed:   cg.Stats.FilesParsed,
		Duration:      cg.Stats.Duration,
	}
}

type TrendPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	ID             string    `json:"id"`
	NodeCount      int       `json:"node_count"`
	EdgeCount      int       `json:"edge_count"`
	CycleCount     int       `json:"cycle_count"`
	DeltaNodes     int       `json:"delta_nodes"`
	DeltaEdges     int       `json:"delta_edges"`
	DeltaExternals int       `json:"delta_externals"`
	DeltaCycles    int       `json:"delta_cycles"`
	NodeGrowthPct  float64   `json:"node_growth_pct"`
	AvgCycles      float64   `json:"avg_cycles"`
	WindowHours    float64   `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	Entry         string       `json:"entry"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	BuildCount    int          `json:"build_count"`
	Points        []TrendPoint `json:"points"`
}
