package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docgen_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	FilesParsedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docgen_files_parsed_total",
		Help: "Total number of source files parsed during call graph builds.",
	})

	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docgen_build_seconds",
		Help:    "Time spent building a call graph from an entry point.",
		Buckets: prometheus.DefBuckets,
	})

	BuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docgen_builds_total",
		Help: "Total number of call graph builds by result.",
	}, []string{"result"})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "docgen_graph_nodes_total",
		Help: "Number of vertices in the most recent call graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "docgen_graph_edges_total",
		Help: "Number of edges in the most recent call graph.",
	})

	ExternalLeaves = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "docgen_graph_external_leaves_total",
		Help: "Number of external leaf vertices in the most recent call graph.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docgen_analysis_seconds",
		Help:    "Time spent on post-build tasks (rendering, route extraction).",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docgen_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RebuildsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docgen_rebuilds_throttled_total",
		Help: "Total number of watch-mode rebuilds delayed by the rebuild limiter.",
	})
)
