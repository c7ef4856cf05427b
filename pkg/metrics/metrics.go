// Package metrics defines the Prometheus metrics of lawgraph.
// We use 'promauto' which registers metrics on the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatasetLoadsTotal counts successful loads by where the data came from
	// ("cache", "network", "stale-cache").
	DatasetLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lawgraph_dataset_loads_total",
			Help: "Total number of successful dataset loads by source",
		},
		[]string{"source"},
	)

	// DatasetLoadErrorsTotal counts load-level and recovered failures by kind.
	DatasetLoadErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lawgraph_dataset_load_errors_total",
			Help: "Total number of dataset load failures by kind",
		},
		[]string{"kind", "fatal"},
	)

	// DatasetLoadDuration measures Load end to end, version check included.
	DatasetLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lawgraph_dataset_load_duration_seconds",
			Help:    "Duration of dataset loads in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	// DroppedRecordsTotal counts records rejected by normalization.
	DroppedRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lawgraph_dropped_records_total",
			Help: "Total number of dataset records dropped during normalization",
		},
	)

	// DatasetNodes is the size of the loaded dataset.
	DatasetNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lawgraph_dataset_nodes",
			Help: "Number of nodes in the loaded dataset",
		},
	)

	// GraphRebuildDuration measures each synchronous nearest-neighbour rebuild.
	// Buckets reach into seconds: an unfiltered view pays the quadratic cost.
	GraphRebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lawgraph_graph_rebuild_duration_seconds",
			Help:    "Duration of nearest-neighbour graph rebuilds in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)

	// VisibleNodes is the size of the current filtered subset.
	VisibleNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lawgraph_visible_nodes",
			Help: "Number of nodes passing the current filter",
		},
	)

	// VisibleEdges is the number of edges of the current view.
	VisibleEdges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lawgraph_visible_edges",
			Help: "Number of nearest-neighbour edges in the current view",
		},
	)

	// HttpRequestsTotal counts bridge requests by method, path and status.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lawgraph_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HttpRequestDuration measures bridge response time.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lawgraph_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)
