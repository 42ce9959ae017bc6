package gctx

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics for parses and merges.
type Metrics struct {
	Parses        *prometheus.CounterVec
	ParseDuration prometheus.Histogram
	CellsRead     prometheus.Counter
	Merges        prometheus.Counter
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	parses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gctx_parses_total",
		Help: "Total GCTX parses by outcome",
	}, []string{"outcome"})

	parseDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gctx_parse_duration_seconds",
		Help:    "Time spent parsing GCTX files",
		Buckets: prometheus.DefBuckets,
	})

	cellsRead := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gctx_cells_read_total",
		Help: "Total matrix cells extracted, per plane",
	})

	merges := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gctx_merges_total",
		Help: "Total containers produced by merges",
	})

	reg.MustRegister(parses, parseDuration, cellsRead, merges)

	return &Metrics{
		Parses:        parses,
		ParseDuration: parseDuration,
		CellsRead:     cellsRead,
		Merges:        merges,
	}
}
