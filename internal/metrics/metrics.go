// Package metrics exposes the Prometheus counters and histograms the
// engine, matcher and pipeline update as they run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every counter/histogram/gauge the core publishes.
type Metrics struct {
	CommandsTotal *prometheus.CounterVec
	TradesTotal   *prometheus.CounterVec
	FillsTotal    *prometheus.CounterVec
	RejectsTotal  *prometheus.CounterVec

	DepthEmitSkipped *prometheus.CounterVec
	PublishLatency   *prometheus.HistogramVec
	PublishErrors    *prometheus.CounterVec

	BookDepth *prometheus.GaugeVec
}

// New registers and returns a Metrics bundle against the default
// registry. Intended to be called once at process startup.
func New() *Metrics {
	return &Metrics{
		CommandsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clob_engine_commands_total",
				Help: "Total number of commands dispatched by the engine loop.",
			},
			[]string{"kind"},
		),
		TradesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clob_matcher_trades_total",
				Help: "Total number of trades produced by the matcher.",
			},
			[]string{"symbol"},
		),
		FillsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clob_matcher_fills_total",
				Help: "Total number of fills produced by the matcher.",
			},
			[]string{"symbol", "side"},
		),
		RejectsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clob_engine_rejects_total",
				Help: "Total number of rejected order commands.",
			},
			[]string{"symbol", "reason"},
		),
		DepthEmitSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clob_pipeline_depth_debounced_total",
				Help: "Total number of depth updates suppressed by the debounce window.",
			},
			[]string{"symbol"},
		),
		PublishLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clob_publisher_publish_latency_seconds",
				Help:    "Latency of a single publisher's Publish/PublishBatch call.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
			},
			[]string{"publisher"},
		),
		PublishErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clob_publisher_errors_total",
				Help: "Total number of publisher errors, isolated per publisher.",
			},
			[]string{"publisher"},
		),
		BookDepth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "clob_book_depth_levels",
				Help: "Number of resting price levels on one side of a symbol's book.",
			},
			[]string{"symbol", "side"},
		),
	}
}
