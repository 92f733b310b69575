package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherdash_upstream_calls_total",
			Help: "Total upstream weather API calls",
		},
		[]string{"provider", "endpoint", "status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherdash_upstream_latency_seconds",
			Help:    "Upstream weather API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "endpoint"},
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherdash_pipeline_runs_total",
			Help: "Forecast pipeline invocations by outcome",
		},
		[]string{"provider", "outcome"},
	)

	PipelineLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherdash_pipeline_latency_seconds",
			Help:    "End-to-end forecast pipeline latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	QualityFlags = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherdash_quality_flags_total",
			Help: "Daily records flagged as physically implausible",
		},
		[]string{"provider", "flag"},
	)

	StaleResponsesDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherdash_stale_responses_discarded_total",
			Help: "Forecast results dropped because a newer selection superseded them",
		},
	)

	CircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "weatherdash_circuit_state",
			Help: "Circuit breaker state per upstream (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)
