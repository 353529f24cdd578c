package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// impact profiling pipeline.
type Metrics struct {
	RunsStarted   prometheus.Counter
	RunsCompleted prometheus.Counter
	RunsFailed    prometheus.Counter
	RunDuration   prometheus.Histogram

	// StageFailures counts per-stage failures that were encoded into the
	// record rather than aborting the run. label: stage.
	StageFailures *prometheus.CounterVec

	// Upstream data source metrics. labels: service, outcome={success,error,skipped}.
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec // label: service

	// CacheLookups counts cache activity. labels: cache={weather,geocode}, result={hit,miss}.
	CacheLookups *prometheus.CounterVec

	// BusMessages counts message bus traffic. labels: transport={inproc,kafka}, kind={send,query,reply}.
	BusMessages *prometheus.CounterVec

	PipelineRunning prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RunsStarted,
		m.RunsCompleted,
		m.RunsFailed,
		m.RunDuration,
		m.StageFailures,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.CacheLookups,
		m.BusMessages,
		m.PipelineRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "impact_profiler",
			Name:      "runs_started_total",
			Help:      "Total pipeline runs started.",
		}),
		RunsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "impact_profiler",
			Name:      "runs_completed_total",
			Help:      "Total pipeline runs that reached the Done state.",
		}),
		RunsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "impact_profiler",
			Name:      "runs_failed_total",
			Help:      "Total pipeline runs that ended in the Failed terminal state.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "impact_profiler",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete pipeline run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "impact_profiler",
			Name:      "stage_failures_total",
			Help:      "Stage failures encoded into the record, by stage.",
		}, []string{"stage"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "impact_profiler",
			Name:      "upstream_requests_total",
			Help:      "Upstream data source requests by service and outcome.",
		}, []string{"service", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "impact_profiler",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"service"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "impact_profiler",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache and result.",
		}, []string{"cache", "result"}),
		BusMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "impact_profiler",
			Name:      "bus_messages_total",
			Help:      "Message bus traffic by transport and kind.",
		}, []string{"transport", "kind"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "impact_profiler",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
	}
}
