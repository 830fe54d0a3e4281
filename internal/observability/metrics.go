package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ground-motion evaluation pipeline.
type Metrics struct {
	RecordsConsumed      prometheus.Counter
	ObservationsProduced prometheus.Counter
	TransformErrors      prometheus.Counter
	PipelineRunning      prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// GMPE evaluation metrics.
	Evaluations        *prometheus.CounterVec // labels: model, outcome={success,error}
	EvaluationDuration prometheus.Histogram

	// Site-conditions (vs30) provider metrics.
	Vs30Requests *prometheus.CounterVec // labels: outcome={success,error}
	Vs30Cache    *prometheus.CounterVec // labels: result={hit,miss}
	Vs30Enabled  prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsConsumed,
		m.ObservationsProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.Evaluations,
		m.EvaluationDuration,
		m.Vs30Requests,
		m.Vs30Cache,
		m.Vs30Enabled,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests
// can build fresh instances without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "isprs_etl",
			Name:      "records_consumed_total",
			Help:      "Total strong-motion records read from the source topic.",
		}),
		ObservationsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "isprs_etl",
			Name:      "observations_produced_total",
			Help:      "Total intensity observations written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "isprs_etl",
			Name:      "transform_errors_total",
			Help:      "Total record parse or evaluation failures.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isprs_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "isprs_etl",
			Name:      "batch_size",
			Help:      "Number of records per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "isprs_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "isprs_etl",
			Name:      "evaluations_total",
			Help:      "GMPE evaluations by model and outcome.",
		}, []string{"model", "outcome"}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "isprs_etl",
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of one two-pass GMPE evaluation.",
			Buckets:   []float64{1e-6, 1e-5, 1e-4, 1e-3, 0.01, 0.1},
		}),
		Vs30Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "isprs_etl",
			Name:      "vs30_requests_total",
			Help:      "Site-conditions provider requests by outcome.",
		}, []string{"outcome"}),
		Vs30Cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "isprs_etl",
			Name:      "vs30_cache_total",
			Help:      "Site-conditions cache lookups by result.",
		}, []string{"result"}),
		Vs30Enabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isprs_etl",
			Name:      "vs30_enabled",
			Help:      "1 when the site-conditions provider is enabled, 0 otherwise.",
		}),
	}
}
