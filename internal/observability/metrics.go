package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "epw"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// conversion pipeline and the HTTP conversion API.
type Metrics struct {
	FilesExtracted  prometheus.Counter
	FilesConverted  prometheus.Counter
	TransformErrors prometheus.Counter
	PipelineRunning prometheus.Gauge
	OutputsRendered *prometheus.CounterVec // labels: format
	ParseDuration   prometheus.Histogram
	MissingValues   *prometheus.HistogramVec // labels: field
	CatalogStations prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// HTTP conversion API metrics.
	ConvertRequests *prometheus.CounterVec // labels: format, outcome={success,error}
	ConvertCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_extracted_total",
			Help:      "Total weather files read from the input source.",
		}),
		FilesConverted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_converted_total",
			Help:      "Total weather files converted and loaded to every sink.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total weather files that failed to parse or render.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		OutputsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outputs_rendered_total",
			Help:      "Rendered outputs by format.",
		}, []string{"format"}),
		ParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time to fully parse one weather file.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		MissingValues: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "missing_values",
			Help:      "Hours carrying the missing sentinel per converted file.",
			Buckets:   []float64{0, 1, 24, 168, 720, 2190, 4380, 8760},
		}, []string{"field"}),
		CatalogStations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_stations",
			Help:      "Stations recorded in the catalog after the last load.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of weather files per extracted batch.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ConvertRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "convert_requests_total",
			Help:      "HTTP conversion requests by format and outcome.",
		}, []string{"format", "outcome"}),
		ConvertCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "convert_cache_total",
			Help:      "HTTP conversion cache lookups by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FilesExtracted,
		m.FilesConverted,
		m.TransformErrors,
		m.PipelineRunning,
		m.OutputsRendered,
		m.ParseDuration,
		m.MissingValues,
		m.CatalogStations,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ConvertRequests,
		m.ConvertCache,
	}
}
