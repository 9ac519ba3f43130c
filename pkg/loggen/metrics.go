package loggen

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for log-generator, grouped by stage
type Metrics struct {
	Generation GenerationMetrics
	Export     ExportMetrics
	Upload     UploadMetrics
}

// GenerationMetrics tracks record generation and the CSV output
type GenerationMetrics struct {
	// RowsGenerated tracks records written to the output file
	RowsGenerated prometheus.Counter

	// HttpStatus tracks generated records per status code
	HttpStatus *prometheus.CounterVec // labels: code

	// BytesWritten tracks bytes flushed to the output file
	BytesWritten prometheus.Counter

	// Duration tracks a whole generation run
	Duration prometheus.Histogram

	// ChunkDuration tracks the time to sample one chunk of rows
	ChunkDuration prometheus.Histogram
}

// ExportMetrics tracks ClickHouse batch inserts
type ExportMetrics struct {
	// Batches tracks insert batches with status
	Batches *prometheus.CounterVec // labels: status (success/failed)

	// RowsExported tracks records inserted into ClickHouse
	RowsExported prometheus.Counter
}

// UploadMetrics tracks S3 uploads of finished datasets
type UploadMetrics struct {
	// Uploads tracks upload attempts with status
	Uploads *prometheus.CounterVec // labels: status (success/failed)

	// Duration tracks the time spent uploading a dataset
	Duration prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates metrics with a custom registry
// This is useful for testing to avoid conflicts with the default registry
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Generation: GenerationMetrics{
			RowsGenerated: factory.NewCounter(
				prometheus.CounterOpts{
					Name: "log_generator_rows_generated_total",
					Help: "Total number of log records written to the output file",
				},
			),
			HttpStatus: factory.NewCounterVec(
				prometheus.CounterOpts{
					Name: "log_generator_http_status_total",
					Help: "Total number of generated log records per HTTP status",
				},
				[]string{"code"},
			),
			BytesWritten: factory.NewCounter(
				prometheus.CounterOpts{
					Name: "log_generator_bytes_written_total",
					Help: "Total number of bytes written to the output file",
				},
			),
			Duration: factory.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "log_generator_generation_duration_seconds",
					Help:    "Time spent generating a full dataset",
					Buckets: prometheus.ExponentialBuckets(0.1, 4, 8), // 100ms to ~27min
				},
			),
			ChunkDuration: factory.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "log_generator_chunk_duration_seconds",
					Help:    "Time spent sampling one chunk of rows",
					Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
				},
			),
		},

		Export: ExportMetrics{
			Batches: factory.NewCounterVec(
				prometheus.CounterOpts{
					Name: "log_generator_export_batches_total",
					Help: "Total number of ClickHouse insert batches",
				},
				[]string{"status"},
			),
			RowsExported: factory.NewCounter(
				prometheus.CounterOpts{
					Name: "log_generator_rows_exported_total",
					Help: "Total number of log records inserted into ClickHouse",
				},
			),
		},

		Upload: UploadMetrics{
			Uploads: factory.NewCounterVec(
				prometheus.CounterOpts{
					Name: "log_generator_uploads_total",
					Help: "Total number of dataset uploads to S3",
				},
				[]string{"status"},
			),
			Duration: factory.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "log_generator_upload_duration_seconds",
					Help:    "Time spent uploading a dataset to S3",
					Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
				},
			),
		},
	}
}
