package loggen

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultExportBatchSize is the number of records per ClickHouse insert
const DefaultExportBatchSize = 10_000

// BatchInserter inserts tagged structs into a table
type BatchInserter interface {
	InsertStructs(ctx context.Context, table string, rows []any) error
}

// ExporterConfig holds exporter configuration
type ExporterConfig struct {
	Inserter  BatchInserter
	Logger    *slog.Logger
	Metrics   *Metrics
	Retry     RetryPolicy
	Table     string
	BatchSize int
}

// Exporter is a RecordWriter that inserts records into ClickHouse in batches
type Exporter struct {
	inserter  BatchInserter
	logger    *slog.Logger
	metrics   *Metrics
	retry     RetryPolicy
	table     string
	batchSize int
	buffer    []LogRecord
	rows      []any
	exported  int64
}

// NewExporter returns an exporter buffering up to cfg.BatchSize records
func NewExporter(cfg ExporterConfig) (*Exporter, error) {
	if cfg.Inserter == nil {
		return nil, fmt.Errorf("exporter needs an inserter")
	}
	if cfg.Table == "" {
		return nil, fmt.Errorf("exporter needs a table name")
	}
	if cfg.Metrics == nil {
		return nil, fmt.Errorf("exporter needs metrics")
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultExportBatchSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Exporter{
		inserter:  cfg.Inserter,
		logger:    logger.With("table", cfg.Table),
		metrics:   cfg.Metrics,
		retry:     cfg.Retry,
		table:     cfg.Table,
		batchSize: batchSize,
		buffer:    make([]LogRecord, 0, batchSize),
		rows:      make([]any, 0, batchSize),
	}, nil
}

// Exported returns the number of records inserted so far
func (e *Exporter) Exported() int64 {
	return e.exported
}

// Write buffers rec and sends a batch once the buffer is full
func (e *Exporter) Write(ctx context.Context, rec *LogRecord) error {
	e.buffer = append(e.buffer, *rec)
	if len(e.buffer) >= e.batchSize {
		return e.Flush(ctx)
	}
	return nil
}

// Flush inserts the buffered records, if any
func (e *Exporter) Flush(ctx context.Context) error {
	if len(e.buffer) == 0 {
		return nil
	}

	e.rows = e.rows[:0]
	for i := range e.buffer {
		e.rows = append(e.rows, &e.buffer[i])
	}

	err := e.retry.Do(ctx, func() error {
		return e.inserter.InsertStructs(ctx, e.table, e.rows)
	}, func(err error) bool {
		return !IsPermanentError(err)
	}, "export", e.logger)
	if err != nil {
		e.metrics.Export.Batches.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to export %d records: %w", len(e.buffer), err)
	}

	e.metrics.Export.Batches.WithLabelValues("success").Inc()
	e.metrics.Export.RowsExported.Add(float64(len(e.buffer)))
	e.exported += int64(len(e.buffer))
	e.logger.Debug("exported batch", "nRecords", len(e.buffer), "totalExported", e.exported)

	e.buffer = e.buffer[:0]
	return nil
}

// Close drops any unflushed records; the inserter is owned by the caller
func (e *Exporter) Close() error {
	e.buffer = e.buffer[:0]
	return nil
}
