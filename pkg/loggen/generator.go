package loggen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultChunkSize is the number of rows sampled from one random stream
	DefaultChunkSize = 10_000

	// DefaultProgressInterval is the number of rows between progress messages
	DefaultProgressInterval = 100_000
)

// GeneratorConfig holds generator configuration
//
//nolint:govet // Field alignment is less important than readability for config structs
type GeneratorConfig struct {
	Logger  *slog.Logger
	Metrics *Metrics

	Pools  Pools
	Window Window

	// OutputFile is the CSV destination; its directory must exist
	OutputFile string
	// NumRows is the number of records to generate
	NumRows int64
	// Seed makes the dataset reproducible; 0 draws a random seed
	Seed uint64
	// NumWorkers is the number of goroutines sampling chunks; 1 runs inline
	NumWorkers int
	// ChunkSize is the number of consecutive rows sharing one random stream
	ChunkSize int
	// ProgressInterval is the number of rows between progress messages
	ProgressInterval int64

	// Writers receive every record after the CSV file, in the same order
	Writers []RecordWriter
}

// GenerationResult describes a finished (or interrupted) run
type GenerationResult struct {
	OutputFile   string
	RowsWritten  int64
	BytesWritten int64
	Seed         uint64
	Duration     time.Duration
}

// Generator produces a CSV dataset of simulated access logs
type Generator struct {
	logger           *slog.Logger
	metrics          *Metrics
	statusCounters   map[uint16]prometheus.Counter
	pools            Pools
	window           Window
	outputFile       string
	writers          []RecordWriter
	numRows          int64
	seed             uint64
	numWorkers       int
	chunkSize        int
	progressInterval int64
}

// NewGenerator validates cfg and returns a generator
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if cfg.NumRows < 0 {
		return nil, fmt.Errorf("number of rows must not be negative, got %d", cfg.NumRows)
	}
	if cfg.OutputFile == "" {
		return nil, fmt.Errorf("output file is required")
	}
	if err := cfg.Pools.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pools: %w", err)
	}
	if cfg.Window.End.Before(cfg.Window.Start) {
		return nil, fmt.Errorf("window end is before start")
	}
	if cfg.NumWorkers < 0 || cfg.ChunkSize < 0 || cfg.ProgressInterval < 0 {
		return nil, fmt.Errorf("workers, chunk size and progress interval must not be negative")
	}

	numWorkers := cfg.NumWorkers
	if numWorkers == 0 {
		numWorkers = 1
	}
	chunkSize := cfg.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	progressInterval := cfg.ProgressInterval
	if progressInterval == 0 {
		progressInterval = DefaultProgressInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetricsWithRegistry(prometheus.NewRegistry())
	}
	seed := cfg.Seed
	for seed == 0 {
		//nolint:gosec // seeds a simulation, not a secret
		seed = rand.Uint64()
	}

	statusCounters := make(map[uint16]prometheus.Counter)
	for _, code := range cfg.Pools.StatusCodes.Values() {
		statusCounters[code] = metrics.Generation.HttpStatus.WithLabelValues(strconv.Itoa(int(code)))
	}

	return &Generator{
		logger:           logger,
		metrics:          metrics,
		statusCounters:   statusCounters,
		pools:            cfg.Pools,
		window:           cfg.Window,
		outputFile:       cfg.OutputFile,
		writers:          cfg.Writers,
		numRows:          cfg.NumRows,
		seed:             seed,
		numWorkers:       numWorkers,
		chunkSize:        chunkSize,
		progressInterval: progressInterval,
	}, nil
}

// Seed returns the effective seed of the generator
func (g *Generator) Seed() uint64 {
	return g.seed
}

// Run generates the dataset.
//
// The output file is closed on every path. When ctx is canceled, generation
// stops after the current row and the file holds a valid prefix of the
// dataset; the returned error then wraps ctx.Err().
func (g *Generator) Run(ctx context.Context) (result GenerationResult, err error) {
	start := time.Now()
	result = GenerationResult{OutputFile: g.outputFile, Seed: g.seed}

	g.logger.Info("generating log records",
		"totalRows", g.numRows,
		"outputFile", g.outputFile,
		"seed", g.seed,
		"numWorkers", g.numWorkers,
		"chunkSize", g.chunkSize)

	csvWriter, err := NewCSVWriter(g.outputFile)
	if err != nil {
		return result, err
	}
	defer func() {
		if closeErr := csvWriter.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		result.RowsWritten = csvWriter.Rows()
		result.BytesWritten = csvWriter.BytesWritten()
		result.Duration = time.Since(start)
		g.metrics.Generation.BytesWritten.Add(float64(result.BytesWritten))
	}()

	sink := &fanout{
		generator: g,
		writers:   append([]RecordWriter{csvWriter}, g.writers...),
	}

	if g.numWorkers == 1 {
		err = g.runSequential(ctx, sink)
	} else {
		err = g.runParallel(ctx, sink)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			g.logger.Warn("generation interrupted", "rowsWritten", sink.written, "totalRows", g.numRows)
			return result, fmt.Errorf("generation interrupted after %d rows: %w", sink.written, err)
		}
		return result, err
	}

	for _, w := range g.writers {
		if err := w.Flush(ctx); err != nil {
			return result, err
		}
	}
	// The run is complete only once the file is closed
	if err := csvWriter.Close(); err != nil {
		return result, err
	}

	g.metrics.Generation.Duration.Observe(time.Since(start).Seconds())
	g.logger.Info("log records generated",
		"outputFile", g.outputFile,
		"rowsWritten", sink.written,
		"durationSeconds", time.Since(start).Seconds())

	return result, nil
}

func (g *Generator) numChunks() int64 {
	size := int64(g.chunkSize)
	return (g.numRows + size - 1) / size
}

func (g *Generator) chunkRows(chunk int64) int {
	size := int64(g.chunkSize)
	return int(min(size, g.numRows-chunk*size))
}

func (g *Generator) runSequential(ctx context.Context, sink *fanout) error {
	var rec LogRecord
	for chunk := range g.numChunks() {
		sampler := NewSampler(g.pools, g.window, g.seed, uint64(chunk))
		for range g.chunkRows(chunk) {
			if err := ctx.Err(); err != nil {
				return err
			}
			sampler.SampleInto(&rec)
			if err := sink.write(ctx, &rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// runParallel samples chunks on up to numWorkers goroutines and writes them
// strictly in chunk order. At most 2*numWorkers chunks are held in memory.
func (g *Generator) runParallel(ctx context.Context, sink *fanout) error {
	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(workCtx)
	pending := make(chan chan []LogRecord, 2*g.numWorkers)
	sem := make(chan struct{}, g.numWorkers)

	group.Go(func() error {
		defer close(pending)
		for chunk := range g.numChunks() {
			out := make(chan []LogRecord, 1)
			select {
			case pending <- out:
			case <-groupCtx.Done():
				return nil
			}
			select {
			case sem <- struct{}{}:
			case <-groupCtx.Done():
				return nil
			}
			group.Go(func() error {
				defer func() { <-sem }()
				out <- g.sampleChunk(chunk)
				return nil
			})
		}
		return nil
	})

	writeErr := g.writeChunks(ctx, groupCtx, pending, sink)
	cancel()
	if err := group.Wait(); err != nil && writeErr == nil {
		writeErr = err
	}
	return writeErr
}

func (g *Generator) writeChunks(ctx, groupCtx context.Context, pending <-chan chan []LogRecord, sink *fanout) error {
	for out := range pending {
		var records []LogRecord
		select {
		case records = <-out:
		case <-groupCtx.Done():
			return ctx.Err()
		}
		for i := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := sink.write(ctx, &records[i]); err != nil {
				return err
			}
		}
	}
	return ctx.Err()
}

func (g *Generator) sampleChunk(chunk int64) []LogRecord {
	start := time.Now()
	sampler := NewSampler(g.pools, g.window, g.seed, uint64(chunk))
	records := make([]LogRecord, g.chunkRows(chunk))
	for i := range records {
		sampler.SampleInto(&records[i])
	}
	g.metrics.Generation.ChunkDuration.Observe(time.Since(start).Seconds())
	return records
}

// fanout passes each record to every writer and reports progress
type fanout struct {
	generator *Generator
	writers   []RecordWriter
	written   int64
}

func (f *fanout) write(ctx context.Context, rec *LogRecord) error {
	for _, w := range f.writers {
		if err := w.Write(ctx, rec); err != nil {
			return err
		}
	}
	f.written++

	g := f.generator
	g.metrics.Generation.RowsGenerated.Inc()
	if counter, ok := g.statusCounters[rec.HttpStatus]; ok {
		counter.Inc()
	}
	if f.written%g.progressInterval == 0 {
		g.logger.Info("generation progress", "rowsWritten", f.written, "totalRows", g.numRows)
	}
	return nil
}
