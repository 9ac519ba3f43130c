package loggen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/scality/log-generator/pkg/clickhouse"
	"github.com/scality/log-generator/pkg/s3"
)

// defaultUploadOperationTimeout bounds an upload when none is configured
const defaultUploadOperationTimeout = 10 * time.Minute

// RunnerConfig holds the configuration of a full generation run
//
//nolint:govet // Field alignment is less important than readability for config structs
type RunnerConfig struct {
	Logger  *slog.Logger
	Metrics *Metrics

	// Generator configures the CSV dataset; Logger, Metrics and Writers
	// are filled in by the runner
	Generator GeneratorConfig

	// Retry applies to ClickHouse connection, export and upload
	Retry RetryPolicy

	ClickHouseEnabled      bool
	ClickHouseHosts        []string
	ClickHouseUsername     string
	ClickHousePassword     string
	ClickHouseDatabase     string
	ClickHouseTimeout      time.Duration
	ClickHouseBatchSize    int
	ClickHouseCreateSchema bool

	S3Enabled          bool
	S3Endpoint         string
	S3AccessKeyID      string
	S3SecretAccessKey  string
	S3Bucket           string
	S3KeyPrefix        string
	S3MaxRetryAttempts int
	S3MaxBackoffDelay  time.Duration

	// UploadOperationTimeout bounds the upload including retries
	UploadOperationTimeout time.Duration

	// Inserter is an optional ClickHouse inserter for testing (if nil, a client is created)
	Inserter BatchInserter
	// S3Uploader is an optional S3 uploader for testing (if nil, one will be created)
	S3Uploader s3.UploaderInterface
}

// RunResult summarizes a finished run
type RunResult struct {
	Generation    GenerationResult
	RowsExported  int64
	UploadedKey   string
	UploadedBytes int64
}

// Runner generates a dataset, optionally exporting it to ClickHouse while
// generating and uploading the finished file to S3
type Runner struct {
	logger           *slog.Logger
	metrics          *Metrics
	generator        *Generator
	exporter         *Exporter
	clickhouseClient *clickhouse.Client
	uploader         s3.UploaderInterface
	retry            RetryPolicy
	bucket           string
	keyPrefix        string
	uploadTimeout    time.Duration
}

// NewRunner creates a runner and connects the enabled sinks
func NewRunner(ctx context.Context, cfg RunnerConfig) (*Runner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	r := &Runner{
		logger:        logger,
		metrics:       metrics,
		retry:         cfg.Retry,
		bucket:        cfg.S3Bucket,
		keyPrefix:     cfg.S3KeyPrefix,
		uploadTimeout: cfg.UploadOperationTimeout,
	}
	if r.uploadTimeout == 0 {
		r.uploadTimeout = defaultUploadOperationTimeout
	}

	genCfg := cfg.Generator
	genCfg.Logger = logger
	genCfg.Metrics = metrics

	if cfg.ClickHouseEnabled {
		inserter := cfg.Inserter
		if inserter == nil {
			chClient, err := r.connectClickHouse(ctx, cfg)
			if err != nil {
				return nil, err
			}
			r.clickhouseClient = chClient
			inserter = chClient
		}

		exporter, err := NewExporter(ExporterConfig{
			Inserter:  inserter,
			Logger:    logger,
			Metrics:   metrics,
			Retry:     cfg.Retry,
			Table:     clickhouse.TableWebLogs,
			BatchSize: cfg.ClickHouseBatchSize,
		})
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("failed to create exporter: %w", err)
		}
		r.exporter = exporter
		genCfg.Writers = append(genCfg.Writers, exporter)
	}

	if cfg.S3Enabled {
		if cfg.S3Bucket == "" {
			_ = r.Close()
			return nil, fmt.Errorf("S3 upload enabled without a bucket")
		}
		if cfg.S3Uploader != nil {
			r.uploader = cfg.S3Uploader
		} else {
			s3Client, err := s3.NewClient(ctx, s3.Config{
				Endpoint:         cfg.S3Endpoint,
				AccessKeyID:      cfg.S3AccessKeyID,
				SecretAccessKey:  cfg.S3SecretAccessKey,
				MaxRetryAttempts: cfg.S3MaxRetryAttempts,
				MaxBackoffDelay:  cfg.S3MaxBackoffDelay,
			})
			if err != nil {
				_ = r.Close()
				return nil, fmt.Errorf("failed to create S3 client: %w", err)
			}
			r.uploader = s3.NewUploader(s3Client)
		}
	}

	generator, err := NewGenerator(genCfg)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	r.generator = generator

	return r, nil
}

func (r *Runner) connectClickHouse(ctx context.Context, cfg RunnerConfig) (*clickhouse.Client, error) {
	chClient, err := clickhouse.NewClient(ctx, clickhouse.Config{
		Hosts:          cfg.ClickHouseHosts,
		Username:       cfg.ClickHouseUsername,
		Password:       cfg.ClickHousePassword,
		Database:       cfg.ClickHouseDatabase,
		Timeout:        cfg.ClickHouseTimeout,
		MaxRetries:     cfg.Retry.MaxRetries,
		InitialBackoff: cfg.Retry.InitialBackoff,
		MaxBackoff:     cfg.Retry.MaxBackoff,
		Logger:         r.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ClickHouse client: %w", err)
	}

	if cfg.ClickHouseCreateSchema {
		if err := chClient.CreateSchema(ctx); err != nil {
			_ = chClient.Close()
			return nil, fmt.Errorf("failed to create ClickHouse schema: %w", err)
		}
	}

	return chClient, nil
}

// Close releases the ClickHouse connection, if any
func (r *Runner) Close() error {
	if r.clickhouseClient != nil {
		return r.clickhouseClient.Close()
	}
	return nil
}

// Generator returns the runner's generator
func (r *Runner) Generator() *Generator {
	return r.generator
}

// Run generates the dataset then uploads it. An interrupted or failed
// generation is never uploaded.
func (r *Runner) Run(ctx context.Context) (RunResult, error) {
	var result RunResult

	genResult, err := r.generator.Run(ctx)
	result.Generation = genResult
	if r.exporter != nil {
		result.RowsExported = r.exporter.Exported()
	}
	if err != nil {
		return result, err
	}

	if r.uploader == nil {
		return result, nil
	}

	key := r.keyPrefix + filepath.Base(genResult.OutputFile)
	size, err := r.upload(ctx, genResult.OutputFile, key)
	if err != nil {
		return result, err
	}
	result.UploadedKey = key
	result.UploadedBytes = size

	return result, nil
}

func (r *Runner) upload(ctx context.Context, path, key string) (int64, error) {
	logger := r.logger.With("bucketName", r.bucket, "s3Key", key)
	logger.Info("uploading dataset", "outputFile", path)

	uploadCtx, cancel := context.WithTimeout(ctx, r.uploadTimeout)
	defer cancel()

	start := time.Now()
	var size int64
	err := r.retry.Do(uploadCtx, func() error {
		var err error
		size, err = r.uploader.UploadFile(uploadCtx, r.bucket, key, path)
		return err
	}, func(err error) bool {
		return !IsPermanentError(err)
	}, "upload", logger)
	r.metrics.Upload.Duration.Observe(time.Since(start).Seconds())

	if err != nil {
		r.metrics.Upload.Uploads.WithLabelValues("failed").Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Error("upload operation exceeded timeout", "timeout", r.uploadTimeout, "error", err)
		}
		return 0, fmt.Errorf("failed to upload dataset: %w", err)
	}

	r.metrics.Upload.Uploads.WithLabelValues("success").Inc()
	logger.Info("uploaded dataset", "sizeBytes", size)
	return size, nil
}
