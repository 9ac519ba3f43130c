package loggen

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValidateConfig performs additional validation beyond what LoadConfiguration checks
func ValidateConfig() error {
	logLevel := ConfigSpec.GetString("log-level")
	validLevels := map[string]bool{"error": true, "warn": true, "info": true, "debug": true}
	if !validLevels[logLevel] {
		return fmt.Errorf("invalid log-level: %s (must be error|warn|info|debug)", logLevel)
	}

	if numRows := ConfigSpec.GetInt("generator.num-rows"); numRows < 0 {
		return fmt.Errorf("generator.num-rows must not be negative, got %d", numRows)
	}

	if ConfigSpec.GetString("generator.output-file") == "" {
		return fmt.Errorf("generator.output-file is required")
	}

	if _, err := SeedFromConfig(); err != nil {
		return err
	}

	if _, err := WindowFromConfig(); err != nil {
		return err
	}

	for _, key := range []string{
		"generator.num-workers",
		"generator.chunk-size",
		"generator.progress-interval",
	} {
		if value := ConfigSpec.GetInt(key); value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", key, value)
		}
	}

	if ConfigSpec.GetBool("clickhouse.enabled") {
		if len(ConfigSpec.GetStringSlice("clickhouse.url")) == 0 {
			return fmt.Errorf("clickhouse.url is required when clickhouse.enabled is set")
		}
		if batchSize := ConfigSpec.GetInt("clickhouse.batch-size"); batchSize <= 0 {
			return fmt.Errorf("clickhouse.batch-size must be positive, got %d", batchSize)
		}
	}

	if ConfigSpec.GetBool("s3.enabled") {
		if ConfigSpec.GetString("s3.bucket") == "" {
			return fmt.Errorf("s3.bucket is required when s3.enabled is set")
		}
		if ConfigSpec.GetString("s3.access-key-id") == "" || ConfigSpec.GetString("s3.secret-access-key") == "" {
			return fmt.Errorf("s3.access-key-id and s3.secret-access-key are required when s3.enabled is set")
		}
		if maxRetryAttempts := ConfigSpec.GetInt("s3.max-retry-attempts"); maxRetryAttempts <= 0 {
			return fmt.Errorf("s3.max-retry-attempts must be positive, got %d", maxRetryAttempts)
		}
	}

	if jitter := ConfigSpec.GetFloat64("retry.backoff-jitter-factor"); jitter < 0 || jitter > 1 {
		return fmt.Errorf("retry.backoff-jitter-factor must be between 0 and 1, got %g", jitter)
	}

	return nil
}

// WindowFromConfig builds the generation window from the configured dates
func WindowFromConfig() (Window, error) {
	start, err := ParseDate(ConfigSpec.GetString("generator.start-date"))
	if err != nil {
		return Window{}, fmt.Errorf("generator.start-date: %w", err)
	}
	end, err := ParseDate(ConfigSpec.GetString("generator.end-date"))
	if err != nil {
		return Window{}, fmt.Errorf("generator.end-date: %w", err)
	}
	window, err := NewWindow(start, end)
	if err != nil {
		return Window{}, fmt.Errorf("invalid generation window: %w", err)
	}
	return window, nil
}

// SeedFromConfig parses generator.seed as an unsigned 64-bit integer.
// Negative or malformed values are rejected rather than read as 0.
func SeedFromConfig() (uint64, error) {
	raw := strings.TrimSpace(ConfigSpec.GetString("generator.seed"))
	seed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("generator.seed must be an integer in [0, %d], got %q", uint64(math.MaxUint64), raw)
	}
	return seed, nil
}

// RunnerConfigFromSpec builds a runner configuration from the loaded ConfigSpec
func RunnerConfigFromSpec() (RunnerConfig, error) {
	window, err := WindowFromConfig()
	if err != nil {
		return RunnerConfig{}, err
	}
	seed, err := SeedFromConfig()
	if err != nil {
		return RunnerConfig{}, err
	}

	return RunnerConfig{
		Generator: GeneratorConfig{
			Pools:            DefaultPools(),
			Window:           window,
			OutputFile:       ConfigSpec.GetString("generator.output-file"),
			NumRows:          int64(ConfigSpec.GetInt("generator.num-rows")),
			Seed:             seed,
			NumWorkers:       ConfigSpec.GetInt("generator.num-workers"),
			ChunkSize:        ConfigSpec.GetInt("generator.chunk-size"),
			ProgressInterval: int64(ConfigSpec.GetInt("generator.progress-interval")),
		},
		Retry: RetryPolicy{
			MaxRetries:     ConfigSpec.GetInt("retry.max-retries"),
			InitialBackoff: time.Duration(ConfigSpec.GetInt("retry.initial-backoff-seconds")) * time.Second,
			MaxBackoff:     time.Duration(ConfigSpec.GetInt("retry.max-backoff-seconds")) * time.Second,
			JitterFactor:   ConfigSpec.GetFloat64("retry.backoff-jitter-factor"),
		},
		ClickHouseEnabled:      ConfigSpec.GetBool("clickhouse.enabled"),
		ClickHouseHosts:        ConfigSpec.GetStringSlice("clickhouse.url"),
		ClickHouseUsername:     ConfigSpec.GetString("clickhouse.username"),
		ClickHousePassword:     ConfigSpec.GetString("clickhouse.password"),
		ClickHouseDatabase:     ConfigSpec.GetString("clickhouse.database"),
		ClickHouseTimeout:      time.Duration(ConfigSpec.GetInt("clickhouse.timeout-seconds")) * time.Second,
		ClickHouseBatchSize:    ConfigSpec.GetInt("clickhouse.batch-size"),
		ClickHouseCreateSchema: ConfigSpec.GetBool("clickhouse.create-schema"),
		S3Enabled:              ConfigSpec.GetBool("s3.enabled"),
		S3Endpoint:             ConfigSpec.GetString("s3.endpoint"),
		S3AccessKeyID:          ConfigSpec.GetString("s3.access-key-id"),
		S3SecretAccessKey:      ConfigSpec.GetString("s3.secret-access-key"),
		S3Bucket:               ConfigSpec.GetString("s3.bucket"),
		S3KeyPrefix:            ConfigSpec.GetString("s3.key-prefix"),
		S3MaxRetryAttempts:     ConfigSpec.GetInt("s3.max-retry-attempts"),
		S3MaxBackoffDelay:      time.Duration(ConfigSpec.GetInt("s3.max-backoff-delay-seconds")) * time.Second,
		UploadOperationTimeout: time.Duration(ConfigSpec.GetInt("timeout.upload-operation-seconds")) * time.Second,
	}, nil
}
