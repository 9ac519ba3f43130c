package loggen

import "github.com/scality/log-generator/pkg/util"

// ConfigSpec defines all configuration items for log-generator
//
//nolint:gochecknoglobals // global config spec is intentional
var ConfigSpec = util.ConfigSpec{
	// Generation
	"generator.num-rows": util.ConfigVarSpec{
		Help:         "Number of log records to generate",
		DefaultValue: 15_000_000,
		EnvVar:       "LOG_GENERATOR_NUM_ROWS",
	},
	"generator.output-file": util.ConfigVarSpec{
		Help:         "Path of the CSV file to write (its directory must exist)",
		DefaultValue: "./data/web_logs.csv",
		EnvVar:       "LOG_GENERATOR_OUTPUT_FILE",
	},
	"generator.start-date": util.ConfigVarSpec{
		Help:         "Start of the generation window (YYYY-MM-DD[ HH:MM:SS], UTC)",
		DefaultValue: "2023-10-01",
		EnvVar:       "LOG_GENERATOR_START_DATE",
	},
	"generator.end-date": util.ConfigVarSpec{
		Help:         "End of the generation window, inclusive (YYYY-MM-DD[ HH:MM:SS], UTC)",
		DefaultValue: "2023-11-30",
		EnvVar:       "LOG_GENERATOR_END_DATE",
	},
	"generator.seed": util.ConfigVarSpec{
		Help:         "Random seed for a reproducible dataset (0 picks a random seed)",
		DefaultValue: uint64(0),
		EnvVar:       "LOG_GENERATOR_SEED",
	},
	"generator.num-workers": util.ConfigVarSpec{
		Help:         "Number of goroutines sampling rows (1 generates sequentially)",
		DefaultValue: 1,
		EnvVar:       "LOG_GENERATOR_NUM_WORKERS",
	},
	"generator.chunk-size": util.ConfigVarSpec{
		Help:         "Number of consecutive rows drawn from one random stream",
		DefaultValue: DefaultChunkSize,
		EnvVar:       "LOG_GENERATOR_CHUNK_SIZE",
	},
	"generator.progress-interval": util.ConfigVarSpec{
		Help:         "Number of rows between progress messages",
		DefaultValue: DefaultProgressInterval,
		EnvVar:       "LOG_GENERATOR_PROGRESS_INTERVAL",
	},

	// ClickHouse export
	"clickhouse.enabled": util.ConfigVarSpec{
		Help:         "Also insert generated records into ClickHouse",
		DefaultValue: false,
		EnvVar:       "LOG_GENERATOR_CLICKHOUSE_ENABLED",
	},
	"clickhouse.url": util.ConfigVarSpec{
		Help:         "ClickHouse hosts (comma-separated)",
		DefaultValue: "localhost:9000",
		EnvVar:       "LOG_GENERATOR_CLICKHOUSE_URL",
		ParseFunc:    util.ParseHostList,
	},
	"clickhouse.username": util.ConfigVarSpec{
		Help:         "ClickHouse username",
		DefaultValue: "default",
		EnvVar:       "LOG_GENERATOR_CLICKHOUSE_USERNAME",
	},
	"clickhouse.password": util.ConfigVarSpec{
		Help:         "ClickHouse password",
		DefaultValue: "",
		EnvVar:       "LOG_GENERATOR_CLICKHOUSE_PASSWORD",
	},
	"clickhouse.database": util.ConfigVarSpec{
		Help:         "ClickHouse database receiving the web_logs table",
		DefaultValue: "weblogs",
		EnvVar:       "LOG_GENERATOR_CLICKHOUSE_DATABASE",
	},
	"clickhouse.timeout-seconds": util.ConfigVarSpec{
		Help:         "ClickHouse dial and query timeout in seconds",
		DefaultValue: 30,
		EnvVar:       "LOG_GENERATOR_CLICKHOUSE_TIMEOUT_SECONDS",
	},
	"clickhouse.batch-size": util.ConfigVarSpec{
		Help:         "Number of records per ClickHouse insert",
		DefaultValue: DefaultExportBatchSize,
		EnvVar:       "LOG_GENERATOR_CLICKHOUSE_BATCH_SIZE",
	},
	"clickhouse.create-schema": util.ConfigVarSpec{
		Help:         "Create the database and table before exporting",
		DefaultValue: true,
		EnvVar:       "LOG_GENERATOR_CLICKHOUSE_CREATE_SCHEMA",
	},

	// Retry
	"retry.max-retries": util.ConfigVarSpec{
		Help:         "Retries after the initial attempt for ClickHouse and S3 operations",
		DefaultValue: 3,
		EnvVar:       "LOG_GENERATOR_RETRY_MAX_RETRIES",
	},
	"retry.initial-backoff-seconds": util.ConfigVarSpec{
		Help:         "Wait before the first retry in seconds",
		DefaultValue: 1,
		EnvVar:       "LOG_GENERATOR_RETRY_INITIAL_BACKOFF_SECONDS",
	},
	"retry.max-backoff-seconds": util.ConfigVarSpec{
		Help:         "Maximum wait between retries in seconds",
		DefaultValue: 30,
		EnvVar:       "LOG_GENERATOR_RETRY_MAX_BACKOFF_SECONDS",
	},
	"retry.backoff-jitter-factor": util.ConfigVarSpec{
		Help:         "Jitter applied to retry waits (0.0 to 1.0)",
		DefaultValue: 0.2,
		EnvVar:       "LOG_GENERATOR_RETRY_BACKOFF_JITTER_FACTOR",
	},

	// S3 upload
	"s3.enabled": util.ConfigVarSpec{
		Help:         "Upload the finished dataset to S3",
		DefaultValue: false,
		EnvVar:       "LOG_GENERATOR_S3_ENABLED",
	},
	"s3.endpoint": util.ConfigVarSpec{
		Help:         "S3 endpoint URL (empty for AWS)",
		DefaultValue: "",
		EnvVar:       "LOG_GENERATOR_S3_ENDPOINT",
	},
	"s3.access-key-id": util.ConfigVarSpec{
		Help:         "S3 access key ID",
		DefaultValue: "",
		EnvVar:       "LOG_GENERATOR_S3_ACCESS_KEY_ID",
	},
	"s3.secret-access-key": util.ConfigVarSpec{
		Help:         "S3 secret access key",
		DefaultValue: "",
		EnvVar:       "LOG_GENERATOR_S3_SECRET_ACCESS_KEY",
	},
	"s3.bucket": util.ConfigVarSpec{
		Help:         "Bucket receiving the dataset",
		DefaultValue: "",
		EnvVar:       "LOG_GENERATOR_S3_BUCKET",
	},
	"s3.key-prefix": util.ConfigVarSpec{
		Help:         "Prefix prepended to the dataset file name to form the object key",
		DefaultValue: "datasets/",
		EnvVar:       "LOG_GENERATOR_S3_KEY_PREFIX",
	},
	"s3.max-retry-attempts": util.ConfigVarSpec{
		Help:         "Maximum attempts of the S3 SDK retryer",
		DefaultValue: 3,
		EnvVar:       "LOG_GENERATOR_S3_MAX_RETRY_ATTEMPTS",
	},
	"s3.max-backoff-delay-seconds": util.ConfigVarSpec{
		Help:         "Maximum backoff of the S3 SDK retryer in seconds",
		DefaultValue: 20,
		EnvVar:       "LOG_GENERATOR_S3_MAX_BACKOFF_DELAY_SECONDS",
	},
	"timeout.upload-operation-seconds": util.ConfigVarSpec{
		Help:         "Maximum time for the dataset upload including retries",
		DefaultValue: 600,
		EnvVar:       "LOG_GENERATOR_UPLOAD_TIMEOUT_SECONDS",
	},

	// Metrics server
	"metrics-server.enabled": util.ConfigVarSpec{
		Help:         "Serve Prometheus metrics while generating",
		DefaultValue: false,
		EnvVar:       "LOG_GENERATOR_METRICS_ENABLED",
	},
	"metrics-server.listen-address": util.ConfigVarSpec{
		Help:         "Metrics server listen address",
		DefaultValue: "0.0.0.0",
		EnvVar:       "LOG_GENERATOR_METRICS_LISTEN_ADDRESS",
	},
	"metrics-server.listen-port": util.ConfigVarSpec{
		Help:         "Metrics server listen port",
		DefaultValue: 9090,
		EnvVar:       "LOG_GENERATOR_METRICS_LISTEN_PORT",
	},

	// General
	"log-level": util.ConfigVarSpec{
		Help:         "Log level (error|warn|info|debug)",
		DefaultValue: "info",
		EnvVar:       "LOG_GENERATOR_LOG_LEVEL",
	},
}
