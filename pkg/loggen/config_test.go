package loggen_test

import (
	"math"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"

	"github.com/scality/log-generator/pkg/loggen"
)

var _ = Describe("Configuration", Ordered, func() {
	envVars := []string{
		"LOG_GENERATOR_LOG_LEVEL",
		"LOG_GENERATOR_NUM_ROWS",
		"LOG_GENERATOR_START_DATE",
		"LOG_GENERATOR_END_DATE",
		"LOG_GENERATOR_SEED",
		"LOG_GENERATOR_CLICKHOUSE_ENABLED",
		"LOG_GENERATOR_CLICKHOUSE_URL",
		"LOG_GENERATOR_S3_ENABLED",
		"LOG_GENERATOR_S3_BUCKET",
		"LOG_GENERATOR_RETRY_BACKOFF_JITTER_FACTOR",
	}

	AfterEach(func() {
		loggen.ConfigSpec.Reset()
		pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
		for _, name := range envVars {
			_ = os.Unsetenv(name)
		}
	})

	writeConfigFile := func(content string) string {
		tmpFile, err := os.CreateTemp(GinkgoT().TempDir(), "config-*.yaml")
		Expect(err).NotTo(HaveOccurred())
		_, err = tmpFile.WriteString(content)
		Expect(err).NotTo(HaveOccurred())
		Expect(tmpFile.Close()).To(Succeed())
		return tmpFile.Name()
	}

	Describe("ConfigSpec", func() {
		It("should have defaults for a reference dataset", func() {
			Expect(loggen.ConfigSpec.LoadConfiguration("")).To(Succeed())

			Expect(loggen.ConfigSpec.GetString("log-level")).To(Equal("info"))
			Expect(loggen.ConfigSpec.GetInt("generator.num-rows")).To(Equal(15_000_000))
			Expect(loggen.ConfigSpec.GetString("generator.output-file")).To(Equal("./data/web_logs.csv"))
			Expect(loggen.ConfigSpec.GetString("generator.start-date")).To(Equal("2023-10-01"))
			Expect(loggen.ConfigSpec.GetString("generator.end-date")).To(Equal("2023-11-30"))
			Expect(loggen.ConfigSpec.GetUint64("generator.seed")).To(BeZero())
			Expect(loggen.ConfigSpec.GetInt("generator.num-workers")).To(Equal(1))
			Expect(loggen.ConfigSpec.GetBool("clickhouse.enabled")).To(BeFalse())
			Expect(loggen.ConfigSpec.GetStringSlice("clickhouse.url")).To(Equal([]string{"localhost:9000"}))
			Expect(loggen.ConfigSpec.GetBool("s3.enabled")).To(BeFalse())
		})

		It("should load values from environment variables", func() {
			Expect(os.Setenv("LOG_GENERATOR_LOG_LEVEL", "debug")).To(Succeed())
			Expect(os.Setenv("LOG_GENERATOR_NUM_ROWS", "1000")).To(Succeed())
			Expect(os.Setenv("LOG_GENERATOR_CLICKHOUSE_URL", "ch1:9000, ch2:9000")).To(Succeed())

			Expect(loggen.ConfigSpec.LoadConfiguration("")).To(Succeed())

			Expect(loggen.ConfigSpec.GetString("log-level")).To(Equal("debug"))
			Expect(loggen.ConfigSpec.GetInt("generator.num-rows")).To(Equal(1000))
			Expect(loggen.ConfigSpec.GetStringSlice("clickhouse.url")).To(Equal([]string{"ch1:9000", "ch2:9000"}))
		})

		It("should load values from file", func() {
			path := writeConfigFile("log-level: error\ngenerator:\n  num-rows: 25\n  seed: 7\n")

			Expect(loggen.ConfigSpec.LoadConfiguration(path)).To(Succeed())

			Expect(loggen.ConfigSpec.GetString("log-level")).To(Equal("error"))
			Expect(loggen.ConfigSpec.GetInt("generator.num-rows")).To(Equal(25))
			Expect(loggen.ConfigSpec.GetUint64("generator.seed")).To(Equal(uint64(7)))
		})

		It("should override file with environment variable", func() {
			path := writeConfigFile("log-level: error\n")
			Expect(os.Setenv("LOG_GENERATOR_LOG_LEVEL", "warn")).To(Succeed())

			Expect(loggen.ConfigSpec.LoadConfiguration(path)).To(Succeed())
			Expect(loggen.ConfigSpec.GetString("log-level")).To(Equal("warn"))
		})

		It("should override environment with flag", func() {
			Expect(os.Setenv("LOG_GENERATOR_NUM_ROWS", "1000")).To(Succeed())

			loggen.ConfigSpec.AddFlag(pflag.CommandLine, "num-rows", "generator.num-rows")
			Expect(pflag.CommandLine.Set("num-rows", "12")).To(Succeed())

			Expect(loggen.ConfigSpec.LoadConfiguration("")).To(Succeed())
			Expect(loggen.ConfigSpec.GetInt("generator.num-rows")).To(Equal(12))
		})

		It("should fail on a missing config file", func() {
			err := loggen.ConfigSpec.LoadConfiguration("/nonexistent/config.yaml")
			Expect(err).To(MatchError(ContainSubstring("cannot read config")))
		})
	})

	Describe("ValidateConfig", func() {
		DescribeTable("should accept valid log levels",
			func(level string) {
				Expect(os.Setenv("LOG_GENERATOR_LOG_LEVEL", level)).To(Succeed())
				Expect(loggen.ConfigSpec.LoadConfiguration("")).To(Succeed())
				Expect(loggen.ValidateConfig()).To(Succeed())
			},
			Entry("info", "info"),
			Entry("debug", "debug"),
			Entry("warn", "warn"),
			Entry("error", "error"),
		)

		DescribeTable("should reject invalid settings",
			func(env map[string]string, message string) {
				for name, value := range env {
					Expect(os.Setenv(name, value)).To(Succeed())
				}
				Expect(loggen.ConfigSpec.LoadConfiguration("")).To(Succeed())

				err := loggen.ValidateConfig()
				Expect(err).To(MatchError(ContainSubstring(message)))
			},
			Entry("log level",
				map[string]string{"LOG_GENERATOR_LOG_LEVEL": "invalid"}, "invalid log-level: invalid"),
			Entry("negative row count",
				map[string]string{"LOG_GENERATOR_NUM_ROWS": "-1"}, "generator.num-rows must not be negative"),
			Entry("malformed start date",
				map[string]string{"LOG_GENERATOR_START_DATE": "yesterday"}, "generator.start-date"),
			Entry("end before start",
				map[string]string{"LOG_GENERATOR_START_DATE": "2023-12-01"}, "invalid generation window"),
			Entry("upload without bucket",
				map[string]string{"LOG_GENERATOR_S3_ENABLED": "true"}, "s3.bucket is required"),
			Entry("upload without credentials",
				map[string]string{"LOG_GENERATOR_S3_ENABLED": "true", "LOG_GENERATOR_S3_BUCKET": "b"},
				"s3.access-key-id and s3.secret-access-key are required"),
			Entry("negative seed",
				map[string]string{"LOG_GENERATOR_SEED": "-1"}, `generator.seed must be an integer in [0, 18446744073709551615], got "-1"`),
			Entry("malformed seed",
				map[string]string{"LOG_GENERATOR_SEED": "abc"}, "generator.seed must be an integer"),
			Entry("jitter out of range",
				map[string]string{"LOG_GENERATOR_RETRY_BACKOFF_JITTER_FACTOR": "1.5"}, "retry.backoff-jitter-factor"),
		)

		It("should accept a zero row count", func() {
			Expect(os.Setenv("LOG_GENERATOR_NUM_ROWS", "0")).To(Succeed())
			Expect(loggen.ConfigSpec.LoadConfiguration("")).To(Succeed())
			Expect(loggen.ValidateConfig()).To(Succeed())
		})
	})

	Describe("RunnerConfigFromSpec", func() {
		It("should map the loaded configuration", func() {
			Expect(os.Setenv("LOG_GENERATOR_NUM_ROWS", "500")).To(Succeed())
			Expect(os.Setenv("LOG_GENERATOR_SEED", "99")).To(Succeed())
			Expect(os.Setenv("LOG_GENERATOR_START_DATE", "2023-10-01")).To(Succeed())
			Expect(os.Setenv("LOG_GENERATOR_END_DATE", "2023-10-02 12:00:00")).To(Succeed())
			Expect(os.Setenv("LOG_GENERATOR_CLICKHOUSE_ENABLED", "true")).To(Succeed())
			Expect(os.Setenv("LOG_GENERATOR_CLICKHOUSE_URL", "ch1:9000,ch2:9000")).To(Succeed())
			Expect(loggen.ConfigSpec.LoadConfiguration("")).To(Succeed())

			cfg, err := loggen.RunnerConfigFromSpec()
			Expect(err).NotTo(HaveOccurred())

			Expect(cfg.Generator.NumRows).To(Equal(int64(500)))
			Expect(cfg.Generator.Seed).To(Equal(uint64(99)))
			Expect(cfg.Generator.OutputFile).To(Equal("./data/web_logs.csv"))
			Expect(cfg.Generator.Window.Start).To(Equal(time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)))
			Expect(cfg.Generator.Window.End).To(Equal(time.Date(2023, 10, 2, 12, 0, 0, 0, time.UTC)))
			Expect(cfg.Generator.Pools.URLs).To(HaveLen(171))
			Expect(cfg.Generator.ChunkSize).To(Equal(loggen.DefaultChunkSize))
			Expect(cfg.Generator.ProgressInterval).To(Equal(int64(loggen.DefaultProgressInterval)))

			Expect(cfg.ClickHouseEnabled).To(BeTrue())
			Expect(cfg.ClickHouseHosts).To(Equal([]string{"ch1:9000", "ch2:9000"}))
			Expect(cfg.ClickHouseDatabase).To(Equal("weblogs"))
			Expect(cfg.ClickHouseTimeout).To(Equal(30 * time.Second))
			Expect(cfg.ClickHouseBatchSize).To(Equal(loggen.DefaultExportBatchSize))

			Expect(cfg.Retry.MaxRetries).To(Equal(3))
			Expect(cfg.Retry.InitialBackoff).To(Equal(time.Second))
			Expect(cfg.Retry.MaxBackoff).To(Equal(30 * time.Second))
			Expect(cfg.Retry.JitterFactor).To(BeNumerically("~", 0.2, 1e-9))

			Expect(cfg.S3Enabled).To(BeFalse())
			Expect(cfg.S3KeyPrefix).To(Equal("datasets/"))
			Expect(cfg.UploadOperationTimeout).To(Equal(10 * time.Minute))
		})

		It("should accept the largest seed from the environment", func() {
			Expect(os.Setenv("LOG_GENERATOR_SEED", "18446744073709551615")).To(Succeed())
			Expect(loggen.ConfigSpec.LoadConfiguration("")).To(Succeed())
			Expect(loggen.ValidateConfig()).To(Succeed())

			cfg, err := loggen.RunnerConfigFromSpec()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Generator.Seed).To(Equal(uint64(math.MaxUint64)))
		})

		It("should accept a seed above MaxInt64 from the command line", func() {
			loggen.ConfigSpec.AddFlag(pflag.CommandLine, "seed", "generator.seed")
			Expect(pflag.CommandLine.Set("seed", "9223372036854775808")).To(Succeed())
			Expect(loggen.ConfigSpec.LoadConfiguration("")).To(Succeed())

			seed, err := loggen.SeedFromConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(seed).To(Equal(uint64(1) << 63))
		})

		It("should refuse a negative seed instead of drawing a random one", func() {
			Expect(os.Setenv("LOG_GENERATOR_SEED", "-42")).To(Succeed())
			Expect(loggen.ConfigSpec.LoadConfiguration("")).To(Succeed())

			_, err := loggen.RunnerConfigFromSpec()
			Expect(err).To(MatchError(ContainSubstring("generator.seed")))
		})

		It("should fail on an invalid window", func() {
			Expect(os.Setenv("LOG_GENERATOR_END_DATE", "not-a-date")).To(Succeed())
			Expect(loggen.ConfigSpec.LoadConfiguration("")).To(Succeed())

			_, err := loggen.RunnerConfigFromSpec()
			Expect(err).To(MatchError(ContainSubstring("generator.end-date")))
		})
	})
})
