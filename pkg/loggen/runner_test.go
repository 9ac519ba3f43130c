package loggen_test

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/scality/log-generator/pkg/clickhouse"
	"github.com/scality/log-generator/pkg/loggen"
	"github.com/scality/log-generator/pkg/testutil"
)

var _ = Describe("Runner", func() {
	var (
		ctx      context.Context
		dir      string
		metrics  *loggen.Metrics
		uploader *testutil.FakeUploader
		inserter *testutil.FakeInserter
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		metrics = NewTestMetrics()
		uploader = &testutil.FakeUploader{}
		inserter = &testutil.FakeInserter{}
	})

	newConfig := func(numRows int64) loggen.RunnerConfig {
		return loggen.RunnerConfig{
			Logger:  discardLogger(),
			Metrics: metrics,
			Generator: loggen.GeneratorConfig{
				Pools:      loggen.DefaultPools(),
				Window:     mustWindow("2023-10-01 00:00:00", "2023-11-30 00:00:00"),
				OutputFile: filepath.Join(dir, "web_logs.csv"),
				NumRows:    numRows,
				Seed:       1,
				NumWorkers: 2,
				ChunkSize:  50,
			},
			Retry: loggen.RetryPolicy{
				MaxRetries:     2,
				InitialBackoff: time.Millisecond,
				MaxBackoff:     time.Millisecond,
			},
			ClickHouseEnabled:   true,
			ClickHouseBatchSize: 40,
			Inserter:            inserter,
			S3Enabled:           true,
			S3Bucket:            "datasets-bucket",
			S3KeyPrefix:         "datasets/",
			S3Uploader:          uploader,
		}
	}

	It("should generate, export and upload", func() {
		runner, err := loggen.NewRunner(ctx, newConfig(100))
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = runner.Close() }()

		result, err := runner.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Generation.RowsWritten).To(Equal(int64(100)))
		Expect(result.RowsExported).To(Equal(int64(100)))
		Expect(result.UploadedKey).To(Equal("datasets/web_logs.csv"))
		Expect(result.UploadedBytes).To(Equal(int64(42)))

		Expect(inserter.BatchSizes(clickhouse.TableWebLogs)).To(Equal([]int{40, 40, 20}))
		Expect(uploader.Calls()).To(Equal([]testutil.UploadCall{{
			Bucket: "datasets-bucket",
			Key:    "datasets/web_logs.csv",
			Path:   filepath.Join(dir, "web_logs.csv"),
		}}))
		Expect(promtestutil.ToFloat64(metrics.Upload.Uploads.WithLabelValues("success"))).To(Equal(1.0))
	})

	It("should only generate when no sink is enabled", func() {
		cfg := newConfig(10)
		cfg.ClickHouseEnabled = false
		cfg.S3Enabled = false

		runner, err := loggen.NewRunner(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())

		result, err := runner.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.RowsExported).To(BeZero())
		Expect(result.UploadedKey).To(BeEmpty())
		Expect(inserter.Calls).To(BeZero())
		Expect(uploader.Calls()).To(BeEmpty())
		Expect(runner.Generator().Seed()).To(Equal(uint64(1)))
	})

	It("should require a bucket when upload is enabled", func() {
		cfg := newConfig(10)
		cfg.S3Bucket = ""

		_, err := loggen.NewRunner(ctx, cfg)
		Expect(err).To(MatchError(ContainSubstring("without a bucket")))
	})

	It("should reject an invalid generator configuration", func() {
		cfg := newConfig(-5)

		_, err := loggen.NewRunner(ctx, cfg)
		Expect(err).To(MatchError(ContainSubstring("failed to create generator")))
	})

	It("should retry transient upload failures", func() {
		uploader.FailCount = 1
		uploader.Err = errors.New("connection reset by peer")

		counting := testutil.NewCountingUploader(uploader)
		cfg := newConfig(10)
		cfg.S3Uploader = counting

		runner, err := loggen.NewRunner(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())

		result, err := runner.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.UploadedKey).To(Equal("datasets/web_logs.csv"))
		Expect(uploader.Calls()).To(HaveLen(2))
		Expect(counting.GetUploadCount()).To(Equal(int64(2)))
		Expect(counting.GetFailureCount()).To(Equal(int64(1)))
		Expect(counting.GetSuccessCount()).To(Equal(int64(1)))
	})

	It("should report a permanent upload failure", func() {
		uploader.FailCount = 5
		uploader.Err = errors.New("api error NoSuchBucket: The specified bucket does not exist")

		runner, err := loggen.NewRunner(ctx, newConfig(10))
		Expect(err).NotTo(HaveOccurred())

		result, err := runner.Run(ctx)
		Expect(err).To(MatchError(ContainSubstring("failed to upload dataset")))
		Expect(result.Generation.RowsWritten).To(Equal(int64(10)))
		Expect(result.UploadedKey).To(BeEmpty())
		Expect(uploader.Calls()).To(HaveLen(1))
		Expect(promtestutil.ToFloat64(metrics.Upload.Uploads.WithLabelValues("failed"))).To(Equal(1.0))
	})

	It("should not upload a failed generation", func() {
		cfg := newConfig(10)
		cfg.Generator.OutputFile = filepath.Join(dir, "missing", "web_logs.csv")

		runner, err := loggen.NewRunner(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())

		_, err = runner.Run(ctx)
		Expect(err).To(MatchError(ContainSubstring("failed to create output file")))
		Expect(uploader.Calls()).To(BeEmpty())
	})

	It("should not upload an interrupted generation", func() {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		runner, err := loggen.NewRunner(ctx, newConfig(1_000))
		Expect(err).NotTo(HaveOccurred())

		_, err = runner.Run(canceled)
		Expect(err).To(MatchError(context.Canceled))
		Expect(uploader.Calls()).To(BeEmpty())
	})

	It("should fail when the export fails", func() {
		inserter.FailCount = 100
		inserter.Err = errors.New("AccessDenied: readonly user")

		runner, err := loggen.NewRunner(ctx, newConfig(100))
		Expect(err).NotTo(HaveOccurred())

		_, err = runner.Run(ctx)
		Expect(err).To(MatchError(ContainSubstring("failed to export 40 records")))
		Expect(uploader.Calls()).To(BeEmpty())
	})
})
