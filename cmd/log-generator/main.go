package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"

	"github.com/scality/log-generator/pkg/loggen"
	"github.com/scality/log-generator/pkg/util"
)

// shutdownTimeout bounds the wait for the generator to flush after a signal
const shutdownTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

// addFlags binds command-line flags to configuration items
func addFlags(flags *pflag.FlagSet) {
	for flagName, configVarName := range map[string]string{
		"log-level":   "log-level",
		"num-rows":    "generator.num-rows",
		"output-file": "generator.output-file",
		"start-date":  "generator.start-date",
		"end-date":    "generator.end-date",
		"seed":        "generator.seed",
		"num-workers": "generator.num-workers",
	} {
		loggen.ConfigSpec.AddFlag(flags, flagName, configVarName)
	}
}

// waitForCompletion waits for the run to finish, canceling it on signal, and returns the exit code
func waitForCompletion(cancel context.CancelFunc, logger *slog.Logger,
	resultChan <-chan runOutcome, signalsChan <-chan os.Signal) int {
	var outcome runOutcome

	select {
	case sig := <-signalsChan:
		logger.Info("signal received, stopping generation", "signal", sig)
		cancel()

		shutdownTimer := time.NewTimer(shutdownTimeout)
		defer shutdownTimer.Stop()

		select {
		case <-shutdownTimer.C:
			logger.Warn("shutdown timeout exceeded, forcing exit")
			return 1
		case outcome = <-resultChan:
		}

	case outcome = <-resultChan:
	}

	if outcome.err != nil {
		if errors.Is(outcome.err, context.Canceled) {
			logger.Warn("generation stopped before completion",
				"outputFile", outcome.result.Generation.OutputFile,
				"rowsWritten", outcome.result.Generation.RowsWritten)
		} else {
			logger.Error("generation failed", "error", outcome.err)
		}
		return 1
	}

	logger.Info("log-generator finished",
		"outputFile", outcome.result.Generation.OutputFile,
		"rowsWritten", outcome.result.Generation.RowsWritten,
		"seed", outcome.result.Generation.Seed,
		"rowsExported", outcome.result.RowsExported,
		"s3Key", outcome.result.UploadedKey)
	return 0
}

type runOutcome struct {
	err    error
	result loggen.RunResult
}

func run() int {
	addFlags(pflag.CommandLine)
	configFileFlag := pflag.String("config-file", "", "Path to configuration file")
	pflag.Parse()

	configFile := *configFileFlag
	if configFile == "" {
		configFile = os.Getenv("LOG_GENERATOR_CONFIG_FILE")
	}

	if err := loggen.ConfigSpec.LoadConfiguration(configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		pflag.Usage()
		return 2
	}

	if err := loggen.ValidateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation error: %v\n", err)
		return 2
	}

	runnerCfg, err := loggen.RunnerConfigFromSpec()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation error: %v\n", err)
		return 2
	}

	logLevel := util.ParseLogLevel(loggen.ConfigSpec.GetString("log-level"))
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	runnerCfg.Logger = logger
	runnerCfg.Metrics = loggen.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner, err := loggen.NewRunner(ctx, runnerCfg)
	if err != nil {
		logger.Error("failed to create runner", "error", err)
		return 1
	}
	defer func() {
		if closeErr := runner.Close(); closeErr != nil {
			logger.Error("failed to close runner", "error", closeErr)
		}
	}()

	metricsServer, err := util.StartMetricsServerIfEnabled(
		loggen.ConfigSpec, "metrics-server", prometheus.DefaultGatherer, logger)
	if err != nil {
		logger.Error("failed to start metrics server", "error", err)
		return 1
	}
	if metricsServer != nil {
		defer func() {
			if closeErr := metricsServer.Close(); closeErr != nil {
				logger.Error("failed to close metrics server", "error", closeErr)
			}
		}()
	}

	signalsChan := make(chan os.Signal, 1)
	signal.Notify(signalsChan, unix.SIGINT, unix.SIGTERM)
	defer signal.Stop(signalsChan)

	resultChan := make(chan runOutcome, 1)
	go func() {
		result, err := runner.Run(ctx)
		resultChan <- runOutcome{result: result, err: err}
	}()

	return waitForCompletion(cancel, logger, resultChan, signalsChan)
}
