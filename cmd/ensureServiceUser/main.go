package main

// ensureServiceUser provisions the IAM user whose access key log-generator
// signs dataset uploads with:
//
//	ensureServiceUser apply <service-name> --bucket <dataset-bucket>
//
// The outcome is a single JSON document on stdout; logs go to stderr.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/spf13/pflag"

	"github.com/scality/log-generator/pkg/ensureserviceuser"
	"github.com/scality/log-generator/pkg/util"
)

const defaultRegion = "us-east-1"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("ensureServiceUser", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	iamEndpoint := flags.String("iam-endpoint", "http://localhost:8600", "Vault IAM endpoint")
	logLevel := flags.String("log-level", "info", "Log level: debug, info, warn, error")
	bucket := flags.String("bucket", "", "Bucket the service user may upload datasets to (all buckets when empty)")

	if err := flags.Parse(argv); err != nil {
		return 2
	}

	serviceName, err := parseApplyArgs(flags.Args())
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\nUsage: ensureServiceUser apply <service-name> [flags]\n", err)
		flags.PrintDefaults()
		return 2
	}

	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{
		Level: util.ParseLogLevel(*logLevel),
	}))
	logger.Info("applying service user",
		"service", serviceName,
		"bucket", *bucket,
		"endpoint", *iamEndpoint,
	)

	client, err := newIAMClient(ctx, *iamEndpoint)
	if err == nil {
		var result *ensureserviceuser.Result
		result, err = ensureserviceuser.Apply(ctx, client, serviceName, *bucket)
		if err == nil {
			if result.SecretAccessKey != nil {
				logger.Info("created access key", "service", serviceName)
			} else {
				logger.Info("reusing existing access key", "service", serviceName)
			}
			return writeJSON(stdout, logger, ensureserviceuser.OutputSuccess{Data: *result}, 0)
		}
	}

	logger.Error("failed to apply service user", "service", serviceName, "error", err)
	return writeJSON(stdout, logger, ensureserviceuser.OutputError{Error: err.Error()}, 1)
}

func parseApplyArgs(args []string) (string, error) {
	if len(args) != 2 || args[0] != "apply" {
		return "", errors.New("expected exactly: apply <service-name>")
	}
	if args[1] == "" {
		return "", errors.New("service-name cannot be empty")
	}
	return args[1], nil
}

// newIAMClient requires static credentials in the environment
func newIAMClient(ctx context.Context, endpoint string) (*iam.Client, error) {
	for _, key := range []string{"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY"} {
		if os.Getenv(key) == "" {
			return nil, fmt.Errorf("%s environment variable is required", key)
		}
	}

	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = defaultRegion
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return iam.NewFromConfig(cfg, func(o *iam.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	}), nil
}

// writeJSON returns code, or 1 when the document cannot be written
func writeJSON(w io.Writer, logger *slog.Logger, v any, code int) int {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write output", "error", err)
		return 1
	}
	return code
}
