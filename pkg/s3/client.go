package s3

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultRegion = "us-east-1"

// Client is the S3 endpoint datasets are uploaded to
type Client struct {
	api *s3.Client
}

// Config describes the dataset bucket's endpoint. Zero retry settings keep
// the SDK defaults.
type Config struct {
	Endpoint         string // path-style addressing is used when set
	Region           string
	AccessKeyID      string
	SecretAccessKey  string
	MaxRetryAttempts int
	MaxBackoffDelay  time.Duration
}

// NewClient builds a client authenticated with static credentials
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("access key ID and secret access key are required")
	}
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithHTTPClient(uploadHTTPClient()),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	}
	if cfg.MaxRetryAttempts > 0 || cfg.MaxBackoffDelay > 0 {
		loadOpts = append(loadOpts, config.WithRetryer(cfg.retryer))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Client{api: s3.NewFromConfig(awsCfg, cfg.endpointOption)}, nil
}

// uploadHTTPClient bounds every phase of a request except the body
// transfer, which can be long for large datasets.
func uploadHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
			ResponseHeaderTimeout: time.Minute,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

func (c Config) retryer() aws.Retryer {
	var r aws.Retryer = retry.NewStandard()
	if c.MaxRetryAttempts > 0 {
		r = retry.AddWithMaxAttempts(r, c.MaxRetryAttempts)
	}
	if c.MaxBackoffDelay > 0 {
		r = retry.AddWithMaxBackoffDelay(r, c.MaxBackoffDelay)
	}
	return r
}

func (c Config) endpointOption(o *s3.Options) {
	if c.Endpoint == "" {
		return
	}
	o.BaseEndpoint = aws.String(c.Endpoint)
	o.UsePathStyle = true
}
