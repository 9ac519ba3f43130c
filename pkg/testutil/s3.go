package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/scality/log-generator/pkg/s3"
)

const (
	defaultTestRegion = "us-east-1"
)

// S3TestHelper provides utilities for testing with S3
type S3TestHelper struct {
	client *awss3.Client
}

// NewS3TestHelper creates a new S3 test helper
func NewS3TestHelper(endpoint, accessKey, secretKey string) (*S3TestHelper, error) {
	if accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("S3 credentials not configured")
	}

	s3Client := awss3.NewFromConfig(aws.Config{
		Region: defaultTestRegion,
		Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     accessKey,
				SecretAccessKey: secretKey,
			}, nil
		}),
	}, func(o *awss3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3TestHelper{client: s3Client}, nil
}

// CreateBucket creates a test bucket
func (h *S3TestHelper) CreateBucket(ctx context.Context, bucketName string) error {
	_, err := h.client.CreateBucket(ctx, &awss3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		var bucketAlreadyExists *types.BucketAlreadyExists
		var bucketAlreadyOwnedByYou *types.BucketAlreadyOwnedByYou
		if !errors.As(err, &bucketAlreadyExists) && !errors.As(err, &bucketAlreadyOwnedByYou) {
			return fmt.Errorf("failed to create test bucket: %w", err)
		}
	}
	return nil
}

// DeleteBucket deletes a test bucket and all its objects
func (h *S3TestHelper) DeleteBucket(ctx context.Context, bucketName string) error {
	var noSuchBucket *types.NoSuchBucket

	listOutput, err := h.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		if errors.As(err, &noSuchBucket) {
			return nil
		}
		return fmt.Errorf("failed to list objects: %w", err)
	}

	for _, obj := range listOutput.Contents {
		_, err = h.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
			Bucket: aws.String(bucketName),
			Key:    obj.Key,
		})
		if err != nil {
			return fmt.Errorf("failed to delete object %s: %w", aws.ToString(obj.Key), err)
		}
	}

	_, err = h.client.DeleteBucket(ctx, &awss3.DeleteBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to delete bucket: %w", err)
	}
	return nil
}

// GetObject retrieves an object from S3
func (h *S3TestHelper) GetObject(ctx context.Context, bucketName, key string) ([]byte, error) {
	output, err := h.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer func() { _ = output.Body.Close() }()

	content, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object content: %w", err)
	}

	return content, nil
}

// UploadCall records one UploadFile invocation
type UploadCall struct {
	Bucket string
	Key    string
	Path   string
}

// FakeUploader is an in-memory s3.UploaderInterface.
// The first FailCount calls return Err.
type FakeUploader struct {
	Err       error
	calls     []UploadCall
	mu        sync.Mutex
	FailCount int
}

var _ s3.UploaderInterface = (*FakeUploader)(nil)

// UploadFile records the call
func (f *FakeUploader) UploadFile(ctx context.Context, bucket, key, path string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, UploadCall{Bucket: bucket, Key: key, Path: path})
	if f.FailCount > 0 {
		f.FailCount--
		return 0, f.Err
	}
	return 42, nil
}

// Calls returns the recorded calls
func (f *FakeUploader) Calls() []UploadCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]UploadCall(nil), f.calls...)
}

// CountingUploader wraps an S3 uploader and counts upload attempts
type CountingUploader struct {
	uploader     s3.UploaderInterface
	uploadCount  atomic.Int64
	successCount atomic.Int64
	failureCount atomic.Int64
}

// NewCountingUploader creates a new counting uploader wrapper
func NewCountingUploader(uploader s3.UploaderInterface) *CountingUploader {
	return &CountingUploader{
		uploader: uploader,
	}
}

// UploadFile wraps the underlying uploader's UploadFile method and counts attempts
func (c *CountingUploader) UploadFile(ctx context.Context, bucket, key, path string) (int64, error) {
	c.uploadCount.Add(1)
	size, err := c.uploader.UploadFile(ctx, bucket, key, path)
	if err != nil {
		c.failureCount.Add(1)
		return 0, err
	}
	c.successCount.Add(1)
	return size, nil
}

// GetUploadCount returns the total number of upload attempts
func (c *CountingUploader) GetUploadCount() int64 {
	return c.uploadCount.Load()
}

// GetSuccessCount returns the number of successful uploads
func (c *CountingUploader) GetSuccessCount() int64 {
	return c.successCount.Load()
}

// GetFailureCount returns the number of failed uploads
func (c *CountingUploader) GetFailureCount() int64 {
	return c.failureCount.Load()
}
