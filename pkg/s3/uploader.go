package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const csvContentType = "text/csv"

// UploaderInterface is the upload surface used by the generator runner
type UploaderInterface interface {
	UploadFile(ctx context.Context, bucket, key, path string) (int64, error)
}

// Uploader uploads datasets to S3
type Uploader struct {
	client *Client
}

// NewUploader creates a new uploader
func NewUploader(client *Client) *Uploader {
	return &Uploader{client: client}
}

// Upload uploads an in-memory object to the specified bucket.
// Retries are handled automatically by the SDK client based on its retry configuration.
func (u *Uploader) Upload(ctx context.Context, bucket, key string, content []byte) error {
	return u.put(ctx, bucket, key, bytes.NewReader(content), int64(len(content)))
}

// UploadFile streams the file at path to the specified bucket and returns
// the number of bytes uploaded.
func (u *Uploader) UploadFile(ctx context.Context, bucket, key, path string) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s for upload: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := u.put(ctx, bucket, key, file, info.Size()); err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (u *Uploader) put(ctx context.Context, bucket, key string, body io.ReadSeeker, size int64) error {
	_, err := u.client.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(csvContentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: bucket=%s, key=%s: %w", bucket, key, err)
	}
	return nil
}
