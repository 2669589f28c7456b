package s3blob

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// minPartSize is the S3 minimum multipart part size (5 MiB). Payloads
// larger than this go through the multipart uploader.
const minPartSize int64 = 5 * 1024 * 1024

// Writer implements domain.BlobWriter using an S3-compatible backend.
type Writer struct {
	client      *s3.Client
	bucket      string
	contentType string
}

// NewWriter creates a new Writer that uploads objects to the given client's
// configured bucket. Payloads are stored with the given content type, or
// application/json when empty.
func NewWriter(c *Client, contentType string) *Writer {
	if contentType == "" {
		contentType = "application/json"
	}
	return &Writer{
		client:      c.S3(),
		bucket:      c.Bucket(),
		contentType: contentType,
	}
}

// Write uploads the payload. Small payloads use a single PutObject request;
// anything above the S3 minimum part size goes through the multipart upload
// manager, which splits the payload into parts and uploads them
// concurrently.
func (w *Writer) Write(ctx context.Context, key string, payload []byte) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String(w.contentType),
	}

	if int64(len(payload)) > minPartSize {
		uploader := manager.NewUploader(w.client, func(u *manager.Uploader) {
			u.PartSize = minPartSize
		})
		if _, err := uploader.Upload(ctx, input); err != nil {
			return fmt.Errorf("s3blob: multipart upload %s: %w", key, err)
		}
		return nil
	}

	if _, err := w.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3blob: put object %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.BlobWriter = (*Writer)(nil)
