package port

import (
	"context"
	"io"
)

// ObjectStorage abstracts cloud object storage for output bundle archival.
// Upload returns the stored object's location URL.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error)
	GetPresignedURL(ctx context.Context, bucket, key string, expirySeconds int64) (string, error)
}
