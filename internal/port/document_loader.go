package port

import "context"

// DocumentLoader fetches raw document bytes from a location URI. Implementations
// exist for the object-store scheme (s3://bucket/key) and plain HTTPS links.
type DocumentLoader interface {
	Load(ctx context.Context, location string) ([]byte, error)
}
