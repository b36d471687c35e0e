package port

import "context"

// TextExtraction is the raw output of the external document-understanding
// service for one document.
type TextExtraction struct {
	Text      string
	Fields    map[string]string
	PageCount int
}

// TextExtractor abstracts the external OCR / document-understanding service.
// Implementations are bounded by the configured maximum page count and must
// honor ctx cancellation; the pipeline converts timeouts into per-document
// failures.
type TextExtractor interface {
	ExtractText(ctx context.Context, content []byte, contentType string) (*TextExtraction, error)
}
