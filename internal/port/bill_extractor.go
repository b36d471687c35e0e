package port

import "github.com/aryandalviplx/OCR-bill/internal/domain"

// BillExtractor turns one successfully extracted document into a structured
// bill candidate. Missing optional header fields are tolerated; the only
// fatal condition is a document with neither line items nor a derivable total
// (domain.ErrNoBillableContent).
type BillExtractor interface {
	Extract(doc *domain.ExtractedDocument) (*domain.BillCandidate, error)
}
