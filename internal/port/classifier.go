package port

import "github.com/aryandalviplx/OCR-bill/internal/domain"

// Classifier labels a structured candidate as BILL or SUPPORTING_DOC. The
// label function must be deterministic for identical structured content: no
// randomness, no external calls. The default implementation is a
// field-presence heuristic; a learned model can be swapped in without
// touching callers.
type Classifier interface {
	Classify(candidate *domain.BillCandidate) domain.ClassificationLabel
}
