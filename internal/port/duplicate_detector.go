package port

import "github.com/aryandalviplx/OCR-bill/internal/domain"

// DuplicateDetector partitions the full set of BILL-labeled candidates by
// canonical fingerprint. It requires the complete set at once; it is never
// fed a stream. Candidates that cannot be canonicalized come back as
// FingerprintFailures rather than aborting the claim.
type DuplicateDetector interface {
	DetectDuplicates(candidates []*domain.BillCandidate) ([]*domain.DuplicateGroup, []domain.FingerprintFailure)
}
