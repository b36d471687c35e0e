package dedup

import (
	"errors"
	"sort"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

// Detector groups bill candidates by canonical fingerprint. It implements
// port.DuplicateDetector.
type Detector struct {
	hasher *Hasher
}

// NewDetector creates a Detector using the given hasher.
func NewDetector(hasher *Hasher) *Detector {
	return &Detector{hasher: hasher}
}

// DetectDuplicates partitions candidates by fingerprint equality. Within each
// group the representative is the member with the lowest ingestion index;
// every other member is a duplicate of it. Candidates that cannot be
// canonicalized are returned as failures instead of joining any group.
// Groups come back ordered by their representative's ingestion index, so the
// result is independent of input ordering.
func (d *Detector) DetectDuplicates(candidates []*domain.BillCandidate) ([]*domain.DuplicateGroup, []domain.FingerprintFailure) {
	ordered := make([]*domain.BillCandidate, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Ref.Index < ordered[j].Ref.Index
	})

	var failures []domain.FingerprintFailure
	byPrint := make(map[domain.Fingerprint]*domain.DuplicateGroup)
	var groups []*domain.DuplicateGroup

	for _, c := range ordered {
		fp, err := d.hasher.Fingerprint(c)
		if err != nil {
			var fpErr *FingerprintError
			reason := err.Error()
			if errors.As(err, &fpErr) {
				reason = fpErr.Reason
			}
			failures = append(failures, domain.FingerprintFailure{Ref: c.Ref, Reason: reason})
			continue
		}

		if group, ok := byPrint[fp]; ok {
			group.Duplicates = append(group.Duplicates, c)
			continue
		}
		group := &domain.DuplicateGroup{Fingerprint: fp, Representative: c}
		byPrint[fp] = group
		groups = append(groups, group)
	}

	return groups, failures
}
