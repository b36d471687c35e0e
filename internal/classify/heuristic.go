package classify

import (
	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

// HeuristicClassifier is the default classifier: a document with at least one
// line item and a non-nil total is a BILL, anything else is a SUPPORTING_DOC.
// The heuristic is deliberately simple; callers depend only on the
// port.Classifier contract, so a learned model can replace this without
// touching them.
type HeuristicClassifier struct{}

// NewHeuristicClassifier creates the default field-presence classifier.
func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

// Classify labels the candidate. The result depends only on the candidate's
// structured content.
func (c *HeuristicClassifier) Classify(candidate *domain.BillCandidate) domain.ClassificationLabel {
	if candidate == nil {
		return domain.LabelUnknown
	}
	if len(candidate.Items) > 0 && candidate.Total != nil {
		return domain.LabelBill
	}
	return domain.LabelSupportingDoc
}
