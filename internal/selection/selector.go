package selection

import (
	"fmt"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

// Config holds selection policy settings.
type Config struct {
	// TotalToleranceMU is the allowed disagreement, in minor currency units,
	// between the summed line totals and the claimed header total before the
	// summary is flagged.
	TotalToleranceMU int64
	// TieBreakEnabled controls whether equal item counts are broken by
	// computed total before falling back to ingestion order.
	TieBreakEnabled bool
}

// Selector picks the final bill for a claim from the deduplicated candidate
// set and assembles the output artifacts.
type Selector struct {
	cfg Config
}

// NewSelector creates a Selector with the given policy.
func NewSelector(cfg Config) *Selector {
	return &Selector{cfg: cfg}
}

// SelectFinal chooses the best bill among the duplicate-group
// representatives. Duplicates never compete: only representatives are
// eligible. The candidate with the most line items wins; ties go to the
// higher computed total (when tie-breaking is enabled) and then to the
// earliest-ingested document. An empty eligible set, or one where no
// candidate has any line items, fails with domain.ErrNoBillFound.
func (s *Selector) SelectFinal(claimID string, groups []*domain.DuplicateGroup) (*domain.FinalBill, error) {
	var best *domain.BillCandidate
	var bestGroup *domain.DuplicateGroup

	for _, g := range groups {
		c := g.Representative
		if c == nil || len(c.Items) == 0 {
			continue
		}
		if best == nil || s.beats(c, best) {
			best, bestGroup = c, g
		}
	}
	if best == nil {
		return nil, domain.ErrNoBillFound
	}
	return s.assemble(claimID, best, bestGroup), nil
}

// beats reports whether challenger wins over incumbent under the selection
// policy. It is a strict ordering: on full ties the incumbent (seen earlier
// in group order) keeps its place only if it was ingested earlier.
func (s *Selector) beats(challenger, incumbent *domain.BillCandidate) bool {
	if len(challenger.Items) != len(incumbent.Items) {
		return len(challenger.Items) > len(incumbent.Items)
	}
	if s.cfg.TieBreakEnabled {
		ct, it := challenger.ComputedTotal(), incumbent.ComputedTotal()
		if ct != it {
			return ct > it
		}
	}
	return challenger.Ref.Index < incumbent.Ref.Index
}

func (s *Selector) assemble(claimID string, c *domain.BillCandidate, g *domain.DuplicateGroup) *domain.FinalBill {
	summary := s.Summarize(c)

	reason := fmt.Sprintf("selected by highest line-item count (%d)", len(c.Items))
	if s.cfg.TieBreakEnabled {
		reason += "; ties broken by computed total, then ingestion order"
	}

	bill := &domain.FinalBill{
		BillID:         billID(claimID, g.Fingerprint),
		ClaimID:        claimID,
		Ref:            c.Ref,
		VendorName:     c.VendorName,
		InvoiceNumber:  c.InvoiceNumber,
		BillDate:       c.BillDate,
		Summary:        summary,
		Items:          c.Items,
		SelectedReason: reason,
	}

	if len(g.Duplicates) > 0 {
		flags := &domain.DuplicateFlags{
			HasDuplicates:  true,
			DuplicateCount: len(g.Duplicates),
		}
		for _, d := range g.Duplicates {
			flags.Duplicates = append(flags.Duplicates, d.Ref)
		}
		bill.DuplicateFlags = flags
	}
	return bill
}

// billID derives the bill identifier from the winning group's content
// fingerprint, so identical input always produces the identical id.
func billID(claimID string, fp domain.Fingerprint) string {
	short := string(fp)
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("BILL_%s_%s", claimID, short)
}

// Summarize computes the summary totals for a candidate and flags a
// disagreement between the summed line totals and the claimed header total
// beyond the configured tolerance.
func (s *Selector) Summarize(c *domain.BillCandidate) domain.BillSummary {
	computed := c.ComputedTotal()
	summary := domain.BillSummary{
		Subtotal:     computed,
		Total:        computed,
		ClaimedTotal: c.Total,
		Currency:     c.Currency,
		ItemCount:    len(c.Items),
	}
	if c.Total != nil {
		diff := computed - *c.Total
		if diff < 0 {
			diff = -diff
		}
		if diff > s.cfg.TotalToleranceMU {
			summary.TotalMismatch = true
		}
	}
	return summary
}

// BuildItemList flattens the final bill's line items into the standalone
// list output.
func BuildItemList(bill *domain.FinalBill) *domain.BillItemList {
	return &domain.BillItemList{
		ClaimID: bill.ClaimID,
		BillID:  bill.BillID,
		Items:   bill.Items,
		Summary: bill.Summary,
	}
}

// MapInputs carries everything needed to assemble the supporting document
// map for a claim.
type MapInputs struct {
	Supporting          []*domain.BillCandidate
	Groups              []*domain.DuplicateGroup
	FingerprintFailures []domain.FingerprintFailure
	FinalRef            *domain.DocumentRef
}

// BuildSupportingDocMap tags every document that did not become the final
// bill with its terminal disposition: supporting documents, non-representative
// duplicates, candidates that could not be fingerprinted, and bills that lost
// selection. The map is keyed by ingestion index, so submitting the same
// location twice yields two distinct entries. Failed-extraction documents are
// accounted for separately in the audit trail and do not appear here.
func BuildSupportingDocMap(in MapInputs) domain.SupportingDocMap {
	out := make(domain.SupportingDocMap)

	for _, c := range in.Supporting {
		out[c.Ref.Index] = domain.SupportingDocEntry{
			Ref:    c.Ref,
			Label:  domain.LabelSupportingDoc,
			Status: domain.DocStatusSupporting,
		}
	}

	for _, f := range in.FingerprintFailures {
		out[f.Ref.Index] = domain.SupportingDocEntry{
			Ref:    f.Ref,
			Label:  domain.LabelBill,
			Status: domain.DocStatusFingerprintError,
			Detail: f.Reason,
		}
	}

	for _, g := range in.Groups {
		rep := g.Representative
		for _, d := range g.Duplicates {
			repRef := rep.Ref
			out[d.Ref.Index] = domain.SupportingDocEntry{
				Ref:         d.Ref,
				Label:       domain.LabelBill,
				Status:      domain.DocStatusDuplicate,
				DuplicateOf: &repRef,
			}
		}
		if in.FinalRef == nil || rep.Ref.Index != in.FinalRef.Index {
			out[rep.Ref.Index] = domain.SupportingDocEntry{
				Ref:    rep.Ref,
				Label:  domain.LabelBill,
				Status: domain.DocStatusNotSelected,
				Detail: "bill candidate not selected as final bill",
			}
		}
	}

	return out
}
