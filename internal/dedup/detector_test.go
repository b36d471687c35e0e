package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	h, err := NewHasher("sha256")
	require.NoError(t, err)
	return NewDetector(h)
}

func billAt(index int, vendor, invoice string, total int64) *domain.BillCandidate {
	return &domain.BillCandidate{
		Ref:           domain.DocumentRef{Index: index, Location: "s3://b/doc" + invoice},
		VendorName:    vendor,
		InvoiceNumber: invoice,
		Total:         money(total),
		Items:         []domain.LineItem{{Description: "Fee", Quantity: 1, LineTotal: money(total)}},
	}
}

func TestDetector_GroupsIdenticalContent(t *testing.T) {
	d := newTestDetector(t)

	original := billAt(0, "ACME", "A1", 15000)
	copy1 := billAt(2, "acme", "a1", 15000)
	other := billAt(1, "Globex", "G7", 9000)

	groups, failures := d.DetectDuplicates([]*domain.BillCandidate{original, copy1, other})
	require.Empty(t, failures)
	require.Len(t, groups, 2)

	assert.Equal(t, 0, groups[0].Representative.Ref.Index)
	require.Len(t, groups[0].Duplicates, 1)
	assert.Equal(t, 2, groups[0].Duplicates[0].Ref.Index)
	assert.Equal(t, 2, groups[0].Size())

	assert.Equal(t, 1, groups[1].Representative.Ref.Index)
	assert.Empty(t, groups[1].Duplicates)
}

func TestDetector_RepresentativeIndependentOfInputOrder(t *testing.T) {
	d := newTestDetector(t)

	first := billAt(0, "ACME", "A1", 15000)
	second := billAt(3, "ACME", "A1", 15000)

	// Later-ingested candidate passed first must not become representative.
	groups, failures := d.DetectDuplicates([]*domain.BillCandidate{second, first})
	require.Empty(t, failures)
	require.Len(t, groups, 1)
	assert.Equal(t, 0, groups[0].Representative.Ref.Index)
	assert.Equal(t, 3, groups[0].Duplicates[0].Ref.Index)
}

func TestDetector_GroupsOrderedByRepresentativeIndex(t *testing.T) {
	d := newTestDetector(t)

	a := billAt(5, "Vendor A", "A", 100)
	b := billAt(1, "Vendor B", "B", 200)
	c := billAt(3, "Vendor C", "C", 300)

	groups, _ := d.DetectDuplicates([]*domain.BillCandidate{a, b, c})
	require.Len(t, groups, 3)
	assert.Equal(t, 1, groups[0].Representative.Ref.Index)
	assert.Equal(t, 3, groups[1].Representative.Ref.Index)
	assert.Equal(t, 5, groups[2].Representative.Ref.Index)
}

func TestDetector_UncanonicalizableBecomesFailure(t *testing.T) {
	d := newTestDetector(t)

	good := billAt(0, "ACME", "A1", 15000)
	bad := &domain.BillCandidate{Ref: domain.DocumentRef{Index: 1, Location: "s3://b/blank.pdf"}}

	groups, failures := d.DetectDuplicates([]*domain.BillCandidate{good, bad})
	require.Len(t, groups, 1)
	require.Len(t, failures, 1)
	assert.Equal(t, "s3://b/blank.pdf", failures[0].Ref.Location)
	assert.Equal(t, "no canonicalizable fields", failures[0].Reason)
}

func TestDetector_EmptyInput(t *testing.T) {
	d := newTestDetector(t)

	groups, failures := d.DetectDuplicates(nil)
	assert.Empty(t, groups)
	assert.Empty(t, failures)
}
