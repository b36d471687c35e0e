package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aryandalviplx/OCR-bill/internal/billparse"
	"github.com/aryandalviplx/OCR-bill/internal/classify"
	"github.com/aryandalviplx/OCR-bill/internal/dedup"
	"github.com/aryandalviplx/OCR-bill/internal/domain"
	"github.com/aryandalviplx/OCR-bill/internal/pipeline"
	"github.com/aryandalviplx/OCR-bill/internal/port"
	"github.com/aryandalviplx/OCR-bill/internal/selection"
	"github.com/aryandalviplx/OCR-bill/mocks"
)

// newOrchestrator wires the real maker, classifier, detector, and selector
// behind mocked loader and text extractor, so pipeline behavior is driven by
// document content alone.
func newOrchestrator(t *testing.T, loader *mocks.MockDocumentLoader, extractor *mocks.MockTextExtractor) *pipeline.Orchestrator {
	t.Helper()
	hasher, err := dedup.NewHasher("sha256")
	require.NoError(t, err)
	return pipeline.New(
		loader,
		extractor,
		billparse.NewExtractor(),
		classify.NewHeuristicClassifier(),
		dedup.NewDetector(hasher),
		selection.NewSelector(selection.Config{TotalToleranceMU: 100, TieBreakEnabled: true}),
		pipeline.Config{DocConcurrency: 2, DocTimeout: 5 * time.Second},
	)
}

func stubDocument(loader *mocks.MockDocumentLoader, extractor *mocks.MockTextExtractor, location, text string, fields map[string]string) {
	content := []byte("raw:" + location)
	loader.On("Load", mock.Anything, location).Return(content, nil)
	extractor.On("ExtractText", mock.Anything, content, mock.Anything).
		Return(&port.TextExtraction{Text: text, Fields: fields, PageCount: 1}, nil)
}

const billText = "Consultation Fee  2  500.00  1000.00\nTotal: 1000.00\n"
const otherBillText = "Room Charges  1  2500.00  2500.00\nMedicines  1  300.00  300.00\nTotal: 2800.00\n"
const noteText = "Discharge summary. Patient is recovering well."

func TestProcessClaim_SuccessWithDuplicates(t *testing.T) {
	loader := new(mocks.MockDocumentLoader)
	extractor := new(mocks.MockTextExtractor)
	o := newOrchestrator(t, loader, extractor)

	fields := map[string]string{"vendor_name": "City Hospital", "invoice_number": "INV-1"}
	stubDocument(loader, extractor, "s3://b/bill.pdf", billText, fields)
	stubDocument(loader, extractor, "s3://b/bill_copy.pdf", billText, fields)
	stubDocument(loader, extractor, "s3://b/big_bill.pdf", otherBillText,
		map[string]string{"vendor_name": "City Hospital", "invoice_number": "INV-2"})

	result, err := o.ProcessClaim(context.Background(), "CLM001",
		[]string{"s3://b/bill.pdf", "s3://b/bill_copy.pdf", "s3://b/big_bill.pdf"})
	require.NoError(t, err)

	assert.Equal(t, domain.ClaimStatusSuccess, result.Status)
	require.NotNil(t, result.Outputs.FinalBill)

	// two-item bill wins over the one-item duplicate pair
	final := result.Outputs.FinalBill
	assert.Equal(t, "s3://b/big_bill.pdf", final.Ref.Location)
	assert.Equal(t, "INV-2", final.InvoiceNumber)
	assert.Len(t, final.Items, 2)

	// the duplicate copy points at its representative
	docMap := result.Outputs.SupportingDocMap
	dup, ok := docMap[1]
	require.True(t, ok)
	assert.Equal(t, "s3://b/bill_copy.pdf", dup.Ref.Location)
	assert.Equal(t, domain.DocStatusDuplicate, dup.Status)
	require.NotNil(t, dup.DuplicateOf)
	assert.Equal(t, "s3://b/bill.pdf", dup.DuplicateOf.Location)

	// the losing representative is tagged, the final bill is absent
	loser, ok := docMap[0]
	require.True(t, ok)
	assert.Equal(t, domain.DocStatusNotSelected, loser.Status)
	_, ok = docMap[2]
	assert.False(t, ok)

	require.NotNil(t, result.Outputs.BillItemList)
	assert.Equal(t, final.BillID, result.Outputs.BillItemList.BillID)
}

func TestProcessClaim_PartialWhenOneDocumentFails(t *testing.T) {
	loader := new(mocks.MockDocumentLoader)
	extractor := new(mocks.MockTextExtractor)
	o := newOrchestrator(t, loader, extractor)

	stubDocument(loader, extractor, "s3://b/bill.pdf", billText, nil)
	loader.On("Load", mock.Anything, "s3://b/broken.pdf").
		Return(nil, errors.New("object not found"))

	result, err := o.ProcessClaim(context.Background(), "CLM002",
		[]string{"s3://b/bill.pdf", "s3://b/broken.pdf"})
	require.NoError(t, err)

	assert.Equal(t, domain.ClaimStatusPartial, result.Status)
	require.NotNil(t, result.Outputs.FinalBill)
	assert.Equal(t, "s3://b/bill.pdf", result.Outputs.FinalBill.Ref.Location)

	// failed document is covered by the audit trail, not the doc map
	_, ok := result.Outputs.SupportingDocMap[1]
	assert.False(t, ok)

	var failedEvents int
	for _, ev := range result.Outputs.AuditLog {
		if ev.Subject == "s3://b/broken.pdf" && ev.Outcome == domain.OutcomeFailed {
			failedEvents++
		}
	}
	assert.Greater(t, failedEvents, 0)
}

func TestProcessClaim_AllDocumentsFail(t *testing.T) {
	loader := new(mocks.MockDocumentLoader)
	extractor := new(mocks.MockTextExtractor)
	o := newOrchestrator(t, loader, extractor)

	loader.On("Load", mock.Anything, mock.Anything).
		Return(nil, errors.New("storage unreachable"))

	result, err := o.ProcessClaim(context.Background(), "CLM003",
		[]string{"s3://b/a.pdf", "s3://b/b.pdf"})
	require.NoError(t, err)

	assert.Equal(t, domain.ClaimStatusAllDocsFail, result.Status)
	assert.Nil(t, result.Outputs.FinalBill)
	assert.Empty(t, result.Outputs.SupportingDocMap)
	assert.NotEmpty(t, result.Outputs.AuditLog)
}

func TestProcessClaim_NoBillAmongDocuments(t *testing.T) {
	loader := new(mocks.MockDocumentLoader)
	extractor := new(mocks.MockTextExtractor)
	o := newOrchestrator(t, loader, extractor)

	// parses but has no line items, so it can never be selected
	stubDocument(loader, extractor, "s3://b/receipt.pdf", "Amount Due: 50.00\n", nil)

	result, err := o.ProcessClaim(context.Background(), "CLM004", []string{"s3://b/receipt.pdf"})
	require.NoError(t, err)

	assert.Equal(t, domain.ClaimStatusNoBill, result.Status)
	assert.Equal(t, domain.ErrNoBillFound.Error(), result.Error)
	assert.Nil(t, result.Outputs.FinalBill)
	assert.Nil(t, result.Outputs.BillItemList)
}

func TestProcessClaim_EmptyInputRejectedWithoutAudit(t *testing.T) {
	loader := new(mocks.MockDocumentLoader)
	extractor := new(mocks.MockTextExtractor)
	o := newOrchestrator(t, loader, extractor)

	result, err := o.ProcessClaim(context.Background(), "CLM005", nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, domain.ClaimStatusInvalidInput, result.Status)
	assert.Nil(t, result.Outputs)

	loader.AssertNotCalled(t, "Load")
}

func TestProcessClaim_AuditLogOrderedAndCoversAllStages(t *testing.T) {
	loader := new(mocks.MockDocumentLoader)
	extractor := new(mocks.MockTextExtractor)
	o := newOrchestrator(t, loader, extractor)

	stubDocument(loader, extractor, "s3://b/bill.pdf", billText, nil)

	result, err := o.ProcessClaim(context.Background(), "CLM006", []string{"s3://b/bill.pdf"})
	require.NoError(t, err)

	events := result.Outputs.AuditLog
	require.NotEmpty(t, events)

	seen := map[domain.Stage]bool{}
	for i, ev := range events {
		assert.Equal(t, i, ev.Seq)
		assert.Equal(t, "CLM006", ev.ClaimID)
		seen[ev.Stage] = true
	}
	for _, stage := range domain.StageOrder {
		assert.True(t, seen[stage], "missing stage %s", stage)
	}

	// stage order in the ledger follows the pipeline order
	lastStagePos := map[domain.Stage]int{}
	for i, stage := range domain.StageOrder {
		lastStagePos[stage] = i
	}
	prev := 0
	for _, ev := range events {
		pos := lastStagePos[ev.Stage]
		assert.GreaterOrEqual(t, pos, prev)
		prev = pos
	}
}

func TestProcessClaim_DocMapAndFinalPartitionInputs(t *testing.T) {
	loader := new(mocks.MockDocumentLoader)
	extractor := new(mocks.MockTextExtractor)
	o := newOrchestrator(t, loader, extractor)

	stubDocument(loader, extractor, "s3://b/bill.pdf", billText, nil)
	stubDocument(loader, extractor, "s3://b/bill_copy.pdf", billText, nil)
	stubDocument(loader, extractor, "s3://b/note.pdf", noteText+"\nTotal: 10.00\n", nil)

	locations := []string{"s3://b/bill.pdf", "s3://b/bill_copy.pdf", "s3://b/note.pdf"}
	result, err := o.ProcessClaim(context.Background(), "CLM007", locations)
	require.NoError(t, err)
	require.NotNil(t, result.Outputs.FinalBill)

	// every input document is either the final bill or in the doc map, never both
	covered := map[int]bool{result.Outputs.FinalBill.Ref.Index: true}
	for idx := range result.Outputs.SupportingDocMap {
		assert.False(t, covered[idx])
		covered[idx] = true
	}
	for i := range locations {
		assert.True(t, covered[i], "document %d unaccounted for", i)
	}
}

func TestProcessClaim_SameLocationSubmittedTwice(t *testing.T) {
	loader := new(mocks.MockDocumentLoader)
	extractor := new(mocks.MockTextExtractor)
	o := newOrchestrator(t, loader, extractor)

	stubDocument(loader, extractor, "s3://b/bill.pdf", billText, nil)

	result, err := o.ProcessClaim(context.Background(), "CLM008",
		[]string{"s3://b/bill.pdf", "s3://b/bill.pdf"})
	require.NoError(t, err)
	require.NotNil(t, result.Outputs.FinalBill)

	// resubmission keeps its own map entry instead of collapsing into the
	// final bill's location
	assert.Equal(t, 0, result.Outputs.FinalBill.Ref.Index)
	require.Len(t, result.Outputs.SupportingDocMap, 1)
	entry, ok := result.Outputs.SupportingDocMap[1]
	require.True(t, ok)
	assert.Equal(t, "s3://b/bill.pdf", entry.Ref.Location)
	assert.Equal(t, domain.DocStatusDuplicate, entry.Status)
	require.NotNil(t, entry.DuplicateOf)
	assert.Equal(t, 0, entry.DuplicateOf.Index)
}

func TestProcessClaim_RerunYieldsIdenticalFinalBill(t *testing.T) {
	run := func(claimID string) *domain.ClaimResult {
		loader := new(mocks.MockDocumentLoader)
		extractor := new(mocks.MockTextExtractor)
		o := newOrchestrator(t, loader, extractor)

		stubDocument(loader, extractor, "s3://b/bill.pdf", billText, nil)
		stubDocument(loader, extractor, "s3://b/big_bill.pdf", otherBillText, nil)

		result, err := o.ProcessClaim(context.Background(), claimID,
			[]string{"s3://b/bill.pdf", "s3://b/big_bill.pdf"})
		require.NoError(t, err)
		require.NotNil(t, result.Outputs.FinalBill)
		return result
	}

	first := run("CLM009")
	second := run("CLM009")

	firstJSON, err := json.Marshal(first.Outputs.FinalBill)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second.Outputs.FinalBill)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))

	assert.Equal(t, first.Outputs.BillItemList, second.Outputs.BillItemList)
	assert.Equal(t, first.Outputs.SupportingDocMap, second.Outputs.SupportingDocMap)
}

func TestProcessClaim_DocumentTimeoutFailsOnlyThatDocument(t *testing.T) {
	loader := new(mocks.MockDocumentLoader)
	extractor := new(mocks.MockTextExtractor)

	hasher, err := dedup.NewHasher("sha256")
	require.NoError(t, err)
	o := pipeline.New(
		loader,
		extractor,
		billparse.NewExtractor(),
		classify.NewHeuristicClassifier(),
		dedup.NewDetector(hasher),
		selection.NewSelector(selection.Config{TotalToleranceMU: 100, TieBreakEnabled: true}),
		pipeline.Config{DocConcurrency: 2, DocTimeout: 50 * time.Millisecond},
	)

	stubDocument(loader, extractor, "s3://b/bill.pdf", billText, nil)

	slow := []byte("raw:s3://b/slow.pdf")
	loader.On("Load", mock.Anything, "s3://b/slow.pdf").Return(slow, nil)
	extractor.On("ExtractText", mock.Anything, slow, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	result, err := o.ProcessClaim(context.Background(), "CLM010",
		[]string{"s3://b/bill.pdf", "s3://b/slow.pdf"})
	require.NoError(t, err)

	// the stuck document times out on its own budget while its sibling
	// finishes normally
	assert.Equal(t, domain.ClaimStatusPartial, result.Status)
	require.NotNil(t, result.Outputs.FinalBill)
	assert.Equal(t, "s3://b/bill.pdf", result.Outputs.FinalBill.Ref.Location)

	var timedOut bool
	for _, ev := range result.Outputs.AuditLog {
		if ev.Subject == "s3://b/slow.pdf" && ev.Outcome == domain.OutcomeFailed {
			timedOut = true
		}
	}
	assert.True(t, timedOut)
}
