package pipeline

import (
	"context"
	"fmt"
	"log"
	"mime"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aryandalviplx/OCR-bill/internal/audit"
	"github.com/aryandalviplx/OCR-bill/internal/domain"
	"github.com/aryandalviplx/OCR-bill/internal/port"
	"github.com/aryandalviplx/OCR-bill/internal/selection"
)

// Config holds orchestrator settings.
type Config struct {
	// DocConcurrency bounds the number of documents extracted in parallel.
	DocConcurrency int
	// DocTimeout bounds the load + text-extraction call for one document.
	// Expiry fails that document, never the claim.
	DocTimeout time.Duration
}

// Orchestrator drives one claim through the staged pipeline: extraction,
// structuring, classification, duplicate detection, selection, assembly.
// Per-document failures are isolated and recorded; only invalid input aborts
// before any stage runs. A single Orchestrator is safe for concurrent use
// across claims; each run keeps its own state and audit ledger.
type Orchestrator struct {
	loader     port.DocumentLoader
	extractor  port.TextExtractor
	maker      port.BillExtractor
	classifier port.Classifier
	detector   port.DuplicateDetector
	selector   *selection.Selector
	cfg        Config
}

// New creates an Orchestrator.
func New(
	loader port.DocumentLoader,
	extractor port.TextExtractor,
	maker port.BillExtractor,
	classifier port.Classifier,
	detector port.DuplicateDetector,
	selector *selection.Selector,
	cfg Config,
) *Orchestrator {
	if cfg.DocConcurrency <= 0 {
		cfg.DocConcurrency = 4
	}
	if cfg.DocTimeout <= 0 {
		cfg.DocTimeout = 2 * time.Minute
	}
	return &Orchestrator{
		loader:     loader,
		extractor:  extractor,
		maker:      maker,
		classifier: classifier,
		detector:   detector,
		selector:   selector,
		cfg:        cfg,
	}
}

// claimState is the working state of one run. Each stage reads the previous
// stage's fields and fills in its own; no stage rewrites another's output.
type claimState struct {
	claimID    string
	refs       []domain.DocumentRef
	extracted  []domain.ExtractedDocument
	failed     []domain.ExtractedDocument
	candidates []*domain.BillCandidate
	bills      []*domain.BillCandidate
	supporting []*domain.BillCandidate
	groups     []*domain.DuplicateGroup
	fpFailures []domain.FingerprintFailure
	finalBill  *domain.FinalBill
}

// ProcessClaim runs the full pipeline for one claim. The returned result is
// always non-nil and carries an explicit status; the only error returned is
// domain.ErrInvalidInput for an empty document set, which is rejected before
// any stage runs and carries no audit log.
func (o *Orchestrator) ProcessClaim(ctx context.Context, claimID string, locations []string) (*domain.ClaimResult, error) {
	if len(locations) == 0 {
		return &domain.ClaimResult{
			ClaimID: claimID,
			Status:  domain.ClaimStatusInvalidInput,
			Error:   domain.ErrInvalidInput.Error(),
		}, domain.ErrInvalidInput
	}

	log.Printf("pipeline: claim %s: processing %d document(s)", claimID, len(locations))

	ledger := audit.NewLedger(claimID)
	state := &claimState{claimID: claimID}

	for _, stage := range domain.StageOrder {
		if stage == domain.StageAssembly {
			// assembly snapshots the ledger, so it records its own events
			break
		}
		ledger.Record(stage, audit.SubjectClaim, domain.OutcomeSuccess, "stage started", nil)

		switch stage {
		case domain.StageIngestion:
			o.ingest(state, locations, ledger)
		case domain.StageExtraction:
			o.extract(ctx, state, ledger)
		case domain.StageStructuring:
			o.structure(state, ledger)
		case domain.StageClassification:
			o.classify(state, ledger)
		case domain.StageDuplicateCheck:
			o.deduplicate(state, ledger)
		case domain.StageSelection:
			o.selectFinal(state, ledger)
		}

		ledger.Record(stage, audit.SubjectClaim, domain.OutcomeSuccess, "stage complete", nil)
	}

	result := o.assemble(state, ledger)
	log.Printf("pipeline: claim %s: finished with status %s (%d audit events)",
		claimID, result.Status, len(result.Outputs.AuditLog))
	return result, nil
}

// ingest assigns every location a stable ingestion-order index and infers
// file name and content type from the location path.
func (o *Orchestrator) ingest(state *claimState, locations []string, ledger *audit.Ledger) {
	state.refs = make([]domain.DocumentRef, 0, len(locations))
	for i, loc := range locations {
		name := path.Base(strings.TrimRight(loc, "/"))
		contentType := mime.TypeByExtension(path.Ext(name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		ref := domain.DocumentRef{
			Index:       i,
			Location:    loc,
			FileName:    name,
			ContentType: contentType,
		}
		state.refs = append(state.refs, ref)
		ledger.Record(domain.StageIngestion, loc, domain.OutcomeSuccess, "document registered",
			map[string]any{"index": i, "file_name": name, "content_type": contentType})
	}
}

// extract fans the documents out to the loader and the external extraction
// service with bounded concurrency and barriers until every document has a
// terminal outcome. A failure or timeout on one document is recorded and
// excluded; it never aborts sibling documents.
func (o *Orchestrator) extract(ctx context.Context, state *claimState, ledger *audit.Ledger) {
	state.extracted = make([]domain.ExtractedDocument, len(state.refs))

	sem := make(chan struct{}, o.cfg.DocConcurrency)
	var wg sync.WaitGroup

	for i := range state.refs {
		ref := state.refs[i]

		sem <- struct{}{} // acquire
		wg.Add(1)
		go func(i int, ref domain.DocumentRef) {
			defer wg.Done()
			defer func() { <-sem }() // release

			state.extracted[i] = o.extractOne(ctx, ref, ledger)
		}(i, ref)
	}
	wg.Wait()

	for i := range state.extracted {
		if state.extracted[i].Status == domain.ExtractionFailed {
			state.failed = append(state.failed, state.extracted[i])
		}
	}
}

func (o *Orchestrator) extractOne(ctx context.Context, ref domain.DocumentRef, ledger *audit.Ledger) domain.ExtractedDocument {
	doc := domain.ExtractedDocument{Ref: ref, Status: domain.ExtractionFailed}

	if err := ctx.Err(); err != nil {
		doc.Error = fmt.Sprintf("claim canceled before extraction: %v", err)
		ledger.Record(domain.StageExtraction, ref.Location, domain.OutcomeSkipped, doc.Error, nil)
		return doc
	}

	docCtx, cancel := context.WithTimeout(ctx, o.cfg.DocTimeout)
	defer cancel()

	content, err := o.loader.Load(docCtx, ref.Location)
	if err != nil {
		doc.Error = fmt.Sprintf("load failed: %v", err)
		ledger.Record(domain.StageExtraction, ref.Location, domain.OutcomeFailed, doc.Error, nil)
		return doc
	}

	extraction, err := o.extractor.ExtractText(docCtx, content, ref.ContentType)
	if err != nil {
		doc.Error = fmt.Sprintf("text extraction failed: %v", err)
		ledger.Record(domain.StageExtraction, ref.Location, domain.OutcomeFailed, doc.Error, nil)
		return doc
	}

	doc.Status = domain.ExtractionSucceeded
	doc.Text = extraction.Text
	doc.Fields = extraction.Fields
	doc.PageCount = extraction.PageCount
	ledger.Record(domain.StageExtraction, ref.Location, domain.OutcomeSuccess, "text extracted",
		map[string]any{"pages": extraction.PageCount, "chars": len(extraction.Text)})
	return doc
}

// structure runs the Maker over every successfully extracted document in
// ingestion order. A document with no billable content joins the failed set.
func (o *Orchestrator) structure(state *claimState, ledger *audit.Ledger) {
	for i := range state.extracted {
		doc := &state.extracted[i]
		if doc.Status != domain.ExtractionSucceeded {
			continue
		}

		candidate, err := o.maker.Extract(doc)
		if err != nil {
			doc.Status = domain.ExtractionFailed
			doc.Error = err.Error()
			state.failed = append(state.failed, *doc)
			ledger.Record(domain.StageStructuring, doc.Ref.Location, domain.OutcomeFailed, err.Error(), nil)
			continue
		}

		state.candidates = append(state.candidates, candidate)
		ledger.Record(domain.StageStructuring, doc.Ref.Location, domain.OutcomeSuccess, "bill candidate structured",
			map[string]any{"items": len(candidate.Items), "vendor": candidate.VendorName})
	}
}

// classify labels every candidate exactly once and splits bills from
// supporting documents.
func (o *Orchestrator) classify(state *claimState, ledger *audit.Ledger) {
	for _, c := range state.candidates {
		c.Label = o.classifier.Classify(c)
		ledger.Record(domain.StageClassification, c.Ref.Location, domain.OutcomeSuccess,
			"document classified", map[string]any{"label": string(c.Label)})

		if c.Label == domain.LabelBill {
			state.bills = append(state.bills, c)
		} else {
			state.supporting = append(state.supporting, c)
		}
	}
}

// deduplicate runs once over the whole BILL-labeled set. It requires every
// document to already have a terminal per-document outcome.
func (o *Orchestrator) deduplicate(state *claimState, ledger *audit.Ledger) {
	state.groups, state.fpFailures = o.detector.DetectDuplicates(state.bills)

	for _, f := range state.fpFailures {
		ledger.Record(domain.StageDuplicateCheck, f.Ref.Location, domain.OutcomeFailed,
			"fingerprint error: "+f.Reason, nil)
	}
	for _, g := range state.groups {
		if len(g.Duplicates) == 0 {
			continue
		}
		for _, d := range g.Duplicates {
			ledger.Record(domain.StageDuplicateCheck, d.Ref.Location, domain.OutcomeSuccess,
				"duplicate of "+g.Representative.Ref.Location,
				map[string]any{"fingerprint": string(g.Fingerprint), "representative": g.Representative.Ref.Location})
		}
	}
	ledger.Record(domain.StageDuplicateCheck, audit.SubjectClaim, domain.OutcomeSuccess,
		fmt.Sprintf("%d group(s), %d duplicate(s)", len(state.groups), duplicateCount(state.groups)),
		nil)
}

func duplicateCount(groups []*domain.DuplicateGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Duplicates)
	}
	return n
}

// selectFinal picks one representative bill for the claim; failure to find
// one is a claim-level outcome recorded here and reflected in the status.
func (o *Orchestrator) selectFinal(state *claimState, ledger *audit.Ledger) {
	bill, err := o.selector.SelectFinal(state.claimID, state.groups)
	if err != nil {
		ledger.Record(domain.StageSelection, audit.SubjectClaim, domain.OutcomeFailed, err.Error(), nil)
		return
	}
	state.finalBill = bill
	ledger.Record(domain.StageSelection, bill.Ref.Location, domain.OutcomeSuccess, bill.SelectedReason,
		map[string]any{"bill_id": bill.BillID, "items": len(bill.Items), "total": bill.Summary.Total})
}

func (o *Orchestrator) assemble(state *claimState, ledger *audit.Ledger) *domain.ClaimResult {
	ledger.Record(domain.StageAssembly, audit.SubjectClaim, domain.OutcomeSuccess, "stage started", nil)

	var finalRef *domain.DocumentRef
	if state.finalBill != nil {
		finalRef = &state.finalBill.Ref
	}

	mapInputs := selection.MapInputs{
		Supporting:          state.supporting,
		Groups:              state.groups,
		FingerprintFailures: state.fpFailures,
		FinalRef:            finalRef,
	}

	outputs := &domain.ClaimOutputs{
		SupportingDocMap: selection.BuildSupportingDocMap(mapInputs),
	}
	if state.finalBill != nil {
		outputs.FinalBill = state.finalBill
		outputs.BillItemList = selection.BuildItemList(state.finalBill)
	}

	result := &domain.ClaimResult{ClaimID: state.claimID, Status: o.status(state)}
	if result.Status == domain.ClaimStatusNoBill {
		result.Error = domain.ErrNoBillFound.Error()
	}

	ledger.Record(domain.StageAssembly, audit.SubjectClaim, domain.OutcomeSuccess,
		"stage complete", map[string]any{"status": string(result.Status)})

	outputs.AuditLog = ledger.Snapshot()
	result.Outputs = outputs
	return result
}

func (o *Orchestrator) status(state *claimState) domain.ClaimStatus {
	switch {
	case len(state.failed) == len(state.refs):
		return domain.ClaimStatusAllDocsFail
	case state.finalBill == nil:
		return domain.ClaimStatusNoBill
	case len(state.failed) > 0:
		return domain.ClaimStatusPartial
	default:
		return domain.ClaimStatusSuccess
	}
}
