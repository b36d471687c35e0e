package domain

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// DocumentRef identifies one source document of a claim. Index is the
// ingestion order, assigned once at load time and stable for the whole run.
type DocumentRef struct {
	Index       int    `json:"index"`
	Location    string `json:"location"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// ExtractedDocument is the outcome of the external text-extraction step for
// one document.
type ExtractedDocument struct {
	Ref       DocumentRef       `json:"ref"`
	Status    ExtractionStatus  `json:"status"`
	Text      string            `json:"text,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	PageCount int               `json:"page_count,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// LineItem is a single billed line. Monetary amounts are carried in minor
// currency units (paise, cents). Quantity defaults to 1 when the source does
// not state one.
type LineItem struct {
	Description   string  `json:"description"`
	Quantity      float64 `json:"quantity"`
	UnitPrice     *int64  `json:"unit_price,omitempty"`
	LineTotal     *int64  `json:"line_total,omitempty"`
	TotalMismatch bool    `json:"total_mismatch,omitempty"`
}

// Amount returns the best available total for the line: the stated line
// total, or quantity x unit price when the total is absent.
func (li *LineItem) Amount() int64 {
	if li.LineTotal != nil {
		return *li.LineTotal
	}
	if li.UnitPrice != nil {
		return int64(math.Round(li.Quantity * float64(*li.UnitPrice)))
	}
	return 0
}

// BillCandidate is a structured bill produced from one extracted document.
// It is immutable after structuring except for the classification label,
// which is assigned exactly once.
type BillCandidate struct {
	Ref           DocumentRef         `json:"ref"`
	VendorName    string              `json:"vendor_name,omitempty"`
	InvoiceNumber string              `json:"invoice_number,omitempty"`
	BillDate      *time.Time          `json:"bill_date,omitempty"`
	Total         *int64              `json:"total_amount,omitempty"`
	Currency      string              `json:"currency,omitempty"`
	Items         []LineItem          `json:"items"`
	Label         ClassificationLabel `json:"label,omitempty"`
}

// ComputedTotal sums the line amounts of the candidate.
func (b *BillCandidate) ComputedTotal() int64 {
	var sum int64
	for i := range b.Items {
		sum += b.Items[i].Amount()
	}
	return sum
}

// Fingerprint is the hex digest of a candidate's canonical form. Candidates
// with identical fingerprints are duplicates by definition.
type Fingerprint string

// DuplicateGroup is the set of bill candidates sharing one fingerprint.
// Representative is always the earliest-ingested member.
type DuplicateGroup struct {
	Fingerprint    Fingerprint      `json:"fingerprint"`
	Representative *BillCandidate   `json:"representative"`
	Duplicates     []*BillCandidate `json:"duplicates,omitempty"`
}

// Size returns the total member count of the group.
func (g *DuplicateGroup) Size() int {
	return 1 + len(g.Duplicates)
}

// FingerprintFailure records a candidate whose content could not be
// canonicalized. Such candidates are neither duplicates nor unique; they are
// excluded from dedup and selection but kept in the audit trail.
type FingerprintFailure struct {
	Ref    DocumentRef `json:"ref"`
	Reason string      `json:"reason"`
}

// BillSummary carries computed totals for the selected bill. TotalMismatch is
// set when the summed line totals disagree with the claimed header total
// beyond the configured tolerance.
type BillSummary struct {
	Subtotal      int64  `json:"subtotal"`
	Total         int64  `json:"total_amount"`
	ClaimedTotal  *int64 `json:"claimed_total,omitempty"`
	Currency      string `json:"currency,omitempty"`
	ItemCount     int    `json:"item_count"`
	TotalMismatch bool   `json:"total_mismatch"`
}

// DuplicateFlags records duplicate information carried on the final bill.
type DuplicateFlags struct {
	HasDuplicates  bool          `json:"has_duplicates"`
	DuplicateCount int           `json:"duplicate_count"`
	Duplicates     []DocumentRef `json:"duplicates,omitempty"`
}

// FinalBill is the claim's single authoritative bill.
type FinalBill struct {
	BillID         string          `json:"bill_id"`
	ClaimID        string          `json:"claim_id"`
	Ref            DocumentRef     `json:"document_ref"`
	VendorName     string          `json:"vendor_name,omitempty"`
	InvoiceNumber  string          `json:"invoice_number,omitempty"`
	BillDate       *time.Time      `json:"bill_date,omitempty"`
	Summary        BillSummary     `json:"summary"`
	Items          []LineItem      `json:"items"`
	SelectedReason string          `json:"selected_reason"`
	DuplicateFlags *DuplicateFlags `json:"duplicate_flags,omitempty"`
}

// BillItemList is the final bill's line items in flat list form.
type BillItemList struct {
	ClaimID string      `json:"claim_id"`
	BillID  string      `json:"bill_id"`
	Items   []LineItem  `json:"items"`
	Summary BillSummary `json:"summary"`
}

// SupportingDocEntry describes the terminal disposition of one document that
// did not become the final bill.
type SupportingDocEntry struct {
	Ref         DocumentRef         `json:"ref"`
	Label       ClassificationLabel `json:"label,omitempty"`
	Status      DocTerminalStatus   `json:"status"`
	DuplicateOf *DocumentRef        `json:"duplicate_of,omitempty"`
	Detail      string              `json:"detail,omitempty"`
}

// SupportingDocMap maps document ingestion indexes to their terminal
// disposition. Keying by index keeps two submissions of the same location
// as two separate entries.
type SupportingDocMap map[int]SupportingDocEntry

// Ordered returns the map's entries in ingestion order.
func (m SupportingDocMap) Ordered() []SupportingDocEntry {
	entries := make([]SupportingDocEntry, 0, len(m))
	for _, e := range m {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Ref.Index < entries[j].Ref.Index
	})
	return entries
}

// AuditEvent is one immutable, ordered record of a pipeline decision or
// outcome. Seq is the append position within the run's ledger.
type AuditEvent struct {
	EventID   uuid.UUID      `json:"event_id"`
	ClaimID   string         `json:"claim_id"`
	Seq       int            `json:"seq"`
	Stage     Stage          `json:"stage"`
	Subject   string         `json:"subject"`
	Outcome   AuditOutcome   `json:"outcome"`
	Message   string         `json:"message"`
	Detail    map[string]any `json:"detail,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ClaimOutputs is the JSON-serializable output bundle of one processed claim.
type ClaimOutputs struct {
	FinalBill        *FinalBill       `json:"final_bill,omitempty"`
	BillItemList     *BillItemList    `json:"bill_item_list,omitempty"`
	SupportingDocMap SupportingDocMap `json:"supporting_doc_map,omitempty"`
	AuditLog         []AuditEvent     `json:"audit_logs"`
}

// ClaimResult is what every caller of the pipeline receives.
type ClaimResult struct {
	ClaimID string        `json:"claim_id"`
	Status  ClaimStatus   `json:"status"`
	Outputs *ClaimOutputs `json:"outputs,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// ClaimRun is the persisted record of one claim processing request.
type ClaimRun struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	ClaimID   string          `db:"claim_id" json:"claim_id"`
	State     RunState        `db:"state" json:"state"`
	Locations []string        `db:"-" json:"locations"`
	Status    ClaimStatus     `db:"status" json:"status,omitempty"`
	Outputs   json.RawMessage `db:"outputs" json:"outputs,omitempty"`
	Error     string          `db:"error_message" json:"error,omitempty"`
	Attempts  int             `db:"attempts" json:"attempts"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
