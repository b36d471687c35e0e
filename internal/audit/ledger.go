package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

// SubjectClaim is the event subject used for claim-level events; per-document
// events use the document location instead.
const SubjectClaim = "claim"

// Ledger is an append-only, ordered record of pipeline events for one claim
// run. Append is the only mutating operation and is safe for concurrent use;
// events are never reordered, mutated, or deleted.
type Ledger struct {
	mu      sync.Mutex
	claimID string
	events  []domain.AuditEvent
}

// NewLedger creates an empty ledger for the given claim.
func NewLedger(claimID string) *Ledger {
	return &Ledger{claimID: claimID}
}

// Record appends one event. Seq and timestamp are assigned under the lock so
// the append order and the sequence numbers always agree.
func (l *Ledger) Record(stage domain.Stage, subject string, outcome domain.AuditOutcome, message string, detail map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, domain.AuditEvent{
		EventID:   uuid.New(),
		ClaimID:   l.claimID,
		Seq:       len(l.events),
		Stage:     stage,
		Subject:   subject,
		Outcome:   outcome,
		Message:   message,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
}

// Snapshot returns a copy of the events appended so far, in append order.
// It is safe to call while other goroutines are still recording; the result
// is a consistent prefix of the final ledger.
func (l *Ledger) Snapshot() []domain.AuditEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.AuditEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of events recorded so far.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
