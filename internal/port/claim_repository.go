package port

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

// ClaimRunRepository defines the contract for claim run persistence and the
// processing queue.
type ClaimRunRepository interface {
	Create(ctx context.Context, run *domain.ClaimRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ClaimRun, error)
	List(ctx context.Context, offset, limit int) ([]domain.ClaimRun, int, error)
	// ClaimQueued atomically moves up to limit queued runs to the processing
	// state and returns them.
	ClaimQueued(ctx context.Context, limit int) ([]domain.ClaimRun, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, status domain.ClaimStatus, outputs json.RawMessage) error
	MarkFailed(ctx context.Context, id uuid.UUID, status domain.ClaimStatus, errMsg string) error
}

// AuditRepository defines the contract for audit event persistence.
type AuditRepository interface {
	SaveEvents(ctx context.Context, runID uuid.UUID, events []domain.AuditEvent) error
	ListByClaim(ctx context.Context, claimID string, offset, limit int) ([]domain.AuditEvent, int, error)
}
