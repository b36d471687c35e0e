package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
	"github.com/aryandalviplx/OCR-bill/internal/port"
)

type auditRepo struct {
	db *sqlx.DB
}

// NewAuditRepo creates a new PostgreSQL-backed AuditRepository.
func NewAuditRepo(db *sqlx.DB) port.AuditRepository {
	return &auditRepo{db: db}
}

type auditEventRow struct {
	EventID   uuid.UUID `db:"event_id"`
	RunID     uuid.UUID `db:"run_id"`
	ClaimID   string    `db:"claim_id"`
	Seq       int       `db:"seq"`
	Stage     string    `db:"stage"`
	Subject   string    `db:"subject"`
	Outcome   string    `db:"outcome"`
	Message   string    `db:"message"`
	Detail    []byte    `db:"detail"`
	Timestamp time.Time `db:"created_at"`
}

func (r *auditEventRow) toDomain() (domain.AuditEvent, error) {
	event := domain.AuditEvent{
		EventID:   r.EventID,
		ClaimID:   r.ClaimID,
		Seq:       r.Seq,
		Stage:     domain.Stage(r.Stage),
		Subject:   r.Subject,
		Outcome:   domain.AuditOutcome(r.Outcome),
		Message:   r.Message,
		Timestamp: r.Timestamp,
	}
	if len(r.Detail) > 0 {
		if err := json.Unmarshal(r.Detail, &event.Detail); err != nil {
			return domain.AuditEvent{}, fmt.Errorf("decoding audit event detail: %w", err)
		}
	}
	return event, nil
}

// SaveEvents persists a ledger snapshot in a single transaction so a claim's
// trail is either fully recorded or not at all.
func (r *auditRepo) SaveEvents(ctx context.Context, runID uuid.UUID, events []domain.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("auditRepo.SaveEvents begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO claim_audit_events
		 (event_id, run_id, claim_id, seq, stage, subject, outcome, message, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		return fmt.Errorf("auditRepo.SaveEvents prepare: %w", err)
	}
	defer stmt.Close()

	for i := range events {
		ev := &events[i]
		var detail []byte
		if ev.Detail != nil {
			detail, err = json.Marshal(ev.Detail)
			if err != nil {
				return fmt.Errorf("auditRepo.SaveEvents encode detail: %w", err)
			}
		}
		_, err = stmt.ExecContext(ctx,
			ev.EventID, runID, ev.ClaimID, ev.Seq, ev.Stage, ev.Subject,
			ev.Outcome, ev.Message, detail, ev.Timestamp)
		if err != nil {
			return fmt.Errorf("auditRepo.SaveEvents insert seq %d: %w", ev.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("auditRepo.SaveEvents commit: %w", err)
	}
	return nil
}

func (r *auditRepo) ListByClaim(ctx context.Context, claimID string, offset, limit int) ([]domain.AuditEvent, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM claim_audit_events WHERE claim_id = $1`, claimID)
	if err != nil {
		return nil, 0, fmt.Errorf("auditRepo.ListByClaim count: %w", err)
	}

	var rows []auditEventRow
	err = r.db.SelectContext(ctx, &rows,
		`SELECT * FROM claim_audit_events
		 WHERE claim_id = $1
		 ORDER BY run_id, seq
		 LIMIT $2 OFFSET $3`,
		claimID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("auditRepo.ListByClaim: %w", err)
	}

	events := make([]domain.AuditEvent, 0, len(rows))
	for i := range rows {
		event, err := rows[i].toDomain()
		if err != nil {
			return nil, 0, err
		}
		events = append(events, event)
	}
	return events, total, nil
}
