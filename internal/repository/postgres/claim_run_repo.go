package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
	"github.com/aryandalviplx/OCR-bill/internal/port"
)

type claimRunRepo struct {
	db *sqlx.DB
}

// NewClaimRunRepo creates a new PostgreSQL-backed ClaimRunRepository.
func NewClaimRunRepo(db *sqlx.DB) port.ClaimRunRepository {
	return &claimRunRepo{db: db}
}

// claimRunRow mirrors the claim_runs table; locations is stored as JSONB.
type claimRunRow struct {
	ID        uuid.UUID       `db:"id"`
	ClaimID   string          `db:"claim_id"`
	State     string          `db:"state"`
	Locations []byte          `db:"locations"`
	Status    sql.NullString  `db:"status"`
	Outputs   json.RawMessage `db:"outputs"`
	Error     sql.NullString  `db:"error_message"`
	Attempts  int             `db:"attempts"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r *claimRunRow) toDomain() (*domain.ClaimRun, error) {
	run := &domain.ClaimRun{
		ID:        r.ID,
		ClaimID:   r.ClaimID,
		State:     domain.RunState(r.State),
		Status:    domain.ClaimStatus(r.Status.String),
		Outputs:   r.Outputs,
		Error:     r.Error.String,
		Attempts:  r.Attempts,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if len(r.Locations) > 0 {
		if err := json.Unmarshal(r.Locations, &run.Locations); err != nil {
			return nil, fmt.Errorf("decoding claim run locations: %w", err)
		}
	}
	return run, nil
}

func (r *claimRunRepo) Create(ctx context.Context, run *domain.ClaimRun) error {
	locations, err := json.Marshal(run.Locations)
	if err != nil {
		return fmt.Errorf("claimRunRepo.Create encode locations: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO claim_runs (id, claim_id, state, locations, attempts)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.ClaimID, run.State, locations, run.Attempts)
	if err != nil {
		return fmt.Errorf("claimRunRepo.Create: %w", err)
	}
	return nil
}

func (r *claimRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClaimRun, error) {
	var row claimRunRow
	err := r.db.GetContext(ctx, &row,
		`SELECT * FROM claim_runs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("claimRunRepo.GetByID: %w", err)
	}
	return row.toDomain()
}

func (r *claimRunRepo) List(ctx context.Context, offset, limit int) ([]domain.ClaimRun, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM claim_runs`); err != nil {
		return nil, 0, fmt.Errorf("claimRunRepo.List count: %w", err)
	}

	var rows []claimRunRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM claim_runs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("claimRunRepo.List: %w", err)
	}

	runs := make([]domain.ClaimRun, 0, len(rows))
	for i := range rows {
		run, err := rows[i].toDomain()
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, *run)
	}
	return runs, total, nil
}

// ClaimQueued atomically claims up to limit queued runs for processing.
// SKIP LOCKED keeps concurrent workers from claiming the same run.
func (r *claimRunRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.ClaimRun, error) {
	var rows []claimRunRow
	err := r.db.SelectContext(ctx, &rows,
		`UPDATE claim_runs
		 SET state = 'processing', attempts = attempts + 1, updated_at = now()
		 WHERE id IN (
		 	SELECT id FROM claim_runs
		 	WHERE state = 'queued'
		 	ORDER BY created_at
		 	LIMIT $1
		 	FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("claimRunRepo.ClaimQueued: %w", err)
	}

	runs := make([]domain.ClaimRun, 0, len(rows))
	for i := range rows {
		run, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, nil
}

func (r *claimRunRepo) MarkCompleted(ctx context.Context, id uuid.UUID, status domain.ClaimStatus, outputs json.RawMessage) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE claim_runs
		 SET state = 'completed', status = $2, outputs = $3, updated_at = now()
		 WHERE id = $1`,
		id, status, outputs)
	if err != nil {
		return fmt.Errorf("claimRunRepo.MarkCompleted: %w", err)
	}
	return nil
}

func (r *claimRunRepo) MarkFailed(ctx context.Context, id uuid.UUID, status domain.ClaimStatus, errMsg string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE claim_runs
		 SET state = 'failed', status = $2, error_message = $3, updated_at = now()
		 WHERE id = $1`,
		id, status, errMsg)
	if err != nil {
		return fmt.Errorf("claimRunRepo.MarkFailed: %w", err)
	}
	return nil
}
