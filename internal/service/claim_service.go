package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aryandalviplx/OCR-bill/internal/csvexport"
	"github.com/aryandalviplx/OCR-bill/internal/domain"
	"github.com/aryandalviplx/OCR-bill/internal/export"
	"github.com/aryandalviplx/OCR-bill/internal/pipeline"
	"github.com/aryandalviplx/OCR-bill/internal/port"
)

const bundleContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SubmitClaimInput is the DTO for submitting a claim for processing.
type SubmitClaimInput struct {
	ClaimID   string
	Locations []string
}

// ArchiveConfig controls output bundle archival to object storage.
type ArchiveConfig struct {
	Enabled bool
	Bucket  string
	// PresignExpiry is the lifetime, in seconds, of download URLs issued
	// for archived bundles.
	PresignExpiry int64
}

// ClaimService defines the claim processing contract.
type ClaimService interface {
	Submit(ctx context.Context, input *SubmitClaimInput) (*domain.ClaimRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (*domain.ClaimRun, error)
	ListRuns(ctx context.Context, offset, limit int) ([]domain.ClaimRun, int, error)
	ListAuditEvents(ctx context.Context, claimID string, offset, limit int) ([]domain.AuditEvent, int, error)
	ExportBundle(ctx context.Context, id uuid.UUID) (filename string, data []byte, err error)
	ExportItemsCSV(ctx context.Context, id uuid.UUID) (filename string, data []byte, err error)
	ArchivedBundleURL(ctx context.Context, id uuid.UUID) (string, error)
	ProcessRun(ctx context.Context, run *domain.ClaimRun)
}

type claimService struct {
	runRepo   port.ClaimRunRepository
	auditRepo port.AuditRepository
	pipeline  *pipeline.Orchestrator
	storage   port.ObjectStorage
	archive   ArchiveConfig
}

// NewClaimService creates a new ClaimService implementation. storage may be
// nil when bundle archival is disabled.
func NewClaimService(
	runRepo port.ClaimRunRepository,
	auditRepo port.AuditRepository,
	orchestrator *pipeline.Orchestrator,
	storage port.ObjectStorage,
	archive ArchiveConfig,
) ClaimService {
	return &claimService{
		runRepo:   runRepo,
		auditRepo: auditRepo,
		pipeline:  orchestrator,
		storage:   storage,
		archive:   archive,
	}
}

func (s *claimService) Submit(ctx context.Context, input *SubmitClaimInput) (*domain.ClaimRun, error) {
	claimID := strings.TrimSpace(input.ClaimID)
	if claimID == "" {
		return nil, fmt.Errorf("claim id is required: %w", domain.ErrInvalidInput)
	}
	if len(input.Locations) == 0 {
		return nil, fmt.Errorf("at least one document location is required: %w", domain.ErrInvalidInput)
	}
	for _, location := range input.Locations {
		if strings.TrimSpace(location) == "" {
			return nil, fmt.Errorf("empty document location: %w", domain.ErrInvalidInput)
		}
	}

	run := &domain.ClaimRun{
		ID:        uuid.New(),
		ClaimID:   claimID,
		State:     domain.RunStateQueued,
		Locations: input.Locations,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, err
	}

	log.Printf("claimService: submitted claim %s as run %s (%d documents)",
		claimID, run.ID, len(run.Locations))
	return run, nil
}

func (s *claimService) GetRun(ctx context.Context, id uuid.UUID) (*domain.ClaimRun, error) {
	return s.runRepo.GetByID(ctx, id)
}

func (s *claimService) ListRuns(ctx context.Context, offset, limit int) ([]domain.ClaimRun, int, error) {
	return s.runRepo.List(ctx, offset, limit)
}

func (s *claimService) ListAuditEvents(ctx context.Context, claimID string, offset, limit int) ([]domain.AuditEvent, int, error) {
	return s.auditRepo.ListByClaim(ctx, claimID, offset, limit)
}

// ExportBundle builds the .xlsx bundle for a completed run.
func (s *claimService) ExportBundle(ctx context.Context, id uuid.UUID) (string, []byte, error) {
	outputs, run, err := s.loadOutputs(ctx, id)
	if err != nil {
		return "", nil, err
	}

	data, err := export.WriteBundle(run.ClaimID, outputs)
	if err != nil {
		return "", nil, fmt.Errorf("claimService.ExportBundle: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.xlsx",
		csvexport.SanitizeFilename(run.ClaimID), time.Now().Format("2006-01-02"))
	return filename, data, nil
}

// ExportItemsCSV renders the final bill's line items as CSV.
func (s *claimService) ExportItemsCSV(ctx context.Context, id uuid.UUID) (string, []byte, error) {
	outputs, run, err := s.loadOutputs(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if outputs.BillItemList == nil {
		return "", nil, domain.ErrNoBillFound
	}

	var buf bytes.Buffer
	buf.Write(csvexport.BOM)
	w := csvexport.NewWriter(&buf)
	if err := w.WriteHeader(); err != nil {
		return "", nil, fmt.Errorf("claimService.ExportItemsCSV: %w", err)
	}
	if err := w.WriteItemList(outputs.BillItemList); err != nil {
		return "", nil, fmt.Errorf("claimService.ExportItemsCSV: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", nil, fmt.Errorf("claimService.ExportItemsCSV: %w", err)
	}

	return csvexport.BuildFilename(run.ClaimID), buf.Bytes(), nil
}

// ArchivedBundleURL returns a presigned download URL for the run's archived
// bundle. Archival must be enabled and the run completed; the bundle is
// uploaded as part of run completion, so a completed run implies the object
// exists (barring an upload failure already visible in the logs).
func (s *claimService) ArchivedBundleURL(ctx context.Context, id uuid.UUID) (string, error) {
	if !s.archive.Enabled || s.storage == nil {
		return "", fmt.Errorf("bundle archival is disabled: %w", domain.ErrNotFound)
	}

	run, err := s.runRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if run.State != domain.RunStateCompleted {
		return "", fmt.Errorf("run %s is %s: %w", run.ID, run.State, domain.ErrRunNotTerminal)
	}

	key := archiveKey(run)
	url, err := s.storage.GetPresignedURL(ctx, s.archive.Bucket, key, s.archive.PresignExpiry)
	if err != nil {
		return "", fmt.Errorf("claimService.ArchivedBundleURL: %w", err)
	}
	return url, nil
}

func (s *claimService) loadOutputs(ctx context.Context, id uuid.UUID) (*domain.ClaimOutputs, *domain.ClaimRun, error) {
	run, err := s.runRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if run.State != domain.RunStateCompleted {
		return nil, nil, fmt.Errorf("run %s is %s: %w", run.ID, run.State, domain.ErrRunNotTerminal)
	}

	var outputs domain.ClaimOutputs
	if err := json.Unmarshal(run.Outputs, &outputs); err != nil {
		return nil, nil, fmt.Errorf("decoding run %s outputs: %w", run.ID, err)
	}
	return &outputs, run, nil
}

// ProcessRun drives one claimed run through the pipeline and records the
// outcome. Persistence failures are logged; the pipeline result itself is
// never lost to a storage error without a trace.
func (s *claimService) ProcessRun(ctx context.Context, run *domain.ClaimRun) {
	result, err := s.pipeline.ProcessClaim(ctx, run.ClaimID, run.Locations)
	if err != nil {
		if markErr := s.runRepo.MarkFailed(ctx, run.ID, result.Status, result.Error); markErr != nil {
			log.Printf("claimService: run %s: mark failed: %v", run.ID, markErr)
		}
		return
	}

	if result.Outputs != nil && len(result.Outputs.AuditLog) > 0 {
		if err := s.auditRepo.SaveEvents(ctx, run.ID, result.Outputs.AuditLog); err != nil {
			log.Printf("claimService: run %s: save audit events: %v", run.ID, err)
		}
	}

	outputs, err := json.Marshal(result.Outputs)
	if err != nil {
		if markErr := s.runRepo.MarkFailed(ctx, run.ID, result.Status, fmt.Sprintf("encoding outputs: %v", err)); markErr != nil {
			log.Printf("claimService: run %s: mark failed: %v", run.ID, markErr)
		}
		return
	}

	if err := s.runRepo.MarkCompleted(ctx, run.ID, result.Status, outputs); err != nil {
		log.Printf("claimService: run %s: mark completed: %v", run.ID, err)
		return
	}

	log.Printf("claimService: run %s: claim %s completed with status %s",
		run.ID, run.ClaimID, result.Status)

	if s.archive.Enabled && s.storage != nil {
		s.archiveBundle(ctx, run, result.Outputs)
	}
}

// archiveBundle uploads the .xlsx bundle to object storage. Failures are
// logged only; the run is already recorded as completed.
func (s *claimService) archiveBundle(ctx context.Context, run *domain.ClaimRun, outputs *domain.ClaimOutputs) {
	data, err := export.WriteBundle(run.ClaimID, outputs)
	if err != nil {
		log.Printf("claimService: run %s: build archive bundle: %v", run.ID, err)
		return
	}

	key := archiveKey(run)
	location, err := s.storage.Upload(ctx, s.archive.Bucket, key, bytes.NewReader(data), bundleContentType)
	if err != nil {
		log.Printf("claimService: run %s: archive bundle upload: %v", run.ID, err)
		return
	}
	log.Printf("claimService: run %s: archived bundle to %s", run.ID, location)
}

func archiveKey(run *domain.ClaimRun) string {
	return fmt.Sprintf("claims/%s/%s.xlsx", run.ClaimID, run.ID)
}
