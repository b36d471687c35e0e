package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
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
	"github.com/aryandalviplx/OCR-bill/internal/service"
	"github.com/aryandalviplx/OCR-bill/mocks"
)

func setupClaimService(t *testing.T, archive service.ArchiveConfig) (
	service.ClaimService,
	*mocks.MockClaimRunRepo,
	*mocks.MockAuditRepo,
	*mocks.MockDocumentLoader,
	*mocks.MockTextExtractor,
	*mocks.MockObjectStorage,
) {
	t.Helper()

	runRepo := new(mocks.MockClaimRunRepo)
	auditRepo := new(mocks.MockAuditRepo)
	loader := new(mocks.MockDocumentLoader)
	extractor := new(mocks.MockTextExtractor)
	storage := new(mocks.MockObjectStorage)

	hasher, err := dedup.NewHasher("sha256")
	require.NoError(t, err)
	orchestrator := pipeline.New(
		loader,
		extractor,
		billparse.NewExtractor(),
		classify.NewHeuristicClassifier(),
		dedup.NewDetector(hasher),
		selection.NewSelector(selection.Config{TieBreakEnabled: true}),
		pipeline.Config{DocConcurrency: 1, DocTimeout: time.Second},
	)

	svc := service.NewClaimService(runRepo, auditRepo, orchestrator, storage, archive)
	return svc, runRepo, auditRepo, loader, extractor, storage
}

// --- Submit ---

func TestClaimService_Submit_Success(t *testing.T) {
	svc, runRepo, _, _, _, _ := setupClaimService(t, service.ArchiveConfig{})

	runRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ClaimRun")).Return(nil)

	run, err := svc.Submit(context.Background(), &service.SubmitClaimInput{
		ClaimID:   "CLM001",
		Locations: []string{"s3://b/bill.pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, "CLM001", run.ClaimID)
	assert.Equal(t, domain.RunStateQueued, run.State)
	assert.NotEqual(t, uuid.Nil, run.ID)
	runRepo.AssertExpectations(t)
}

func TestClaimService_Submit_Validation(t *testing.T) {
	svc, _, _, _, _, _ := setupClaimService(t, service.ArchiveConfig{})

	tests := []struct {
		name  string
		input *service.SubmitClaimInput
	}{
		{"missing claim id", &service.SubmitClaimInput{Locations: []string{"s3://b/a.pdf"}}},
		{"no locations", &service.SubmitClaimInput{ClaimID: "CLM001"}},
		{"blank location", &service.SubmitClaimInput{ClaimID: "CLM001", Locations: []string{"  "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.input)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestClaimService_Submit_RepoError(t *testing.T) {
	svc, runRepo, _, _, _, _ := setupClaimService(t, service.ArchiveConfig{})

	runRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.Submit(context.Background(), &service.SubmitClaimInput{
		ClaimID:   "CLM001",
		Locations: []string{"s3://b/bill.pdf"},
	})
	assert.Error(t, err)
}

// --- ProcessRun ---

func TestClaimService_ProcessRun_CompletesAndPersistsAudit(t *testing.T) {
	svc, runRepo, auditRepo, loader, extractor, _ := setupClaimService(t, service.ArchiveConfig{})

	run := &domain.ClaimRun{
		ID:        uuid.New(),
		ClaimID:   "CLM001",
		State:     domain.RunStateProcessing,
		Locations: []string{"s3://b/bill.pdf"},
	}

	content := []byte("pdf")
	loader.On("Load", mock.Anything, "s3://b/bill.pdf").Return(content, nil)
	extractor.On("ExtractText", mock.Anything, content, mock.Anything).Return(&port.TextExtraction{
		Text:      "Consultation Fee  1  500.00  500.00\nTotal: 500.00\n",
		PageCount: 1,
	}, nil)

	auditRepo.On("SaveEvents", mock.Anything, run.ID, mock.Anything).Return(nil)
	runRepo.On("MarkCompleted", mock.Anything, run.ID, domain.ClaimStatusSuccess, mock.Anything).
		Run(func(args mock.Arguments) {
			var outputs domain.ClaimOutputs
			require.NoError(t, json.Unmarshal(args.Get(3).(json.RawMessage), &outputs))
			require.NotNil(t, outputs.FinalBill)
			assert.NotEmpty(t, outputs.AuditLog)
		}).
		Return(nil)

	svc.ProcessRun(context.Background(), run)

	runRepo.AssertExpectations(t)
	auditRepo.AssertExpectations(t)
}

func TestClaimService_ProcessRun_InvalidInputMarksFailed(t *testing.T) {
	svc, runRepo, _, _, _, _ := setupClaimService(t, service.ArchiveConfig{})

	run := &domain.ClaimRun{ID: uuid.New(), ClaimID: "CLM002"}

	runRepo.On("MarkFailed", mock.Anything, run.ID, domain.ClaimStatusInvalidInput, mock.Anything).Return(nil)

	svc.ProcessRun(context.Background(), run)

	runRepo.AssertExpectations(t)
	runRepo.AssertNotCalled(t, "MarkCompleted")
}

func TestClaimService_ProcessRun_ArchivesBundleWhenEnabled(t *testing.T) {
	svc, runRepo, auditRepo, loader, extractor, storage := setupClaimService(t,
		service.ArchiveConfig{Enabled: true, Bucket: "claims-archive"})

	run := &domain.ClaimRun{
		ID:        uuid.New(),
		ClaimID:   "CLM003",
		Locations: []string{"s3://b/bill.pdf"},
	}

	content := []byte("pdf")
	loader.On("Load", mock.Anything, mock.Anything).Return(content, nil)
	extractor.On("ExtractText", mock.Anything, content, mock.Anything).Return(&port.TextExtraction{
		Text: "Consultation Fee  1  500.00  500.00\nTotal: 500.00\n",
	}, nil)
	auditRepo.On("SaveEvents", mock.Anything, run.ID, mock.Anything).Return(nil)
	runRepo.On("MarkCompleted", mock.Anything, run.ID, domain.ClaimStatusSuccess, mock.Anything).Return(nil)
	storage.On("Upload", mock.Anything, "claims-archive", mock.Anything, mock.Anything, mock.Anything).
		Return("s3://claims-archive/key", nil)

	svc.ProcessRun(context.Background(), run)

	storage.AssertExpectations(t)
}

// --- exports ---

func completedRun(t *testing.T, claimID string) *domain.ClaimRun {
	t.Helper()

	bill := &domain.FinalBill{
		BillID:  "BILL_" + claimID + "_abcd1234",
		ClaimID: claimID,
		Ref:     domain.DocumentRef{Index: 0, Location: "s3://b/bill.pdf"},
		Items:   []domain.LineItem{{Description: "Fee", Quantity: 1}},
	}
	outputs := domain.ClaimOutputs{
		FinalBill:    bill,
		BillItemList: &domain.BillItemList{ClaimID: claimID, BillID: bill.BillID, Items: bill.Items},
	}
	raw, err := json.Marshal(outputs)
	require.NoError(t, err)

	return &domain.ClaimRun{
		ID:      uuid.New(),
		ClaimID: claimID,
		State:   domain.RunStateCompleted,
		Status:  domain.ClaimStatusSuccess,
		Outputs: raw,
	}
}

func TestClaimService_ExportBundle(t *testing.T) {
	svc, runRepo, _, _, _, _ := setupClaimService(t, service.ArchiveConfig{})

	run := completedRun(t, "CLM004")
	runRepo.On("GetByID", mock.Anything, run.ID).Return(run, nil)

	filename, data, err := svc.ExportBundle(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Contains(t, filename, "CLM004")
	assert.Contains(t, filename, ".xlsx")
	assert.NotEmpty(t, data)
}

func TestClaimService_ExportBundle_RunNotTerminal(t *testing.T) {
	svc, runRepo, _, _, _, _ := setupClaimService(t, service.ArchiveConfig{})

	run := &domain.ClaimRun{ID: uuid.New(), State: domain.RunStateProcessing}
	runRepo.On("GetByID", mock.Anything, run.ID).Return(run, nil)

	_, _, err := svc.ExportBundle(context.Background(), run.ID)
	assert.ErrorIs(t, err, domain.ErrRunNotTerminal)
}

func TestClaimService_ExportItemsCSV(t *testing.T) {
	svc, runRepo, _, _, _, _ := setupClaimService(t, service.ArchiveConfig{})

	run := completedRun(t, "CLM005")
	runRepo.On("GetByID", mock.Anything, run.ID).Return(run, nil)

	filename, data, err := svc.ExportItemsCSV(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Contains(t, filename, "CLM005")
	assert.Contains(t, string(data), "Fee")
}

func TestClaimService_ArchivedBundleURL(t *testing.T) {
	svc, runRepo, _, _, _, storage := setupClaimService(t,
		service.ArchiveConfig{Enabled: true, Bucket: "claims-archive", PresignExpiry: 3600})

	run := completedRun(t, "CLM007")
	runRepo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	storage.On("GetPresignedURL", mock.Anything, "claims-archive",
		"claims/CLM007/"+run.ID.String()+".xlsx", int64(3600)).
		Return("https://claims-archive.s3.amazonaws.com/signed", nil)

	url, err := svc.ArchivedBundleURL(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://claims-archive.s3.amazonaws.com/signed", url)
	storage.AssertExpectations(t)
}

func TestClaimService_ArchivedBundleURL_ArchivalDisabled(t *testing.T) {
	svc, _, _, _, _, _ := setupClaimService(t, service.ArchiveConfig{})

	_, err := svc.ArchivedBundleURL(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClaimService_ExportItemsCSV_NoBill(t *testing.T) {
	svc, runRepo, _, _, _, _ := setupClaimService(t, service.ArchiveConfig{})

	outputs, err := json.Marshal(domain.ClaimOutputs{})
	require.NoError(t, err)
	run := &domain.ClaimRun{
		ID:      uuid.New(),
		ClaimID: "CLM006",
		State:   domain.RunStateCompleted,
		Status:  domain.ClaimStatusNoBill,
		Outputs: outputs,
	}
	runRepo.On("GetByID", mock.Anything, run.ID).Return(run, nil)

	_, _, err = svc.ExportItemsCSV(context.Background(), run.ID)
	assert.ErrorIs(t, err, domain.ErrNoBillFound)
}
