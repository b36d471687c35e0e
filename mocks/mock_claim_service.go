package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
	"github.com/aryandalviplx/OCR-bill/internal/service"
)

// MockClaimService is a mock implementation of service.ClaimService.
type MockClaimService struct {
	mock.Mock
}

func (m *MockClaimService) Submit(ctx context.Context, input *service.SubmitClaimInput) (*domain.ClaimRun, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClaimRun), args.Error(1)
}

func (m *MockClaimService) GetRun(ctx context.Context, id uuid.UUID) (*domain.ClaimRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClaimRun), args.Error(1)
}

func (m *MockClaimService) ListRuns(ctx context.Context, offset, limit int) ([]domain.ClaimRun, int, error) {
	args := m.Called(ctx, offset, limit)
	var runs []domain.ClaimRun
	if args.Get(0) != nil {
		runs = args.Get(0).([]domain.ClaimRun)
	}
	return runs, args.Int(1), args.Error(2)
}

func (m *MockClaimService) ListAuditEvents(ctx context.Context, claimID string, offset, limit int) ([]domain.AuditEvent, int, error) {
	args := m.Called(ctx, claimID, offset, limit)
	var events []domain.AuditEvent
	if args.Get(0) != nil {
		events = args.Get(0).([]domain.AuditEvent)
	}
	return events, args.Int(1), args.Error(2)
}

func (m *MockClaimService) ExportBundle(ctx context.Context, id uuid.UUID) (string, []byte, error) {
	args := m.Called(ctx, id)
	var data []byte
	if args.Get(1) != nil {
		data = args.Get(1).([]byte)
	}
	return args.String(0), data, args.Error(2)
}

func (m *MockClaimService) ExportItemsCSV(ctx context.Context, id uuid.UUID) (string, []byte, error) {
	args := m.Called(ctx, id)
	var data []byte
	if args.Get(1) != nil {
		data = args.Get(1).([]byte)
	}
	return args.String(0), data, args.Error(2)
}

func (m *MockClaimService) ArchivedBundleURL(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockClaimService) ProcessRun(ctx context.Context, run *domain.ClaimRun) {
	m.Called(ctx, run)
}
