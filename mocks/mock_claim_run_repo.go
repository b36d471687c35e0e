package mocks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

// MockClaimRunRepo is a mock implementation of port.ClaimRunRepository.
type MockClaimRunRepo struct {
	mock.Mock
}

func (m *MockClaimRunRepo) Create(ctx context.Context, run *domain.ClaimRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockClaimRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClaimRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClaimRun), args.Error(1)
}

func (m *MockClaimRunRepo) List(ctx context.Context, offset, limit int) ([]domain.ClaimRun, int, error) {
	args := m.Called(ctx, offset, limit)
	var runs []domain.ClaimRun
	if args.Get(0) != nil {
		runs = args.Get(0).([]domain.ClaimRun)
	}
	return runs, args.Int(1), args.Error(2)
}

func (m *MockClaimRunRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.ClaimRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ClaimRun), args.Error(1)
}

func (m *MockClaimRunRepo) MarkCompleted(ctx context.Context, id uuid.UUID, status domain.ClaimStatus, outputs json.RawMessage) error {
	args := m.Called(ctx, id, status, outputs)
	return args.Error(0)
}

func (m *MockClaimRunRepo) MarkFailed(ctx context.Context, id uuid.UUID, status domain.ClaimStatus, errMsg string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}
