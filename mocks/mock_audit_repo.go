package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

// MockAuditRepo is a mock implementation of port.AuditRepository.
type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) SaveEvents(ctx context.Context, runID uuid.UUID, events []domain.AuditEvent) error {
	args := m.Called(ctx, runID, events)
	return args.Error(0)
}

func (m *MockAuditRepo) ListByClaim(ctx context.Context, claimID string, offset, limit int) ([]domain.AuditEvent, int, error) {
	args := m.Called(ctx, claimID, offset, limit)
	var events []domain.AuditEvent
	if args.Get(0) != nil {
		events = args.Get(0).([]domain.AuditEvent)
	}
	return events, args.Int(1), args.Error(2)
}
