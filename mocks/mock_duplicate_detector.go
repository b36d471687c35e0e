package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

// MockDuplicateDetector is a mock implementation of port.DuplicateDetector.
type MockDuplicateDetector struct {
	mock.Mock
}

func (m *MockDuplicateDetector) DetectDuplicates(candidates []*domain.BillCandidate) ([]*domain.DuplicateGroup, []domain.FingerprintFailure) {
	args := m.Called(candidates)
	var groups []*domain.DuplicateGroup
	if args.Get(0) != nil {
		groups = args.Get(0).([]*domain.DuplicateGroup)
	}
	var failures []domain.FingerprintFailure
	if args.Get(1) != nil {
		failures = args.Get(1).([]domain.FingerprintFailure)
	}
	return groups, failures
}
