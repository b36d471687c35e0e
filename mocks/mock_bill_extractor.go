package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

// MockBillExtractor is a mock implementation of port.BillExtractor.
type MockBillExtractor struct {
	mock.Mock
}

func (m *MockBillExtractor) Extract(doc *domain.ExtractedDocument) (*domain.BillCandidate, error) {
	args := m.Called(doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillCandidate), args.Error(1)
}
