package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

// MockClassifier is a mock implementation of port.Classifier.
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(candidate *domain.BillCandidate) domain.ClassificationLabel {
	args := m.Called(candidate)
	return args.Get(0).(domain.ClassificationLabel)
}
