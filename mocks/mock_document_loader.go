package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockDocumentLoader is a mock implementation of port.DocumentLoader.
type MockDocumentLoader struct {
	mock.Mock
}

func (m *MockDocumentLoader) Load(ctx context.Context, location string) ([]byte, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
