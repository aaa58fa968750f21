package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/unifiedui/handoff-service/internal/services/inference"
)

// MockInferenceService is a mock implementation of inference.Service.
type MockInferenceService struct {
	mock.Mock
}

var _ inference.Service = (*MockInferenceService)(nil)

// Generate returns the configured reply.
func (m *MockInferenceService) Generate(ctx context.Context, req *inference.GenerateRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
