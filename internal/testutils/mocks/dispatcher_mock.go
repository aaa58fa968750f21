package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/unifiedui/handoff-service/internal/domain/models"
	"github.com/unifiedui/handoff-service/internal/services/handoff"
	"github.com/unifiedui/handoff-service/internal/services/platform"
)

// MockDispatcher is a mock implementation of handoff.Dispatcher.
type MockDispatcher struct {
	mock.Mock
}

var _ handoff.Dispatcher = (*MockDispatcher)(nil)

// Dispatch records the call and returns the configured error.
func (m *MockDispatcher) Dispatch(ctx context.Context, bot *platform.BotConfig, req *models.HandoffRequest) error {
	args := m.Called(ctx, bot, req)
	return args.Error(0)
}
