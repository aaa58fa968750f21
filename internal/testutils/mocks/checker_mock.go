package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/unifiedui/handoff-service/internal/services/access"
)

// MockChecker is a mock implementation of access.Checker and access.Revoker.
type MockChecker struct {
	mock.Mock
}

var (
	_ access.Checker = (*MockChecker)(nil)
	_ access.Revoker = (*MockChecker)(nil)
)

// Verify checks a candidate secret.
func (m *MockChecker) Verify(ctx context.Context, botID, candidate string) (*access.VerifyResult, error) {
	args := m.Called(ctx, botID, candidate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.VerifyResult), args.Error(1)
}

// CheckAccess validates a token.
func (m *MockChecker) CheckAccess(ctx context.Context, botID, token string) (bool, error) {
	args := m.Called(ctx, botID, token)
	return args.Bool(0), args.Error(1)
}

// Revoke drops the tokens of a bot.
func (m *MockChecker) Revoke(ctx context.Context, botID string) (int64, error) {
	args := m.Called(ctx, botID)
	return args.Get(0).(int64), args.Error(1)
}
