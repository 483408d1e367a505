package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
)

// MockDispatcher is a mock implementation of notification.Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, env *notification.Envelope) (notification.Result, error) {
	args := m.Called(ctx, env)
	return args.Get(0).(notification.Result), args.Error(1)
}
