package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
)

// MockQueue is a mock implementation of notification.Queue
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Add(ctx context.Context, env *notification.Envelope, opts notification.Options) (*notification.Job, error) {
	args := m.Called(ctx, env, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Job), args.Error(1)
}
