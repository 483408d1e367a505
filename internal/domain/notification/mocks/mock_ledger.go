package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
)

// MockLedger is a mock implementation of notification.Ledger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) MarkDispatched(ctx context.Context, eventID, channel string) {
	m.Called(ctx, eventID, channel)
}

func (m *MockLedger) MarkDelivered(ctx context.Context, eventID string) {
	m.Called(ctx, eventID)
}

func (m *MockLedger) Status(ctx context.Context, eventID string) *notification.DeliveryRecord {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*notification.DeliveryRecord)
}

func (m *MockLedger) IsDelivered(ctx context.Context, eventID string) bool {
	args := m.Called(ctx, eventID)
	return args.Bool(0)
}
