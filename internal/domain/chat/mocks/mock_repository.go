package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/Tuwebai/safespot-sub004/internal/domain/chat"
)

// MockRepository is a mock implementation of chat.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) InsertMessage(ctx context.Context, tx pgx.Tx, msg *chat.Message) error {
	args := m.Called(ctx, tx, msg)
	return args.Error(0)
}

func (m *MockRepository) GetMessage(ctx context.Context, tx pgx.Tx, messageID uuid.UUID) (*chat.Message, error) {
	args := m.Called(ctx, tx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.Message), args.Error(1)
}

func (m *MockRepository) SoftDeleteMessage(ctx context.Context, tx pgx.Tx, messageID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, tx, messageID, at)
	return args.Error(0)
}

func (m *MockRepository) MarkRead(ctx context.Context, tx pgx.Tx, roomID uuid.UUID, readerID string, at time.Time) (int64, error) {
	args := m.Called(ctx, tx, roomID, readerID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) SetRoomPinned(ctx context.Context, tx pgx.Tx, roomID uuid.UUID, memberID string, pinned bool) error {
	args := m.Called(ctx, tx, roomID, memberID, pinned)
	return args.Error(0)
}

func (m *MockRepository) ListMembers(ctx context.Context, tx pgx.Tx, roomID uuid.UUID) ([]*chat.Member, error) {
	args := m.Called(ctx, tx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*chat.Member), args.Error(1)
}
