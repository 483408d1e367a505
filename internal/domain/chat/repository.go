package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines chat persistence. Methods take the caller's transaction
// so writes participate in the mutation handler's commit/rollback scope.
type Repository interface {
	InsertMessage(ctx context.Context, tx pgx.Tx, m *Message) error
	GetMessage(ctx context.Context, tx pgx.Tx, messageID uuid.UUID) (*Message, error)
	SoftDeleteMessage(ctx context.Context, tx pgx.Tx, messageID uuid.UUID, at time.Time) error
	MarkRead(ctx context.Context, tx pgx.Tx, roomID uuid.UUID, readerID string, at time.Time) (int64, error)
	SetRoomPinned(ctx context.Context, tx pgx.Tx, roomID uuid.UUID, memberID string, pinned bool) error
	ListMembers(ctx context.Context, tx pgx.Tx, roomID uuid.UUID) ([]*Member, error)
}
