package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Tuwebai/safespot-sub004/internal/domain/chat"
)

// ChatRepository implements chat.Repository. All methods operate on the
// caller's transaction so writes share the mutation handler's commit scope
// and row-level security context.
type ChatRepository struct{}

func NewChatRepository() *ChatRepository {
	return &ChatRepository{}
}

func (r *ChatRepository) InsertMessage(ctx context.Context, tx pgx.Tx, m *chat.Message) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO chat_messages (id, room_id, sender_id, body, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, m.ID, m.RoomID, m.SenderID, m.Body, m.CreatedAt)
	return err
}

func (r *ChatRepository) GetMessage(ctx context.Context, tx pgx.Tx, messageID uuid.UUID) (*chat.Message, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, room_id, sender_id, body, created_at, deleted_at
		FROM chat_messages WHERE id=$1 AND deleted_at IS NULL
	`, messageID)
	var m chat.Message
	err := row.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Body, &m.CreatedAt, &m.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ChatRepository) SoftDeleteMessage(ctx context.Context, tx pgx.Tx, messageID uuid.UUID, at time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE chat_messages SET deleted_at=$2 WHERE id=$1 AND deleted_at IS NULL
	`, messageID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return chat.ErrMessageNotFound
	}
	return nil
}

func (r *ChatRepository) MarkRead(ctx context.Context, tx pgx.Tx, roomID uuid.UUID, readerID string, at time.Time) (int64, error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO chat_read_receipts (message_id, reader_id, read_at)
		SELECT m.id, $2, $3
		FROM chat_messages m
		WHERE m.room_id=$1 AND m.sender_id <> $2 AND m.deleted_at IS NULL
		ON CONFLICT (message_id, reader_id) DO NOTHING
	`, roomID, readerID, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *ChatRepository) SetRoomPinned(ctx context.Context, tx pgx.Tx, roomID uuid.UUID, memberID string, pinned bool) error {
	tag, err := tx.Exec(ctx, `
		UPDATE chat_room_members SET pinned=$3 WHERE room_id=$1 AND anonymous_id=$2
	`, roomID, memberID, pinned)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("room membership not found")
	}
	return nil
}

func (r *ChatRepository) ListMembers(ctx context.Context, tx pgx.Tx, roomID uuid.UUID) ([]*chat.Member, error) {
	rows, err := tx.Query(ctx, `
		SELECT room_id, anonymous_id, alias, pinned
		FROM chat_room_members WHERE room_id=$1 ORDER BY alias ASC
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*chat.Member
	for rows.Next() {
		var m chat.Member
		if err := rows.Scan(&m.RoomID, &m.AnonymousID, &m.Alias, &m.Pinned); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
