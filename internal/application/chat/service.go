package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	appOutbox "github.com/Tuwebai/safespot-sub004/internal/application/outbox"
	"github.com/Tuwebai/safespot-sub004/internal/domain/chat"
	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
	"github.com/Tuwebai/safespot-sub004/internal/domain/outbox"
)

// Realtime event names emitted by chat mutations.
const (
	EventMessageCreated = "chat.message.created"
	EventMessageDeleted = "chat.message.deleted"
	EventRoomRead       = "chat.room.read"
	EventRoomPinned     = "chat.room.pinned"
)

// Service implements the chat mutation handlers. Every mutation runs in a
// transaction and queues its realtime emits and notification fan-out as
// side effects flushed only after commit.
type Service struct {
	repo   chat.Repository
	runner *appOutbox.Runner
	logger zerolog.Logger
}

// NewService creates a chat service.
func NewService(repo chat.Repository, runner *appOutbox.Runner, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		runner: runner,
		logger: logger.With().Str("service", "chat").Logger(),
	}
}

// SendMessage persists a message and fans out a CHAT_MESSAGE notification to
// every other room member. The realtime emit is queued before the enqueues
// so flush order matches queue order.
func (s *Service) SendMessage(ctx context.Context, roomID uuid.UUID, senderID, body string) (*chat.Message, error) {
	if err := chat.ValidateBody(body); err != nil {
		return nil, err
	}

	var msg *chat.Message
	err := s.runner.WithTransaction(ctx, senderID, func(ctx context.Context, tx pgx.Tx) ([]outbox.SideEffect, error) {
		m := chat.NewMessage(roomID, senderID, body)
		if err := s.repo.InsertMessage(ctx, tx, m); err != nil {
			return nil, fmt.Errorf("failed to insert message: %w", err)
		}

		members, err := s.repo.ListMembers(ctx, tx, roomID)
		if err != nil {
			return nil, fmt.Errorf("failed to list room members: %w", err)
		}

		senderAlias := senderID
		for _, member := range members {
			if member.AnonymousID == senderID {
				senderAlias = member.Alias
				break
			}
		}

		effects := []outbox.SideEffect{
			outbox.EmitRealtime(outbox.RealtimeEvent{
				ID:     m.ID.String(),
				Name:   EventMessageCreated,
				RoomID: roomID.String(),
				Data: map[string]any{
					"messageId":   m.ID.String(),
					"senderAlias": senderAlias,
					"body":        m.Body,
					"createdAt":   m.CreatedAt.UnixMilli(),
				},
			}),
		}
		for _, member := range members {
			if member.AnonymousID == senderID {
				continue
			}
			ev := notification.NewChatMessageEvent(member.AnonymousID, roomID.String(), senderAlias, m.Preview())
			ev.ID = m.ID.String() + ":" + member.AnonymousID
			effects = append(effects, outbox.EnqueueNotification(ev))
		}

		msg = m
		return effects, nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkRead records read receipts for the reader and emits a room-scoped
// realtime event. Returns the number of messages newly marked read.
func (s *Service) MarkRead(ctx context.Context, roomID uuid.UUID, readerID string) (int64, error) {
	var marked int64
	err := s.runner.WithTransaction(ctx, readerID, func(ctx context.Context, tx pgx.Tx) ([]outbox.SideEffect, error) {
		now := time.Now().UTC()
		n, err := s.repo.MarkRead(ctx, tx, roomID, readerID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to mark messages read: %w", err)
		}
		marked = n
		if n == 0 {
			return nil, nil
		}
		return []outbox.SideEffect{
			outbox.EmitRealtime(outbox.RealtimeEvent{
				ID:     uuid.NewString(),
				Name:   EventRoomRead,
				RoomID: roomID.String(),
				Data: map[string]any{
					"readerId": readerID,
					"readAt":   now.UnixMilli(),
					"count":    n,
				},
			}),
		}, nil
	})
	return marked, err
}

// DeleteMessage soft-deletes a message owned by the actor and emits the
// deletion to the room.
func (s *Service) DeleteMessage(ctx context.Context, messageID uuid.UUID, actorID string) error {
	return s.runner.WithTransaction(ctx, actorID, func(ctx context.Context, tx pgx.Tx) ([]outbox.SideEffect, error) {
		m, err := s.repo.GetMessage(ctx, tx, messageID)
		if err != nil {
			return nil, fmt.Errorf("failed to load message: %w", err)
		}
		if m == nil {
			return nil, chat.ErrMessageNotFound
		}
		if m.SenderID != actorID {
			return nil, chat.ErrNotSender
		}
		if err := s.repo.SoftDeleteMessage(ctx, tx, messageID, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("failed to delete message: %w", err)
		}
		return []outbox.SideEffect{
			outbox.EmitRealtime(outbox.RealtimeEvent{
				ID:     uuid.NewString(),
				Name:   EventMessageDeleted,
				RoomID: m.RoomID.String(),
				Data: map[string]any{
					"messageId": messageID.String(),
				},
			}),
		}, nil
	})
}

// TogglePin sets the actor's pinned flag for a room. The realtime event id
// is deterministic over (action, room, actor, resulting state) so duplicate
// emits from retried requests are recognizable as repeats.
func (s *Service) TogglePin(ctx context.Context, roomID uuid.UUID, actorID string, pinned bool) error {
	return s.runner.WithTransaction(ctx, actorID, func(ctx context.Context, tx pgx.Tx) ([]outbox.SideEffect, error) {
		if err := s.repo.SetRoomPinned(ctx, tx, roomID, actorID, pinned); err != nil {
			return nil, fmt.Errorf("failed to set pinned flag: %w", err)
		}
		return []outbox.SideEffect{
			outbox.EmitRealtime(outbox.RealtimeEvent{
				ID:     outbox.ToggleEventID("pin", roomID.String(), actorID, pinned),
				Name:   EventRoomPinned,
				RoomID: roomID.String(),
				UserID: actorID,
				Data: map[string]any{
					"pinned": pinned,
				},
			}),
		}, nil
	})
}
