package chat

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrEmptyBody       = errors.New("message body is empty")
	ErrBodyTooLong     = errors.New("message body exceeds maximum length")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotSender       = errors.New("only the sender can delete a message")
)

// MaxBodyLength bounds one chat message body.
const MaxBodyLength = 2000

// previewLength bounds the notification preview of a message.
const previewLength = 120

// Message is one chat message in a report conversation room.
type Message struct {
	ID        uuid.UUID  `json:"id"`
	RoomID    uuid.UUID  `json:"roomId"`
	SenderID  string     `json:"senderId"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// NewMessage creates a chat message.
func NewMessage(roomID uuid.UUID, senderID, body string) *Message {
	return &Message{
		ID:        uuid.New(),
		RoomID:    roomID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
}

// ValidateBody checks the message body constraints.
func ValidateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyBody
	}
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return ErrBodyTooLong
	}
	return nil
}

// Preview returns the truncated body used in notification payloads.
func (m *Message) Preview() string {
	if utf8.RuneCountInString(m.Body) <= previewLength {
		return m.Body
	}
	runes := []rune(m.Body)
	return string(runes[:previewLength-1]) + "…"
}

// Member is one participant of a chat room, identified only by an anonymous
// id and a per-room alias.
type Member struct {
	RoomID      uuid.UUID `json:"roomId"`
	AnonymousID string    `json:"anonymousId"`
	Alias       string    `json:"alias"`
	Pinned      bool      `json:"pinned"`
}
