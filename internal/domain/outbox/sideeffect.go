package outbox

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
)

// Kind discriminates the side-effect variants.
type Kind string

const (
	KindRealtimeEmit        Kind = "realtime_emit"
	KindNotificationEnqueue Kind = "notification_enqueue"
)

// RealtimeEvent is an event pushed to connected clients over the realtime
// transport.
type RealtimeEvent struct {
	// ID identifies the emit. Toggle-style actions carry a deterministic
	// id so duplicate emits are recognizable as repeats downstream.
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	RoomID string         `json:"roomId,omitempty"`
	UserID string         `json:"userId,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// SideEffect is one externally observable action queued during a transaction
// body and flushed only after a successful commit.
type SideEffect struct {
	Kind         Kind
	Realtime     *RealtimeEvent
	Notification *notification.Event
}

// EmitRealtime queues a realtime event emit.
func EmitRealtime(ev RealtimeEvent) SideEffect {
	return SideEffect{Kind: KindRealtimeEmit, Realtime: &ev}
}

// EnqueueNotification queues a notification enqueue.
func EnqueueNotification(ev notification.Event) SideEffect {
	return SideEffect{Kind: KindNotificationEnqueue, Notification: &ev}
}

// ToggleEventID derives a deterministic realtime event id for toggle-style
// actions so retried requests produce the same emit id.
func ToggleEventID(action, roomID, actorID string, resultingState bool) string {
	raw := fmt.Sprintf("%s|%s|%s|%t", action, roomID, actorID, resultingState)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
