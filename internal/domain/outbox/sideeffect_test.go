package outbox

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
)

func TestToggleEventID(t *testing.T) {
	t.Run("same inputs produce the same id", func(t *testing.T) {
		a := ToggleEventID("room:pinned", "room-1", "u1", true)
		b := ToggleEventID("room:pinned", "room-1", "u1", true)
		assert.Equal(t, a, b)
		assert.Len(t, a, 40)
	})

	t.Run("resulting state changes the id", func(t *testing.T) {
		on := ToggleEventID("room:pinned", "room-1", "u1", true)
		off := ToggleEventID("room:pinned", "room-1", "u1", false)
		assert.NotEqual(t, on, off)
	})

	t.Run("actor changes the id", func(t *testing.T) {
		a := ToggleEventID("room:pinned", "room-1", "u1", true)
		b := ToggleEventID("room:pinned", "room-1", "u2", true)
		assert.NotEqual(t, a, b)
	})
}

func TestSideEffectConstructors(t *testing.T) {
	t.Run("realtime emit", func(t *testing.T) {
		eff := EmitRealtime(RealtimeEvent{ID: "e1", Name: "chat.message.created", RoomID: "room-1"})
		assert.Equal(t, KindRealtimeEmit, eff.Kind)
		assert.NotNil(t, eff.Realtime)
		assert.Nil(t, eff.Notification)
	})

	t.Run("notification enqueue", func(t *testing.T) {
		eff := EnqueueNotification(notification.NewChatMessageEvent("u2", "room-1", "Blue Fox", "hi"))
		assert.Equal(t, KindNotificationEnqueue, eff.Kind)
		assert.NotNil(t, eff.Notification)
		assert.Nil(t, eff.Realtime)
	})
}
