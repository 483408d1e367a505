package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
	"github.com/Tuwebai/safespot-sub004/internal/domain/notification/mocks"
	"github.com/Tuwebai/safespot-sub004/internal/infrastructure/sse"
)

type fakeHub struct {
	connections map[string]int
	sent        []*sse.Event
}

func (h *fakeHub) BroadcastToUser(anonymousID string, ev *sse.Event) int {
	n := h.connections[anonymousID]
	if n > 0 {
		h.sent = append(h.sent, ev)
	}
	return n
}

func liveEnvelope(recipientID string) *notification.Envelope {
	ev := notification.NewChatMessageEvent(recipientID, "room-1", "Blue Fox", "hi")
	ev.ApplyDefaults(time.Now().UTC())
	return ev.Envelope()
}

func TestSSEDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to a connected recipient and records dispatch", func(t *testing.T) {
		hub := &fakeHub{connections: map[string]int{"u2": 1}}
		ledger := new(mocks.MockLedger)
		env := liveEnvelope("u2")
		ledger.On("MarkDispatched", ctx, env.ID, "sse").Return()

		d := NewSSEDispatcher(hub, ledger, nil, zerolog.Nop())
		result, err := d.Dispatch(ctx, env)

		require.NoError(t, err)
		assert.Equal(t, notification.ResultSuccess, result)
		require.Len(t, hub.sent, 1)
		assert.Equal(t, env.ID, hub.sent[0].ID)
		ledger.AssertExpectations(t)
	})

	t.Run("offline recipient is retryable", func(t *testing.T) {
		hub := &fakeHub{connections: map[string]int{}}
		ledger := new(mocks.MockLedger)

		d := NewSSEDispatcher(hub, ledger, nil, zerolog.Nop())
		result, err := d.Dispatch(ctx, liveEnvelope("u2"))

		require.NoError(t, err)
		assert.Equal(t, notification.ResultRetryable, result)
		ledger.AssertNotCalled(t, "MarkDispatched")
	})

	t.Run("expired notification drops permanently", func(t *testing.T) {
		hub := &fakeHub{connections: map[string]int{"u2": 1}}
		ledger := new(mocks.MockLedger)

		env := liveEnvelope("u2")
		env.CreatedAt = time.Now().UTC().Add(-3 * time.Hour).UnixMilli()
		env.Delivery.TTLSeconds = 3600

		d := NewSSEDispatcher(hub, ledger, nil, zerolog.Nop())
		result, err := d.Dispatch(ctx, env)

		require.NoError(t, err)
		assert.Equal(t, notification.ResultPermanent, result)
		assert.Empty(t, hub.sent)
	})

	t.Run("suppress rule drops permanently", func(t *testing.T) {
		hub := &fakeHub{connections: map[string]int{"u2": 1}}
		ledger := new(mocks.MockLedger)
		rules := []PolicyRule{{Type: notification.TypeChatMessage, Suppress: true}}

		d := NewSSEDispatcher(hub, ledger, rules, zerolog.Nop())
		result, err := d.Dispatch(ctx, liveEnvelope("u2"))

		require.NoError(t, err)
		assert.Equal(t, notification.ResultPermanent, result)
		assert.Empty(t, hub.sent)
	})

	t.Run("non-matching rule does not suppress", func(t *testing.T) {
		hub := &fakeHub{connections: map[string]int{"u2": 1}}
		ledger := new(mocks.MockLedger)
		ledger.On("MarkDispatched", ctx, mock.Anything, "sse").Return()
		rules := []PolicyRule{{Type: notification.TypeReportNearby, Suppress: true}}

		d := NewSSEDispatcher(hub, ledger, rules, zerolog.Nop())
		result, err := d.Dispatch(ctx, liveEnvelope("u2"))

		require.NoError(t, err)
		assert.Equal(t, notification.ResultSuccess, result)
	})

	t.Run("broken rule expression is retryable", func(t *testing.T) {
		hub := &fakeHub{connections: map[string]int{"u2": 1}}
		ledger := new(mocks.MockLedger)
		rules := []PolicyRule{{Condition: "((", Suppress: true}}

		d := NewSSEDispatcher(hub, ledger, rules, zerolog.Nop())
		result, err := d.Dispatch(ctx, liveEnvelope("u2"))

		require.Error(t, err)
		assert.Equal(t, notification.ResultRetryable, result)
	})

	t.Run("missing target drops permanently", func(t *testing.T) {
		hub := &fakeHub{connections: map[string]int{}}
		ledger := new(mocks.MockLedger)

		env := liveEnvelope("")
		env.Target.AnonymousID = ""

		d := NewSSEDispatcher(hub, ledger, nil, zerolog.Nop())
		result, err := d.Dispatch(ctx, env)

		require.NoError(t, err)
		assert.Equal(t, notification.ResultPermanent, result)
	})
}

func TestPolicyRule_Matches(t *testing.T) {
	env := liveEnvelope("u2")

	t.Run("empty condition matches the type", func(t *testing.T) {
		ok, err := PolicyRule{Type: notification.TypeChatMessage}.matches(env)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("literal shortcuts", func(t *testing.T) {
		ok, err := PolicyRule{Condition: "true"}.matches(env)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = PolicyRule{Condition: "false"}.matches(env)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expression over envelope fields", func(t *testing.T) {
		ok, err := PolicyRule{Condition: `priority == "high" && roomId == "room-1"`}.matches(env)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expression over nested payload data", func(t *testing.T) {
		withData := liveEnvelope("u2")
		withData.Payload.Data = map[string]any{"severity": "low"}
		ok, err := PolicyRule{Condition: `[data.severity] == "low"`}.matches(withData)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("non-boolean result errors", func(t *testing.T) {
		_, err := PolicyRule{Condition: `attempt + 1`}.matches(env)
		assert.Error(t, err)
	})
}
