package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
	"github.com/Tuwebai/safespot-sub004/internal/infrastructure/sse"
)

// Hub is the slice of the SSE hub the dispatcher needs.
type Hub interface {
	BroadcastToUser(anonymousID string, ev *sse.Event) int
}

// SSEDispatcher delivers notifications to the recipient's live SSE
// connections and classifies the outcome for the worker:
//   - delivered to at least one connection: success
//   - recipient offline: retryable (they may reconnect within the TTL)
//   - TTL expired or a suppress rule matched: permanent
type SSEDispatcher struct {
	hub    Hub
	ledger notification.Ledger
	rules  []PolicyRule
	logger zerolog.Logger
}

// NewSSEDispatcher creates an SSE-channel dispatcher.
func NewSSEDispatcher(hub Hub, ledger notification.Ledger, rules []PolicyRule, logger zerolog.Logger) *SSEDispatcher {
	return &SSEDispatcher{
		hub:    hub,
		ledger: ledger,
		rules:  rules,
		logger: logger.With().Str("service", "sse-dispatcher").Logger(),
	}
}

// Dispatch performs one delivery attempt for a job envelope.
func (d *SSEDispatcher) Dispatch(ctx context.Context, env *notification.Envelope) (notification.Result, error) {
	if expired(env, time.Now().UTC()) {
		d.logger.Debug().
			Str("event_id", env.ID).
			Int("ttl_seconds", env.Delivery.TTLSeconds).
			Msg("notification ttl expired, dropping")
		return notification.ResultPermanent, nil
	}

	for _, rule := range d.rules {
		matched, err := rule.matches(env)
		if err != nil {
			return notification.ResultRetryable, fmt.Errorf("policy rule evaluation: %w", err)
		}
		if matched && rule.Suppress {
			d.logger.Debug().
				Str("event_id", env.ID).
				Str("notification_type", string(env.Type)).
				Msg("notification suppressed by policy")
			return notification.ResultPermanent, nil
		}
	}

	if env.Target.AnonymousID == "" {
		return notification.ResultPermanent, nil
	}

	data, err := json.Marshal(env.Payload)
	if err != nil {
		return notification.ResultPermanent, nil
	}
	ev := &sse.Event{
		ID:        env.ID,
		Name:      "notification",
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	sent := d.hub.BroadcastToUser(env.Target.AnonymousID, ev)
	if sent == 0 {
		return notification.ResultRetryable, nil
	}

	d.ledger.MarkDispatched(ctx, env.ID, "sse")
	return notification.ResultSuccess, nil
}

// expired reports whether the notification is no longer meaningful to
// deliver per its own TTL.
func expired(env *notification.Envelope, now time.Time) bool {
	if env.CreatedAt == 0 || env.Delivery.TTLSeconds <= 0 {
		return false
	}
	deadline := time.UnixMilli(env.CreatedAt).Add(time.Duration(env.Delivery.TTLSeconds) * time.Second)
	return now.After(deadline)
}
