package outbox

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
	domainOutbox "github.com/Tuwebai/safespot-sub004/internal/domain/outbox"
)

// RealtimeSink delivers a realtime event to connected clients.
type RealtimeSink interface {
	Emit(ctx context.Context, ev domainOutbox.RealtimeEvent) error
}

// Producer enqueues one notification event. A (nil, nil) return means the
// event was rejected at the contract boundary and deliberately not sent.
type Producer interface {
	Enqueue(ctx context.Context, event notification.Event) (*notification.Job, error)
}

// Flusher executes queued side effects after a transaction commits. Effects
// run in queue order; each one is isolated, so a failing notification
// enqueue for one recipient never blocks the remaining effects and never
// propagates to the caller of the committed transaction.
type Flusher struct {
	realtime RealtimeSink
	producer Producer
	logger   zerolog.Logger
}

// NewFlusher creates a post-commit side-effect flusher.
func NewFlusher(realtime RealtimeSink, producer Producer, logger zerolog.Logger) *Flusher {
	return &Flusher{
		realtime: realtime,
		producer: producer,
		logger:   logger.With().Str("service", "outbox-flusher").Logger(),
	}
}

// Flush runs the effects in order. The primary write is already durable at
// this point, so every outcome here is best-effort and logged individually.
func (f *Flusher) Flush(ctx context.Context, effects []domainOutbox.SideEffect) {
	for _, effect := range effects {
		switch effect.Kind {
		case domainOutbox.KindRealtimeEmit:
			f.flushRealtime(ctx, effect.Realtime)
		case domainOutbox.KindNotificationEnqueue:
			f.flushNotification(ctx, effect.Notification)
		default:
			f.logger.Warn().Str("kind", string(effect.Kind)).Msg("unknown side effect kind")
		}
	}
}

func (f *Flusher) flushRealtime(ctx context.Context, ev *domainOutbox.RealtimeEvent) {
	if ev == nil {
		return
	}
	if err := f.realtime.Emit(ctx, *ev); err != nil {
		f.logger.Warn().
			Str("event", ev.Name).
			Str("event_id", ev.ID).
			Str("room_id", ev.RoomID).
			Str("result", "fail").
			Err(err).
			Msg("realtime emit failed")
		return
	}
	f.logger.Debug().
		Str("event", ev.Name).
		Str("event_id", ev.ID).
		Str("room_id", ev.RoomID).
		Str("result", "ok").
		Msg("realtime emit flushed")
}

func (f *Flusher) flushNotification(ctx context.Context, ev *notification.Event) {
	if ev == nil {
		return
	}
	job, err := f.producer.Enqueue(ctx, *ev)
	if err != nil {
		f.logger.Warn().
			Str("notification_type", string(ev.Type)).
			Str("recipient_id", ev.Target.AnonymousID).
			Str("result", "fail").
			Str("error_code", notification.ErrorCode(err)).
			Err(err).
			Msg("notification enqueue failed")
		return
	}
	if job == nil {
		// Rejected by the producer contract; already logged there.
		return
	}
	f.logger.Info().
		Str("notification_type", string(ev.Type)).
		Str("recipient_id", ev.Target.AnonymousID).
		Str("job_id", job.ID).
		Str("result", "ok").
		Msg("notification enqueue flushed")
}
