package notifier

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
)

// Producer validates inbound notification events, enriches them with
// delivery metadata and submits them to the job queue.
type Producer struct {
	queue  notification.Queue
	logger zerolog.Logger
}

// NewProducer creates a new notification producer.
func NewProducer(queue notification.Queue, logger zerolog.Logger) *Producer {
	return &Producer{
		queue:  queue,
		logger: logger.With().Str("service", "notifier").Logger(),
	}
}

// Enqueue submits one notification event. A contract violation (missing type
// or payload) is not an error: the event is logged and dropped, and the call
// returns (nil, nil) so callers treat it as "not sent". Infrastructure
// failures, including the circuit-breaker timeout, are returned to the
// caller; the post-commit fan-out isolates them per recipient.
func (p *Producer) Enqueue(ctx context.Context, event notification.Event) (*notification.Job, error) {
	if err := event.Validate(); err != nil {
		p.logger.Warn().
			Str("notification_type", string(event.Type)).
			Str("target_id", event.Target.AnonymousID).
			Str("error_code", notification.CodeInvalidEvent).
			Err(err).
			Msg("notification event rejected")
		return nil, nil
	}

	event.ApplyDefaults(time.Now().UTC())
	env := event.Envelope()
	opts := notification.DefaultOptions(event.JobID())

	job, err := p.queue.Add(ctx, env, opts)
	if err != nil {
		p.logger.Error().
			Str("trace_id", env.TraceID).
			Str("event_id", env.ID).
			Str("notification_type", string(env.Type)).
			Str("target_id", env.Target.AnonymousID).
			Str("error_code", notification.ErrorCode(err)).
			Err(err).
			Msg("notification enqueue failed")
		return nil, err
	}

	p.logger.Info().
		Str("trace_id", env.TraceID).
		Str("event_id", env.ID).
		Str("notification_type", string(env.Type)).
		Str("target_id", env.Target.AnonymousID).
		Str("job_id", job.ID).
		Bool("deduplicated", job.Deduplicated).
		Msg("notification enqueued")

	return job, nil
}
