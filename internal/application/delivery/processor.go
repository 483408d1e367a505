package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
)

// Processor interprets dispatch outcomes for the notification worker:
// success and permanent failure both complete the job, a retryable failure
// surfaces the sentinel error so the queue's retry machinery schedules the
// next attempt.
type Processor struct {
	dispatcher notification.Dispatcher
	logger     zerolog.Logger
}

// NewProcessor creates a delivery processor.
func NewProcessor(dispatcher notification.Dispatcher, logger zerolog.Logger) *Processor {
	return &Processor{
		dispatcher: dispatcher,
		logger:     logger.With().Str("service", "delivery").Logger(),
	}
}

// Handle performs one delivery attempt for a claimed job envelope.
func (p *Processor) Handle(ctx context.Context, env *notification.Envelope) error {
	log := p.logger.With().
		Str("trace_id", env.TraceID).
		Str("event_id", env.ID).
		Str("notification_type", string(env.Type)).
		Int("attempt", env.Attempt).
		Logger()

	start := time.Now()
	result, err := p.dispatcher.Dispatch(ctx, env)
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		if notification.IsPermanent(err) {
			log.Warn().
				Err(err).
				Int64("duration_ms", durationMS).
				Msg("dispatch failed permanently, not retrying")
			return nil
		}
		log.Warn().
			Err(err).
			Int64("duration_ms", durationMS).
			Msg("dispatch errored")
		return err
	}

	switch result {
	case notification.ResultSuccess:
		log.Info().Int64("duration_ms", durationMS).Msg("notification dispatched")
		return nil
	case notification.ResultPermanent:
		log.Warn().
			Int64("duration_ms", durationMS).
			Msg("dispatch failed permanently, not retrying")
		return nil
	case notification.ResultRetryable:
		log.Warn().
			Int64("duration_ms", durationMS).
			Msg("dispatch failed, retry requested")
		return fmt.Errorf("dispatch of %s: %w", env.ID, notification.ErrRetryable)
	default:
		return fmt.Errorf("unexpected dispatch result %d for %s", result, env.ID)
	}
}
