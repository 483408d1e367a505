package redisq

import (
	"context"

	"github.com/rs/zerolog"
)

// NoopWorker is the consumer substituted outside production execution modes.
// It exposes the same hook-registration surface as Worker but connects to
// nothing and processes nothing, so collaborators can wire lifecycle hooks
// without live infrastructure.
type NoopWorker struct {
	hooks  Hooks
	logger zerolog.Logger
}

// NewNoopWorker creates a disabled consumer.
func NewNoopWorker(logger zerolog.Logger) *NoopWorker {
	return &NoopWorker{
		logger: logger.With().Str("service", "notification-worker").Str("mode", "noop").Logger(),
	}
}

// WithHooks records hooks; they are never invoked.
func (w *NoopWorker) WithHooks(h Hooks) *NoopWorker {
	w.hooks = h
	return w
}

// Run blocks until the context is cancelled without doing any work.
func (w *NoopWorker) Run(ctx context.Context) error {
	w.logger.Info().Msg("notification worker disabled")
	<-ctx.Done()
	return ctx.Err()
}
