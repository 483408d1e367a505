package outbox

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	domainOutbox "github.com/Tuwebai/safespot-sub004/internal/domain/outbox"
)

// Beginner starts a database transaction. Satisfied by *pgxpool.Pool.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxFunc is a transaction body. It returns the side effects to flush after
// commit; returning an error rolls the transaction back and discards them.
type TxFunc func(ctx context.Context, tx pgx.Tx) ([]domainOutbox.SideEffect, error)

// Runner wraps mutation handlers in a row-level-security-scoped transaction
// and defers externally observable side effects until after commit. Nothing
// outside the database ever observes an effect of a write that did not
// durably commit.
type Runner struct {
	db      Beginner
	flusher *Flusher
	logger  zerolog.Logger
}

// NewRunner creates a transactional runner.
func NewRunner(db Beginner, flusher *Flusher, logger zerolog.Logger) *Runner {
	return &Runner{
		db:      db,
		flusher: flusher,
		logger:  logger.With().Str("service", "tx-runner").Logger(),
	}
}

// WithTransaction runs fn inside a transaction scoped to actorID for
// row-level security. On commit the returned side effects are flushed in
// queue order; on rollback they are discarded unflushed.
func (r *Runner) WithTransaction(ctx context.Context, actorID string, fn TxFunc) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if actorID != "" {
		if _, err := tx.Exec(ctx, "SELECT set_config('app.actor_id', $1, true)", actorID); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to scope transaction to actor: %w", err)
		}
	}

	effects, err := fn(ctx, tx)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.logger.Warn().Err(rbErr).Msg("rollback failed")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.flusher.Flush(ctx, effects)
	return nil
}
