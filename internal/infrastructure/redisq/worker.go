package redisq

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
)

// ActiveJob is one claimed job handed to a Processor. Envelope.Attempt is
// already incremented to the 1-indexed attempt number.
type ActiveJob struct {
	ID           string
	Envelope     *notification.Envelope
	Options      notification.Options
	AttemptsMade int
}

// Processor handles one delivery attempt. Returning nil completes the job;
// returning an error hands it to the retry machinery.
type Processor func(ctx context.Context, job *ActiveJob) error

// Hooks receives job lifecycle callbacks on terminal states.
type Hooks interface {
	OnCompleted(job *ActiveJob)
	OnFailed(job *ActiveJob, err error)
	OnError(err error)
}

// Consumer is the runnable surface shared by the live worker and the no-op
// variant used outside production.
type Consumer interface {
	Run(ctx context.Context) error
}

// WorkerOptions configure a consumer.
type WorkerOptions struct {
	// Concurrency is the number of jobs processed in parallel. Default 2.
	Concurrency int
	// RatePerSecond caps how many jobs may start per rolling second,
	// regardless of concurrency. Default 5.
	RatePerSecond int
	// ClaimBlock is how long one claim call blocks waiting for work.
	ClaimBlock time.Duration
	// PromoteEvery is the delayed-set promotion interval.
	PromoteEvery time.Duration
}

func (o WorkerOptions) withDefaults() WorkerOptions {
	if o.Concurrency <= 0 {
		o.Concurrency = 2
	}
	if o.RatePerSecond <= 0 {
		o.RatePerSecond = 5
	}
	if o.ClaimBlock <= 0 {
		o.ClaimBlock = 5 * time.Second
	}
	if o.PromoteEvery <= 0 {
		o.PromoteEvery = time.Second
	}
	return o
}

// Worker pulls jobs from a queue under concurrency and rate limits and
// drives the retry state machine around a Processor.
type Worker struct {
	queue   *Queue
	proc    Processor
	opts    WorkerOptions
	limiter *rate.Limiter
	hooks   Hooks
	logger  zerolog.Logger
}

// NewWorker creates a consumer for the given queue.
func NewWorker(queue *Queue, proc Processor, opts WorkerOptions, logger zerolog.Logger) *Worker {
	opts = opts.withDefaults()
	return &Worker{
		queue:   queue,
		proc:    proc,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.RatePerSecond),
		logger:  logger.With().Str("service", "notification-worker").Str("queue", queue.Name()).Logger(),
	}
}

// WithHooks registers lifecycle callbacks. Must be called before Run.
func (w *Worker) WithHooks(h Hooks) *Worker {
	w.hooks = h
	return w
}

// Run blocks until the context is cancelled, processing jobs from the queue.
func (w *Worker) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.promoteLoop(ctx)
	}()

	for i := 0; i < w.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.claimLoop(ctx)
		}()
	}

	wg.Wait()
	return ctx.Err()
}

func (w *Worker) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(w.opts.PromoteEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.queue.promoteDelayed(ctx, time.Now().UTC()); err != nil && !errors.Is(err, context.Canceled) {
				w.reportError(err)
				w.logger.Warn().Err(err).Msg("failed to promote delayed jobs")
			}
		}
	}
}

func (w *Worker) claimLoop(ctx context.Context) {
	for {
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}

		jobID, err := w.queue.claim(ctx, w.opts.ClaimBlock)
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			w.reportError(err)
			w.logger.Warn().Err(err).Msg("failed to claim job")
			continue
		}

		w.process(ctx, jobID)
	}
}

// processOutcome is the worker's verdict for one finished attempt.
type processOutcome int

const (
	outcomeComplete processOutcome = iota
	outcomeRetry
	outcomeExhausted
)

// decide interprets a processor result against the job's retry budget.
func decide(procErr error, attempt, maxAttempts int) processOutcome {
	if procErr == nil {
		return outcomeComplete
	}
	if attempt >= maxAttempts {
		return outcomeExhausted
	}
	return outcomeRetry
}

func (w *Worker) process(ctx context.Context, jobID string) {
	sj, err := w.queue.load(ctx, jobID)
	if err != nil {
		w.reportError(err)
		w.logger.Error().Err(err).Str("job_id", jobID).Msg("failed to load claimed job")
		return
	}
	if sj == nil {
		// Completed by another consumer between claim and load.
		_ = w.queue.complete(ctx, jobID)
		return
	}

	attempt := sj.AttemptsMade + 1
	sj.Envelope.Attempt = attempt
	job := &ActiveJob{ID: jobID, Envelope: sj.Envelope, Options: sj.Options, AttemptsMade: sj.AttemptsMade}

	log := w.logger.With().
		Str("trace_id", sj.Envelope.TraceID).
		Str("event_id", sj.Envelope.ID).
		Str("notification_type", string(sj.Envelope.Type)).
		Str("job_id", jobID).
		Int("attempt", attempt).
		Logger()
	log.Info().Msg("processing notification job")

	start := time.Now()
	procErr := w.proc(ctx, job)
	durationMS := time.Since(start).Milliseconds()

	now := time.Now().UTC()
	switch decide(procErr, attempt, sj.Options.Attempts) {
	case outcomeComplete:
		if err := w.queue.complete(ctx, jobID); err != nil {
			w.reportError(err)
			log.Error().Err(err).Msg("failed to complete job")
			return
		}
		log.Info().Int64("duration_ms", durationMS).Msg("notification job completed")
		if w.hooks != nil {
			w.hooks.OnCompleted(job)
		}
		w.queue.publishEvent(ctx, JobEvent{
			Event: EventCompleted, JobID: jobID, EventID: sj.Envelope.ID,
			TraceID: sj.Envelope.TraceID, Type: string(sj.Envelope.Type),
			Attempt: attempt, At: now.UnixMilli(),
		})

	case outcomeExhausted:
		sj.AttemptsMade = attempt
		sj.LastError = procErr.Error()
		if err := w.queue.fail(ctx, jobID, sj, now); err != nil {
			w.reportError(err)
			log.Error().Err(err).Msg("failed to move job to failed set")
			return
		}
		log.Error().
			Err(procErr).
			Int64("duration_ms", durationMS).
			Int("max_attempts", sj.Options.Attempts).
			Msg("notification job failed permanently")
		if w.hooks != nil {
			w.hooks.OnFailed(job, procErr)
		}
		w.queue.publishEvent(ctx, JobEvent{
			Event: EventFailed, JobID: jobID, EventID: sj.Envelope.ID,
			TraceID: sj.Envelope.TraceID, Type: string(sj.Envelope.Type),
			Attempt: attempt, Error: procErr.Error(), At: now.UnixMilli(),
		})

	case outcomeRetry:
		sj.AttemptsMade = attempt
		sj.LastError = procErr.Error()
		delay := nextDelay(sj.Options.Backoff.DelayMS, attempt)
		if err := w.queue.retryLater(ctx, jobID, sj, now.Add(delay)); err != nil {
			w.reportError(err)
			log.Error().Err(err).Msg("failed to schedule retry")
			return
		}
		log.Warn().
			Err(procErr).
			Int64("duration_ms", durationMS).
			Dur("retry_in", delay).
			Msg("notification job retry scheduled")
		w.queue.publishEvent(ctx, JobEvent{
			Event: EventRetry, JobID: jobID, EventID: sj.Envelope.ID,
			TraceID: sj.Envelope.TraceID, Type: string(sj.Envelope.Type),
			Attempt: attempt, Error: procErr.Error(), At: now.UnixMilli(),
		})
	}
}

func (w *Worker) reportError(err error) {
	if w.hooks != nil {
		w.hooks.OnError(err)
	}
}
