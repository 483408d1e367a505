package redisq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
)

const (
	// enqueueTimeout bounds every Add against an unresponsive backing
	// store: fail fast rather than hang the post-commit fan-out.
	enqueueTimeout = 2 * time.Second

	// Failed jobs are retained for postmortem inspection, bounded in both
	// age and count. Completed jobs are removed immediately.
	failedRetention = 24 * time.Hour
	failedMaxCount  = 1000
)

// storedJob is the persisted representation of one queued job.
type storedJob struct {
	Envelope     *notification.Envelope `json:"envelope"`
	Options      notification.Options   `json:"options"`
	AttemptsMade int                    `json:"attemptsMade"`
	LastError    string                 `json:"lastError,omitempty"`
}

// Queue is a durable Redis-backed job queue with idempotent submission.
// Jobs wait on a ready list, are claimed atomically into an active list,
// and sit in a delayed set between retry attempts.
type Queue struct {
	name   string
	rdb    *redis.Client
	logger zerolog.Logger
}

// NewQueue binds a queue to the shared Redis connection.
func NewQueue(name string, rdb *redis.Client, logger zerolog.Logger) *Queue {
	return &Queue{
		name:   name,
		rdb:    rdb,
		logger: logger.With().Str("queue", name).Logger(),
	}
}

func (q *Queue) Name() string { return q.name }

func (q *Queue) jobKey(jobID string) string { return "queue:" + q.name + ":job:" + jobID }
func (q *Queue) readyKey() string           { return "queue:" + q.name + ":ready" }
func (q *Queue) activeKey() string          { return "queue:" + q.name + ":active" }
func (q *Queue) delayedKey() string         { return "queue:" + q.name + ":delayed" }
func (q *Queue) failedKey() string          { return "queue:" + q.name + ":failed" }
func (q *Queue) eventsKey() string          { return "queue:" + q.name + ":events" }

// Add submits a job under the circuit-breaker timeout. A job id that is
// already pending collapses into the existing job and returns it marked as
// deduplicated.
func (q *Queue) Add(ctx context.Context, env *notification.Envelope, opts notification.Options) (*notification.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, enqueueTimeout)
	defer cancel()

	data, err := json.Marshal(storedJob{Envelope: env, Options: opts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	created, err := q.rdb.SetNX(ctx, q.jobKey(opts.JobID), data, 0).Result()
	if err != nil {
		return nil, q.classify(err)
	}
	if !created {
		return &notification.Job{ID: opts.JobID, Envelope: env, Options: opts, Deduplicated: true}, nil
	}

	if err := q.rdb.LPush(ctx, q.readyKey(), opts.JobID).Err(); err != nil {
		// A job key with no ready-list entry would deduplicate every future
		// Add of this id against a job that can never run. Remove it before
		// surfacing the error; the original ctx may already be past its
		// deadline.
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
		defer cancel()
		if delErr := q.rdb.Del(cleanupCtx, q.jobKey(opts.JobID)).Err(); delErr != nil {
			q.logger.Warn().Err(delErr).Str("job_id", opts.JobID).Msg("failed to remove half-submitted job key")
		}
		return nil, q.classify(err)
	}
	return &notification.Job{ID: opts.JobID, Envelope: env, Options: opts}, nil
}

// classify maps a deadline hit to the distinct circuit-breaker error so
// callers can log REDIS_CIRCUIT_BREAKER_TIMEOUT instead of a generic failure.
func (q *Queue) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("enqueue on %q: %w", q.name, notification.ErrEnqueueTimeout)
	}
	return fmt.Errorf("enqueue on %q: %w", q.name, err)
}

// claim blocks until a job id can be moved ready -> active, or the timeout
// elapses. The atomic move is what guarantees a job has at most one active
// consumer at a time.
func (q *Queue) claim(ctx context.Context, block time.Duration) (string, error) {
	id, err := q.rdb.BLMove(ctx, q.readyKey(), q.activeKey(), "RIGHT", "LEFT", block).Result()
	if err != nil {
		return "", err
	}
	return id, nil
}

// load reads the stored job for an id. A missing key returns nil.
func (q *Queue) load(ctx context.Context, jobID string) (*storedJob, error) {
	data, err := q.rdb.Get(ctx, q.jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sj storedJob
	if err := json.Unmarshal(data, &sj); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", jobID, err)
	}
	return &sj, nil
}

// complete removes a finished job entirely; successes are not retained.
func (q *Queue) complete(ctx context.Context, jobID string) error {
	pipe := q.rdb.TxPipeline()
	pipe.LRem(ctx, q.activeKey(), 1, jobID)
	pipe.Del(ctx, q.jobKey(jobID))
	_, err := pipe.Exec(ctx)
	return err
}

// retryLater persists the updated attempt counter and parks the job in the
// delayed set until its backoff expires.
func (q *Queue) retryLater(ctx context.Context, jobID string, sj *storedJob, readyAt time.Time) error {
	data, err := json.Marshal(sj)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", jobID, err)
	}
	pipe := q.rdb.TxPipeline()
	pipe.Set(ctx, q.jobKey(jobID), data, 0)
	pipe.ZAdd(ctx, q.delayedKey(), redis.Z{Score: float64(readyAt.UnixMilli()), Member: jobID})
	pipe.LRem(ctx, q.activeKey(), 1, jobID)
	_, err = pipe.Exec(ctx)
	return err
}

// fail moves an exhausted job to the failed set and applies the bounded
// retention policy.
func (q *Queue) fail(ctx context.Context, jobID string, sj *storedJob, now time.Time) error {
	data, err := json.Marshal(sj)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", jobID, err)
	}
	pipe := q.rdb.TxPipeline()
	pipe.Set(ctx, q.jobKey(jobID), data, failedRetention)
	pipe.ZAdd(ctx, q.failedKey(), redis.Z{Score: float64(now.UnixMilli()), Member: jobID})
	pipe.LRem(ctx, q.activeKey(), 1, jobID)
	pipe.ZRemRangeByScore(ctx, q.failedKey(), "-inf", strconv.FormatInt(now.Add(-failedRetention).UnixMilli(), 10))
	pipe.ZRemRangeByRank(ctx, q.failedKey(), 0, int64(-failedMaxCount-1))
	_, err = pipe.Exec(ctx)
	return err
}

// promoteDelayed moves jobs whose backoff has expired back onto the ready
// list. The ZRem is the arbiter: several processes run a promotion loop
// against the same queue, and only the one that removes the member may push
// it, otherwise the id lands on the ready list once per promoter and gets
// claimed by that many consumers. Returns the number promoted.
func (q *Queue) promoteDelayed(ctx context.Context, now time.Time) (int, error) {
	due, err := q.rdb.ZRangeByScore(ctx, q.delayedKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}
	promoted := 0
	for _, id := range due {
		removed, err := q.rdb.ZRem(ctx, q.delayedKey(), id).Result()
		if err != nil {
			return promoted, err
		}
		if removed == 0 {
			// Another promoter won this id.
			continue
		}
		if err := q.rdb.LPush(ctx, q.readyKey(), id).Err(); err != nil {
			return promoted, err
		}
		promoted++
	}
	return promoted, nil
}

// publishEvent emits a job lifecycle event on the queue's pub/sub channel.
func (q *Queue) publishEvent(ctx context.Context, ev JobEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := q.rdb.Publish(ctx, q.eventsKey(), data).Err(); err != nil {
		q.logger.Debug().Err(err).Str("job_id", ev.JobID).Msg("failed to publish queue event")
	}
}
