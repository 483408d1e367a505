package notification

import "context"

// Queue is the durable job queue the producer submits to.
type Queue interface {
	// Add submits a job. Submissions sharing a job id are idempotent: the
	// second Add is a no-op against the existing pending job.
	Add(ctx context.Context, env *Envelope, opts Options) (*Job, error)
}
