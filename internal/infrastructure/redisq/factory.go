package redisq

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Factory owns the one shared Redis connection used by every queue, worker
// and event stream for the lifetime of the process.
type Factory struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewFactory parses the connection URL (a rediss scheme enables TLS) and
// builds the shared client. Client-side retry is disabled: the queue's own
// retry and backoff layer is authoritative.
func NewFactory(redisURL string, logger zerolog.Logger) (*Factory, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	opt.MaxRetries = -1

	return &Factory{
		client: redis.NewClient(opt),
		logger: logger,
	}, nil
}

// Client exposes the shared connection for collaborators that need the raw
// handle (e.g. the delivery ledger).
func (f *Factory) Client() *redis.Client {
	return f.client
}

// Queue returns a durable job queue bound to the shared connection.
func (f *Factory) Queue(name string) *Queue {
	return NewQueue(name, f.client, f.logger)
}

// Worker returns a consumer bound to the shared connection.
func (f *Factory) Worker(name string, proc Processor, opts WorkerOptions) *Worker {
	return NewWorker(f.Queue(name), proc, opts, f.logger)
}

// Events returns a subscription over the queue's job lifecycle events.
func (f *Factory) Events(name string) *Events {
	return NewEvents(name, f.client)
}

// Close releases the shared connection.
func (f *Factory) Close() error {
	return f.client.Close()
}
