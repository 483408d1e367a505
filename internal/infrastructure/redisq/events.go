package redisq

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Job lifecycle event names published on the queue's pub/sub channel.
const (
	EventCompleted = "completed"
	EventRetry     = "retry"
	EventFailed    = "failed"
)

// JobEvent is one job lifecycle transition observed by the worker.
type JobEvent struct {
	Event   string `json:"event"`
	JobID   string `json:"jobId"`
	EventID string `json:"eventId"`
	TraceID string `json:"traceId"`
	Type    string `json:"type"`
	Attempt int    `json:"attempt"`
	Error   string `json:"error,omitempty"`
	At      int64  `json:"at"`
}

// Events subscribes to a queue's job lifecycle channel.
type Events struct {
	channel string
	rdb     *redis.Client
}

// NewEvents creates a subscription handle for the named queue.
func NewEvents(queueName string, rdb *redis.Client) *Events {
	return &Events{
		channel: "queue:" + queueName + ":events",
		rdb:     rdb,
	}
}

// Subscribe returns a channel of lifecycle events plus a close function.
// Messages that fail to decode are dropped.
func (e *Events) Subscribe(ctx context.Context) (<-chan JobEvent, func() error) {
	pubsub := e.rdb.Subscribe(ctx, e.channel)
	out := make(chan JobEvent, 64)

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var ev JobEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, pubsub.Close
}
