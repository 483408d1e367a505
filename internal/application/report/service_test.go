package report

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
)

type scriptedProducer struct {
	failFor map[string]error
	nilFor  map[string]bool
	calls   []notification.Event
}

func (p *scriptedProducer) Enqueue(_ context.Context, event notification.Event) (*notification.Job, error) {
	p.calls = append(p.calls, event)
	if err, ok := p.failFor[event.Target.AnonymousID]; ok {
		return nil, err
	}
	if p.nilFor[event.Target.AnonymousID] {
		return nil, nil
	}
	return &notification.Job{ID: event.JobID()}, nil
}

func TestService_AlertNearby(t *testing.T) {
	ctx := context.Background()

	t.Run("enqueues one alert per recipient", func(t *testing.T) {
		producer := &scriptedProducer{}
		svc := NewService(producer, zerolog.Nop())

		res := svc.AlertNearby(ctx, "rep-1", "Nearby report", "details", []string{"u1", "u2", "u3"})

		assert.Equal(t, FanOutResult{Enqueued: 3}, res)
		require.Len(t, producer.calls, 3)
		for i, id := range []string{"u1", "u2", "u3"} {
			ev := producer.calls[i]
			assert.Equal(t, notification.TypeReportNearby, ev.Type)
			assert.Equal(t, id, ev.Target.AnonymousID)
			assert.Equal(t, "rep-1", ev.Payload.ReportID)
		}
	})

	t.Run("one failing recipient never blocks the rest", func(t *testing.T) {
		producer := &scriptedProducer{
			failFor: map[string]error{"u2": notification.ErrEnqueueTimeout},
		}
		svc := NewService(producer, zerolog.Nop())

		res := svc.AlertNearby(ctx, "rep-1", "Nearby report", "details", []string{"u1", "u2", "u3"})

		assert.Equal(t, FanOutResult{Enqueued: 2, Failed: 1}, res)
		assert.Len(t, producer.calls, 3)
	})

	t.Run("contract-rejected events count as skipped", func(t *testing.T) {
		producer := &scriptedProducer{nilFor: map[string]bool{"u1": true}}
		svc := NewService(producer, zerolog.Nop())

		res := svc.AlertNearby(ctx, "rep-1", "Nearby report", "details", []string{"u1", "u2"})

		assert.Equal(t, FanOutResult{Enqueued: 1, Skipped: 1}, res)
	})

	t.Run("empty recipient list is a no-op", func(t *testing.T) {
		producer := &scriptedProducer{}
		svc := NewService(producer, zerolog.Nop())

		res := svc.AlertNearby(ctx, "rep-1", "Nearby report", "details", nil)
		assert.Equal(t, FanOutResult{}, res)
		assert.Empty(t, producer.calls)
	})
}
