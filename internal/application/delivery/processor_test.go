package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Tuwebai/safespot-sub004/internal/domain/notification"
	"github.com/Tuwebai/safespot-sub004/internal/domain/notification/mocks"
)

func testEnvelope() *notification.Envelope {
	ev := notification.NewChatMessageEvent("u2", "room-1", "Blue Fox", "hi")
	ev.ID = "e1"
	ev.TraceID = "t1"
	return ev.Envelope()
}

func TestProcessor_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("success completes the job", func(t *testing.T) {
		dispatcher := new(mocks.MockDispatcher)
		dispatcher.On("Dispatch", ctx, mock.Anything).
			Return(notification.ResultSuccess, nil)

		p := NewProcessor(dispatcher, zerolog.Nop())
		require.NoError(t, p.Handle(ctx, testEnvelope()))
	})

	t.Run("permanent result completes without retry", func(t *testing.T) {
		dispatcher := new(mocks.MockDispatcher)
		dispatcher.On("Dispatch", ctx, mock.Anything).
			Return(notification.ResultPermanent, nil)

		p := NewProcessor(dispatcher, zerolog.Nop())
		require.NoError(t, p.Handle(ctx, testEnvelope()))
	})

	t.Run("retryable result requests another attempt", func(t *testing.T) {
		dispatcher := new(mocks.MockDispatcher)
		dispatcher.On("Dispatch", ctx, mock.Anything).
			Return(notification.ResultRetryable, nil)

		p := NewProcessor(dispatcher, zerolog.Nop())
		err := p.Handle(ctx, testEnvelope())
		assert.ErrorIs(t, err, notification.ErrRetryable)
	})

	t.Run("permanent error is absorbed", func(t *testing.T) {
		dispatcher := new(mocks.MockDispatcher)
		dispatcher.On("Dispatch", ctx, mock.Anything).
			Return(notification.ResultPermanent, notification.MarkPermanent(errors.New("bad payload")))

		p := NewProcessor(dispatcher, zerolog.Nop())
		require.NoError(t, p.Handle(ctx, testEnvelope()))
	})

	t.Run("transient error propagates for retry", func(t *testing.T) {
		dispatcher := new(mocks.MockDispatcher)
		boom := errors.New("rule eval failed")
		dispatcher.On("Dispatch", ctx, mock.Anything).
			Return(notification.ResultRetryable, boom)

		p := NewProcessor(dispatcher, zerolog.Nop())
		assert.ErrorIs(t, p.Handle(ctx, testEnvelope()), boom)
	})
}
