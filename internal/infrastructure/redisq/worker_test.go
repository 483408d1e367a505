package redisq

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	boom := errors.New("dispatch failed")

	t.Run("nil error completes regardless of attempt", func(t *testing.T) {
		assert.Equal(t, outcomeComplete, decide(nil, 1, 5))
		assert.Equal(t, outcomeComplete, decide(nil, 5, 5))
	})

	t.Run("error with budget left schedules a retry", func(t *testing.T) {
		assert.Equal(t, outcomeRetry, decide(boom, 1, 5))
		assert.Equal(t, outcomeRetry, decide(boom, 4, 5))
	})

	t.Run("error on the final attempt exhausts the job", func(t *testing.T) {
		assert.Equal(t, outcomeExhausted, decide(boom, 5, 5))
		assert.Equal(t, outcomeExhausted, decide(boom, 6, 5))
	})

	t.Run("single-attempt budget never retries", func(t *testing.T) {
		assert.Equal(t, outcomeExhausted, decide(boom, 1, 1))
	})
}

func TestWorkerOptions_Defaults(t *testing.T) {
	opts := WorkerOptions{}.withDefaults()
	assert.Equal(t, 2, opts.Concurrency)
	assert.Equal(t, 5, opts.RatePerSecond)

	custom := WorkerOptions{Concurrency: 8, RatePerSecond: 20}.withDefaults()
	assert.Equal(t, 8, custom.Concurrency)
	assert.Equal(t, 20, custom.RatePerSecond)
}
