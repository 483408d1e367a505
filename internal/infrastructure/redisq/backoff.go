package redisq

import (
	"math"
	"math/rand"
	"time"
)

const (
	backoffFactor = 2.0
	backoffJitter = 0.2
	maxBackoff    = 15 * time.Minute
)

// nextDelay computes the exponential backoff before the given attempt is
// retried: base * 2^(attempt-1), with 20% jitter, capped at maxBackoff.
func nextDelay(baseMS int64, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := time.Duration(baseMS) * time.Millisecond

	delay := float64(base) * math.Pow(backoffFactor, float64(attempt-1))
	if delay > float64(maxBackoff) {
		delay = float64(maxBackoff)
	}

	jitterRange := delay * backoffJitter
	delay += (rand.Float64() * 2 * jitterRange) - jitterRange

	if delay < float64(base) {
		delay = float64(base)
	}
	if delay > float64(maxBackoff) {
		delay = float64(maxBackoff)
	}
	return time.Duration(delay)
}
