package notification

import "context"

// Result classifies the outcome of one delivery attempt.
type Result int

const (
	ResultSuccess Result = iota
	ResultRetryable
	ResultPermanent
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultRetryable:
		return "retryable"
	case ResultPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Dispatcher performs the actual delivery attempt for a queued notification
// and classifies the outcome.
type Dispatcher interface {
	Dispatch(ctx context.Context, env *Envelope) (Result, error)
}
