package notification

import "errors"

var (
	ErrMissingType    = errors.New("notification event missing type")
	ErrMissingPayload = errors.New("notification event missing payload")

	// ErrEnqueueTimeout is returned when the queue backing store does not
	// acknowledge an enqueue within the circuit-breaker window.
	ErrEnqueueTimeout = errors.New("redis circuit breaker timeout")

	// ErrRetryable signals the queue's retry machinery to schedule another
	// delivery attempt.
	ErrRetryable = errors.New("retryable dispatch failure")
)

// Error codes attached to structured log entries.
const (
	CodeCircuitBreakerTimeout = "REDIS_CIRCUIT_BREAKER_TIMEOUT"
	CodeEnqueueFailed         = "ENQUEUE_FAILED"
	CodeInvalidEvent          = "INVALID_EVENT"
)

// ErrorCode classifies an enqueue-path error for logging.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEnqueueTimeout):
		return CodeCircuitBreakerTimeout
	case errors.Is(err, ErrMissingType), errors.Is(err, ErrMissingPayload):
		return CodeInvalidEvent
	default:
		return CodeEnqueueFailed
	}
}

// PermanentError marks dispatch failures that must not be retried.
type PermanentError struct {
	Err error
}

func (e PermanentError) Error() string {
	if e.Err == nil {
		return "permanent dispatch failure"
	}
	return e.Err.Error()
}

func (e PermanentError) Unwrap() error { return e.Err }

// MarkPermanent wraps err as a non-retryable dispatch failure.
func MarkPermanent(err error) error {
	if err == nil {
		return nil
	}
	return PermanentError{Err: err}
}

// IsPermanent reports whether err is marked as non-retryable.
func IsPermanent(err error) bool {
	var p PermanentError
	return errors.As(err, &p)
}
