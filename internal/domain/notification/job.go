package notification

// EnvelopeVersion tags the persisted job payload wire shape.
const EnvelopeVersion = "v1"

// Default job options attached at submission time.
const (
	DefaultMaxAttempts    = 5
	DefaultBackoffDelayMS = 60_000
	BackoffExponential    = "exponential"
)

// Envelope is the queue-internal persisted unit consumed by any worker
// implementation.
type Envelope struct {
	Version   string   `json:"version"`
	ID        string   `json:"id"`
	TraceID   string   `json:"traceId"`
	Type      Type     `json:"type"`
	Target    Target   `json:"target"`
	Delivery  Delivery `json:"delivery"`
	Payload   *Payload `json:"payload"`
	CreatedAt int64    `json:"createdAt"`
	Attempt   int      `json:"attempt"`
}

// Envelope builds the persisted job payload for an event. Defaults must have
// been applied first.
func (e *Event) Envelope() *Envelope {
	return &Envelope{
		Version:   EnvelopeVersion,
		ID:        e.ID,
		TraceID:   e.TraceID,
		Type:      e.Type,
		Target:    e.Target,
		Delivery:  e.Delivery,
		Payload:   e.Payload,
		CreatedAt: e.CreatedAt,
		Attempt:   0,
	}
}

// Backoff describes the retry delay policy for a job.
type Backoff struct {
	Type    string `json:"type"`
	DelayMS int64  `json:"delay"`
}

// Options are the submission options attached to a job.
type Options struct {
	JobID    string  `json:"jobId"`
	Attempts int     `json:"attempts"`
	Backoff  Backoff `json:"backoff"`
}

// DefaultOptions returns the standard retry budget: 5 attempts, exponential
// backoff starting at 60s.
func DefaultOptions(jobID string) Options {
	return Options{
		JobID:    jobID,
		Attempts: DefaultMaxAttempts,
		Backoff: Backoff{
			Type:    BackoffExponential,
			DelayMS: DefaultBackoffDelayMS,
		},
	}
}

// Job is the producer-visible handle for a submitted job.
type Job struct {
	ID       string
	Envelope *Envelope
	Options  Options
	// Deduplicated is true when the submission collapsed into an already
	// pending job with the same id.
	Deduplicated bool
}
