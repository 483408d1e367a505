package notification

import "context"

// DeliveryStatus is the ledger-visible state of one event.
type DeliveryStatus string

const (
	StatusDispatched DeliveryStatus = "dispatched"
	StatusDelivered  DeliveryStatus = "delivered"
)

// DeliveryRecord tracks dispatch and delivery of one event. Records expire
// one hour after their last write; there is no explicit delete path.
type DeliveryRecord struct {
	Status       DeliveryStatus `json:"status"`
	Channel      string         `json:"channel,omitempty"`
	DispatchedAt int64          `json:"dispatchedAt,omitempty"`
	DeliveredAt  int64          `json:"deliveredAt,omitempty"`
}

// Ledger records delivery state per event id. It is an observability aid,
// not a correctness-critical store: every operation is best-effort and
// absorbs backing-store failures instead of raising them.
type Ledger interface {
	MarkDispatched(ctx context.Context, eventID, channel string)
	MarkDelivered(ctx context.Context, eventID string)
	Status(ctx context.Context, eventID string) *DeliveryRecord
	IsDelivered(ctx context.Context, eventID string) bool
}
