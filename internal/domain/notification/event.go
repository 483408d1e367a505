package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of notification being sent
type Type string

const (
	TypeChatMessage  Type = "CHAT_MESSAGE"
	TypeChatRead     Type = "CHAT_READ"
	TypeReportNearby Type = "REPORT_NEARBY"
	TypeReportStatus Type = "REPORT_STATUS"
)

// Priority represents the delivery priority
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

const (
	// DefaultTTLSeconds is how long a notification stays meaningful to deliver.
	DefaultTTLSeconds = 3600
	// ChatMessageTTLSeconds applies to high-priority chat messages.
	ChatMessageTTLSeconds = 7200
)

// Target holds addressing information for one recipient
type Target struct {
	AnonymousID string `json:"anonymousId,omitempty"`
	RoomID      string `json:"roomId,omitempty"`
}

// Delivery carries per-event delivery metadata
type Delivery struct {
	Priority   Priority `json:"priority"`
	TTLSeconds int      `json:"ttlSeconds"`
}

// Payload is the notification content shown to the recipient
type Payload struct {
	Title    string         `json:"title,omitempty"`
	Message  string         `json:"message,omitempty"`
	ReportID string         `json:"reportId,omitempty"`
	EntityID string         `json:"entityId,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// Event is the producer input for one notification. It is constructed per
// call and never persisted as-is; the queue stores an Envelope built from it.
type Event struct {
	Type      Type
	ID        string
	TraceID   string
	Target    Target
	Delivery  Delivery
	Payload   *Payload
	CreatedAt int64 // epoch ms
	Attempt   int
}

// NewChatMessageEvent builds a high-priority chat notification for one recipient.
func NewChatMessageEvent(recipientID, roomID, senderAlias, preview string) Event {
	return Event{
		Type:   TypeChatMessage,
		Target: Target{AnonymousID: recipientID, RoomID: roomID},
		Delivery: Delivery{
			Priority:   PriorityHigh,
			TTLSeconds: ChatMessageTTLSeconds,
		},
		Payload: &Payload{
			Title:    senderAlias,
			Message:  preview,
			EntityID: roomID,
		},
	}
}

// NewReportNearbyEvent builds a nearby-report alert for one recipient. The
// (reportID, recipientID) pair drives queue-level deduplication via JobID.
func NewReportNearbyEvent(recipientID, reportID, title, message string) Event {
	return Event{
		Type:   TypeReportNearby,
		Target: Target{AnonymousID: recipientID},
		Payload: &Payload{
			Title:    title,
			Message:  message,
			ReportID: reportID,
		},
	}
}

// NewChatReadEvent builds a read-receipt notification for the sender.
func NewChatReadEvent(recipientID, roomID, readerAlias string) Event {
	return Event{
		Type:   TypeChatRead,
		Target: Target{AnonymousID: recipientID, RoomID: roomID},
		Payload: &Payload{
			Message:  readerAlias,
			EntityID: roomID,
		},
	}
}

// NewReportStatusEvent builds a report status-change notification.
func NewReportStatusEvent(recipientID, reportID, title, message string) Event {
	return Event{
		Type:   TypeReportStatus,
		Target: Target{AnonymousID: recipientID},
		Payload: &Payload{
			Title:    title,
			Message:  message,
			ReportID: reportID,
		},
	}
}

// Validate checks the producer contract. An event missing its type or payload
// must never be enqueued.
func (e *Event) Validate() error {
	if e.Type == "" {
		return ErrMissingType
	}
	if e.Payload == nil {
		return ErrMissingPayload
	}
	return nil
}

// ApplyDefaults fills identifiers, delivery metadata and the creation
// timestamp for fields the caller left empty.
func (e *Event) ApplyDefaults(now time.Time) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.TraceID == "" {
		e.TraceID = uuid.NewString()
	}
	if e.Delivery.Priority == "" {
		e.Delivery.Priority = PriorityNormal
	}
	if e.Delivery.TTLSeconds <= 0 {
		e.Delivery.TTLSeconds = DefaultTTLSeconds
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = now.UnixMilli()
	}
}

// JobID computes the queue deduplication key. Nearby-report alerts collapse
// repeated triggers for the same (report, recipient) pair into one pending
// job; every other event type gets a fresh job per event id.
func (e *Event) JobID() string {
	if e.Type == TypeReportNearby && e.Payload != nil && e.Payload.ReportID != "" && e.Target.AnonymousID != "" {
		return "REP:" + e.Payload.ReportID + ":" + e.Target.AnonymousID
	}
	return e.ID
}
