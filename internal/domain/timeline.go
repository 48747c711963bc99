package domain

import "time"

// TimelineEventType represents the kind of a timeline event.
type TimelineEventType string

// Timeline event types.
const (
	EventTypeCreated      TimelineEventType = "created"
	EventTypeComment      TimelineEventType = "comment"
	EventTypeStatusChange TimelineEventType = "status_change"
)

// EventPayload is the type-tagged payload of a timeline event.
// Each event type has exactly one payload shape.
type EventPayload interface {
	EventType() TimelineEventType
}

// CreatedPayload marks incident creation.
type CreatedPayload struct {
	Text string `json:"text"`
}

// EventType implements EventPayload.
func (CreatedPayload) EventType() TimelineEventType { return EventTypeCreated }

// CommentPayload carries free-form comment text.
type CommentPayload struct {
	Text string `json:"text"`
}

// EventType implements EventPayload.
func (CommentPayload) EventType() TimelineEventType { return EventTypeComment }

// StatusChangePayload records a status transition.
type StatusChangePayload struct {
	Status IncidentStatus `json:"status"`
}

// EventType implements EventPayload.
func (StatusChangePayload) EventType() TimelineEventType { return EventTypeStatusChange }

// TimelineEvent is one entry in an incident's append-only activity ledger.
// Once written it is never mutated.
type TimelineEvent struct {
	ID         string            `json:"id"`
	IncidentID string            `json:"incidentId"`
	AuthorID   *string           `json:"authorId"`
	Type       TimelineEventType `json:"type"`
	Payload    EventPayload      `json:"payload"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// NewCreatedEvent builds the creation marker appended with every new incident.
func NewCreatedEvent(incidentID string, authorID *string) *TimelineEvent {
	return &TimelineEvent{
		IncidentID: incidentID,
		AuthorID:   authorID,
		Type:       EventTypeCreated,
		Payload:    CreatedPayload{Text: "Incident created"},
	}
}

// NewCommentEvent builds a comment ledger entry.
func NewCommentEvent(incidentID string, authorID *string, text string) *TimelineEvent {
	return &TimelineEvent{
		IncidentID: incidentID,
		AuthorID:   authorID,
		Type:       EventTypeComment,
		Payload:    CommentPayload{Text: text},
	}
}

// NewStatusChangeEvent builds a status transition ledger entry.
func NewStatusChangeEvent(incidentID string, status IncidentStatus) *TimelineEvent {
	return &TimelineEvent{
		IncidentID: incidentID,
		Type:       EventTypeStatusChange,
		Payload:    StatusChangePayload{Status: status},
	}
}
