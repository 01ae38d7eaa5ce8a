package events

import "time"

// Event is the contract for everything published on the bus.
type Event interface {
	// EventType returns the unique code for this event (e.g. "INTERVIEW_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is a generic implementation for ad-hoc events.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event codes published by the services.
const (
	TypeInterviewCompleted = "INTERVIEW_COMPLETED"
	TypeDocumentShared     = "DOCUMENT_SHARED"
	TypePlaybookReady      = "PLAYBOOK_READY"
	TypePlaybookFailed     = "PLAYBOOK_FAILED"
)

// NewNotification builds a user-addressed event. The user id is carried in
// the payload so the websocket layer can route it.
func NewNotification(eventType, userId, message string, extra map[string]interface{}) BaseEvent {
	data := map[string]interface{}{
		"user_id": userId,
		"message": message,
	}
	for k, v := range extra {
		data[k] = v
	}
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}
