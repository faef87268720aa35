package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type classifies an event.
type Type string

// Event types emitted by the sync pipeline.
const (
	// TypeStatusChanged signals a refresh pipeline status transition.
	TypeStatusChanged Type = "status_changed"

	// TypeNotification signals a user-facing notification, usually an error
	// forwarded from a failed sync or decode operation.
	TypeNotification Type = "notification"
)

// Event is one occurrence published on the in-process channel. It carries
// the type-specific data as JSON so handlers and the pipeline do not share
// concrete payload types.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type classifies the payload
	Type Type `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event of the given type with the payload serialized
// to JSON.
func NewEvent(eventType Type, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the pipeline to publish events without direct knowledge of
// handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}
