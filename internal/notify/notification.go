package notify

import (
	"time"

	"github.com/google/uuid"
)

// Severity grades how urgently a notification needs the user's attention.
type Severity string

// Notification severities.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is one entry in the user-facing notification list.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

// Payload is the wire shape of notification events on the in-process
// event channel.
type Payload struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}
