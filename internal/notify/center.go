package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chainfolio/txtracker/internal/events"
	"github.com/chainfolio/txtracker/internal/platform/backend"
	"github.com/chainfolio/txtracker/internal/redact"
)

// ErrNotificationNotFound indicates a dismiss request for an unknown id.
var ErrNotificationNotFound = errors.New("notification not found")

// defaultCapacity bounds the notification history when no capacity is given.
const defaultCapacity = 200

// Center stores notifications and feeds them from the event channel and the
// backend websocket stream.
type Center struct {
	mu            sync.RWMutex
	notifications []Notification
	capacity      int
	logger        *slog.Logger
}

// NewCenter creates a notification center holding at most capacity entries.
// The oldest entries are evicted first.
func NewCenter(capacity int, logger *slog.Logger) *Center {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for notify Center")
	}
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	return &Center{
		capacity: capacity,
		logger:   logger.With(slog.String("component", "notification_center")),
	}
}

// Notify appends a notification and returns it.
func (c *Center) Notify(title, message string, severity Severity) Notification {
	n := Notification{
		ID:        uuid.New(),
		Title:     title,
		Message:   redact.String(message),
		Severity:  severity,
		CreatedAt: time.Now(),
	}

	c.mu.Lock()
	c.notifications = append(c.notifications, n)
	if len(c.notifications) > c.capacity {
		c.notifications = c.notifications[len(c.notifications)-c.capacity:]
	}
	c.mu.Unlock()

	c.logger.Debug("notification stored",
		"notification_id", n.ID,
		"severity", n.Severity,
		"title", n.Title)
	return n
}

// List returns notifications newest first.
func (c *Center) List() []Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Notification, len(c.notifications))
	for i, n := range c.notifications {
		out[len(c.notifications)-1-i] = n
	}
	return out
}

// Dismiss removes a notification by id.
func (c *Center) Dismiss(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, n := range c.notifications {
		if n.ID == id {
			c.notifications = append(c.notifications[:i], c.notifications[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotificationNotFound, id)
}

// HandleEvent stores notification events from the in-process channel.
// Status change events are not notifications and pass through untouched.
func (c *Center) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeNotification {
		return nil
	}

	var payload Payload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to unmarshal notification payload: %w", err)
	}
	if payload.Severity == "" {
		payload.Severity = SeverityError
	}

	c.Notify(payload.Title, payload.Message, payload.Severity)
	return nil
}

// HandleBackendMessage converts backend websocket messages into
// notifications. Progress-style messages are logged but not stored.
func (c *Center) HandleBackendMessage(ctx context.Context, msg backend.Message) {
	switch msg.Type {
	case backend.MessageTypeLegacy:
		var data struct {
			Verbosity string `json:"verbosity"`
			Value     string `json:"value"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.logger.Warn("malformed legacy backend message", "error", err)
			return
		}
		severity := SeverityInfo
		switch data.Verbosity {
		case "warning":
			severity = SeverityWarning
		case "error":
			severity = SeverityError
		}
		c.Notify("Backend message", data.Value, severity)

	case backend.MessageTypeDatabaseUploadResult:
		var data struct {
			Uploaded bool   `json:"uploaded"`
			Message  string `json:"message"`
		}
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.logger.Warn("malformed database upload message", "error", err)
			return
		}
		if !data.Uploaded {
			c.Notify("Database sync failed", data.Message, SeverityWarning)
		}

	case backend.MessageTypeHistoryEventsStatus, backend.MessageTypeProgressUpdates,
		backend.MessageTypeUndecodedTxs:
		// Progress chatter; useful in logs, noise as notifications.
		c.logger.Debug("backend progress message", "message_type", msg.Type)

	default:
		c.logger.Debug("unhandled backend message type", "message_type", msg.Type)
	}
}

// Ensure Center implements events.EventHandler
var _ events.EventHandler = (*Center)(nil)
