package backend

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chainfolio/txtracker/internal/redact"
)

// Message is one push notification from the backend websocket stream.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Well-known websocket message types forwarded by the backend.
const (
	MessageTypeLegacy               = "legacy"
	MessageTypeProgressUpdates      = "progress_updates"
	MessageTypeHistoryEventsStatus  = "history_events_status"
	MessageTypeUndecodedTxs         = "evm_undecoded_transactions"
	MessageTypeDatabaseUploadResult = "database_upload_result"
)

// MessageHandler consumes one backend push message.
type MessageHandler func(ctx context.Context, msg Message)

// MessageConsumer maintains a websocket connection to the backend and
// forwards every message to its handler. Connection loss triggers
// reconnection with capped exponential backoff.
type MessageConsumer struct {
	url     string
	handler MessageHandler
	logger  *slog.Logger
	dialer  *websocket.Dialer

	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewMessageConsumer creates a consumer for the backend message stream.
func NewMessageConsumer(url string, handler MessageHandler, logger *slog.Logger) *MessageConsumer {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for MessageConsumer")
	}

	return &MessageConsumer{
		url:            url,
		handler:        handler,
		logger:         logger.With(slog.String("component", "backend_ws_consumer")),
		dialer:         websocket.DefaultDialer,
		initialBackoff: time.Second,
		maxBackoff:     30 * time.Second,
	}
}

// Run consumes messages until ctx is cancelled. It only returns the context
// error; connection failures are logged and retried.
func (c *MessageConsumer) Run(ctx context.Context) error {
	backoff := c.initialBackoff

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			c.logger.Warn("websocket dial failed, retrying",
				"url", redact.String(c.url),
				"backoff", backoff.String(),
				"error", redact.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, c.maxBackoff)
			continue
		}

		backoff = c.initialBackoff
		c.logger.Info("websocket connected", "url", redact.String(c.url))
		c.readLoop(ctx, conn)
	}
}

// readLoop reads messages until the connection breaks or ctx is cancelled.
func (c *MessageConsumer) readLoop(ctx context.Context, conn *websocket.Conn) {
	// Unblock ReadJSON when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			if err := conn.Close(); err != nil {
				c.logger.Debug("websocket close failed", "error", err)
			}
		case <-done:
			if err := conn.Close(); err != nil {
				c.logger.Debug("websocket close failed", "error", err)
			}
		}
	}()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("websocket read failed, reconnecting", "error", redact.Error(err))
			}
			return
		}

		if msg.Type == "" {
			c.logger.Debug("ignoring websocket message without type")
			continue
		}

		c.handler(ctx, msg)
	}
}
