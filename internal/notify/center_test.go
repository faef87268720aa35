package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainfolio/txtracker/internal/events"
	"github.com/chainfolio/txtracker/internal/platform/backend"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyAndList(t *testing.T) {
	center := NewCenter(10, testLogger())

	center.Notify("first", "message one", SeverityInfo)
	center.Notify("second", "message two", SeverityError)

	list := center.List()
	require.Len(t, list, 2)
	// Newest first
	assert.Equal(t, "second", list[0].Title)
	assert.Equal(t, "first", list[1].Title)
}

func TestNotifyEvictsOldest(t *testing.T) {
	center := NewCenter(3, testLogger())

	for _, title := range []string{"a", "b", "c", "d"} {
		center.Notify(title, "", SeverityInfo)
	}

	list := center.List()
	require.Len(t, list, 3)
	assert.Equal(t, "d", list[0].Title)
	assert.Equal(t, "b", list[2].Title)
}

func TestNotifyRedactsAddresses(t *testing.T) {
	center := NewCenter(10, testLogger())

	n := center.Notify("sync failed",
		"could not sync 0x48ac67dC110BC42FC2D01a68b8E52FD04A5e87AF on ethereum",
		SeverityError)

	assert.NotContains(t, n.Message, "0x48ac67dC110BC42FC2D01a68b8E52FD04A5e87AF")
	assert.Contains(t, n.Message, "0x48ac…87AF")
}

func TestDismiss(t *testing.T) {
	center := NewCenter(10, testLogger())
	n := center.Notify("dismiss me", "", SeverityInfo)

	require.NoError(t, center.Dismiss(n.ID))
	assert.Empty(t, center.List())

	err := center.Dismiss(uuid.New())
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestHandleEventStoresNotifications(t *testing.T) {
	center := NewCenter(10, testLogger())

	event, err := events.NewEvent(events.TypeNotification, Payload{
		Title:    "decode failed",
		Message:  "redecode task 9 failed",
		Severity: SeverityError,
	})
	require.NoError(t, err)

	require.NoError(t, center.HandleEvent(context.Background(), event))

	list := center.List()
	require.Len(t, list, 1)
	assert.Equal(t, "decode failed", list[0].Title)
	assert.Equal(t, SeverityError, list[0].Severity)
}

func TestHandleEventIgnoresStatusChanges(t *testing.T) {
	center := NewCenter(10, testLogger())

	event, err := events.NewEvent(events.TypeStatusChanged, map[string]string{"status": "decoding"})
	require.NoError(t, err)

	require.NoError(t, center.HandleEvent(context.Background(), event))
	assert.Empty(t, center.List())
}

func TestHandleBackendMessage(t *testing.T) {
	tests := []struct {
		name         string
		msg          backend.Message
		wantStored   int
		wantSeverity Severity
	}{
		{
			name: "legacy error message",
			msg: backend.Message{
				Type: backend.MessageTypeLegacy,
				Data: []byte(`{"verbosity": "error", "value": "etherscan rate limited"}`),
			},
			wantStored:   1,
			wantSeverity: SeverityError,
		},
		{
			name: "legacy warning message",
			msg: backend.Message{
				Type: backend.MessageTypeLegacy,
				Data: []byte(`{"verbosity": "warning", "value": "slow response"}`),
			},
			wantStored:   1,
			wantSeverity: SeverityWarning,
		},
		{
			name: "failed database upload",
			msg: backend.Message{
				Type: backend.MessageTypeDatabaseUploadResult,
				Data: []byte(`{"uploaded": false, "message": "quota exceeded"}`),
			},
			wantStored:   1,
			wantSeverity: SeverityWarning,
		},
		{
			name: "successful database upload is silent",
			msg: backend.Message{
				Type: backend.MessageTypeDatabaseUploadResult,
				Data: []byte(`{"uploaded": true, "message": ""}`),
			},
			wantStored: 0,
		},
		{
			name: "progress messages are not stored",
			msg: backend.Message{
				Type: backend.MessageTypeHistoryEventsStatus,
				Data: []byte(`{"status": "querying_transactions_started"}`),
			},
			wantStored: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			center := NewCenter(10, testLogger())

			center.HandleBackendMessage(context.Background(), tt.msg)

			list := center.List()
			require.Len(t, list, tt.wantStored)
			if tt.wantStored > 0 {
				assert.Equal(t, tt.wantSeverity, list[0].Severity)
			}
		})
	}
}
