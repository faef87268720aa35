package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chainfolio/txtracker/internal/api/shared"
	"github.com/chainfolio/txtracker/internal/notify"
	"github.com/chainfolio/txtracker/internal/platform/logger"
)

// NotificationStore is the notification list the handler reads and prunes.
type NotificationStore interface {
	List() []notify.Notification
	Dismiss(id uuid.UUID) error
}

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	store  NotificationStore
	logger *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(store NotificationStore, logger *slog.Logger) *NotificationHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for NotificationHandler")
	}

	return &NotificationHandler{
		store:  store,
		logger: logger.With(slog.String("component", "notification_handler")),
	}
}

// ListNotifications handles GET /notifications requests
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	entries := h.store.List()
	if entries == nil {
		entries = []notify.Notification{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NotificationListResponse{Entries: entries})
}

// DismissNotification handles DELETE /notifications/{id} requests
func (h *NotificationHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	if err := h.store.Dismiss(id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("notification dismissed", slog.String("notification_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
