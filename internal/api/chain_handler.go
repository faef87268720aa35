package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/chainfolio/txtracker/internal/api/shared"
	"github.com/chainfolio/txtracker/internal/domain"
	"github.com/chainfolio/txtracker/internal/platform/backend"
)

// ChainRegistry lists the chains the backend supports.
type ChainRegistry interface {
	All() []domain.ChainInfo
}

// EventStore runs filtered queries over decoded history events.
type EventStore interface {
	HistoryEvents(ctx context.Context, filter backend.EventFilter) (*domain.HistoryEventPage, error)
}

// ChainHandler handles chain metadata and history event HTTP requests
type ChainHandler struct {
	registry ChainRegistry
	events   EventStore
	logger   *slog.Logger
}

// NewChainHandler creates a new ChainHandler
func NewChainHandler(registry ChainRegistry, events EventStore, logger *slog.Logger) *ChainHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ChainHandler")
	}

	return &ChainHandler{
		registry: registry,
		events:   events,
		logger:   logger.With(slog.String("component", "chain_handler")),
	}
}

// ListChains handles GET /chains requests
func (h *ChainHandler) ListChains(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, ChainListResponse{Entries: h.registry.All()})
}

// QueryEvents handles POST /events/query requests.
// The filter body is forwarded to the backend unchanged.
func (h *ChainHandler) QueryEvents(w http.ResponseWriter, r *http.Request) {
	var filter backend.EventFilter
	if err := shared.DecodeJSON(r, &filter); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	page, err := h.events.HistoryEvents(r.Context(), filter)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, page)
}
