package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/chainfolio/txtracker/internal/api/shared"
	"github.com/chainfolio/txtracker/internal/domain"
	"github.com/chainfolio/txtracker/internal/platform/logger"
	syncer "github.com/chainfolio/txtracker/internal/sync"
)

// SyncService is the slice of the refresh pipeline the handlers drive.
type SyncService interface {
	StartRefresh(ctx context.Context, accounts []domain.Account) error
	Status() syncer.Status
	LastRefresh() map[string]time.Time
	RedecodeByHashes(ctx context.Context, chain string, txHashes []string) error
	AddTransactionByHash(ctx context.Context, chain, txHash, associatedAddress string) error
}

// SyncHandler handles refresh and transaction HTTP requests
type SyncHandler struct {
	service SyncService
	logger  *slog.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(service SyncService, logger *slog.Logger) *SyncHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SyncHandler")
	}

	return &SyncHandler{
		service: service,
		logger:  logger.With(slog.String("component", "sync_handler")),
	}
}

// TriggerRefresh handles POST /refresh requests.
// It starts a background refresh of the submitted accounts and returns
// immediately; progress surfaces through the status endpoint and the
// notification list.
func (h *SyncHandler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RefreshRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Debug("invalid refresh request body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	if err := h.service.StartRefresh(r.Context(), req.Accounts); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("refresh accepted", slog.Int("account_count", len(req.Accounts)))
	w.WriteHeader(http.StatusAccepted)
}

// GetStatus handles GET /status requests
func (h *SyncHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{
		Status:      string(h.service.Status()),
		LastRefresh: h.service.LastRefresh(),
	})
}

// AddTransaction handles PUT /transactions requests.
// It blocks until the backend has fetched and decoded the transaction.
func (h *SyncHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req AddTransactionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	log.Debug("adding transaction by hash", slog.String("chain", req.Chain))

	err := h.service.AddTransactionByHash(r.Context(), req.Chain, req.TxHash, req.AssociatedAddress)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]bool{"added": true})
}

// RedecodeTransactions handles POST /transactions/redecode requests.
// It blocks until the backend has re-decoded the given transactions.
func (h *SyncHandler) RedecodeTransactions(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RedecodeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	log.Debug("redecoding transactions",
		slog.String("chain", req.Chain),
		slog.Int("tx_count", len(req.TxHashes)))

	if err := h.service.RedecodeByHashes(r.Context(), req.Chain, req.TxHashes); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
