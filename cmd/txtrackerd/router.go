package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chainfolio/txtracker/internal/api"
	apiMiddleware "github.com/chainfolio/txtracker/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	// Create API handlers using the application's services
	syncHandler := api.NewSyncHandler(app.orchestrator, app.logger)
	notificationHandler := api.NewNotificationHandler(app.notificationCenter, app.logger)
	chainHandler := api.NewChainHandler(app.chainService, app.client, app.logger)

	// Register routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/refresh", syncHandler.TriggerRefresh)
		r.Get("/status", syncHandler.GetStatus)

		r.Put("/transactions", syncHandler.AddTransaction)
		r.Post("/transactions/redecode", syncHandler.RedecodeTransactions)

		r.Get("/notifications", notificationHandler.ListNotifications)
		r.Delete("/notifications/{id}", notificationHandler.DismissNotification)

		r.Get("/chains", chainHandler.ListChains)
		r.Post("/events/query", chainHandler.QueryEvents)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
