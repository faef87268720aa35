package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chainfolio/txtracker/internal/chains"
	"github.com/chainfolio/txtracker/internal/config"
	"github.com/chainfolio/txtracker/internal/events"
	"github.com/chainfolio/txtracker/internal/notify"
	"github.com/chainfolio/txtracker/internal/platform/backend"
	syncer "github.com/chainfolio/txtracker/internal/sync"
	"github.com/chainfolio/txtracker/internal/task"
)

// notificationCapacity bounds the in-memory notification list.
const notificationCapacity = 200

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger

	// Backend access
	client  *backend.Client
	awaiter *task.Awaiter

	// Chain metadata
	chainService *chains.Service

	// Event system
	eventEmitter events.EventEmitter

	// Notification sink
	notificationCenter *notify.Center

	// Refresh pipeline
	orchestrator *syncer.Orchestrator

	// Websocket consumer; nil when no websocket URL is configured
	wsConsumer *backend.MessageConsumer
	wsCancel   context.CancelFunc
}

// newApplication creates a new application instance with all dependencies
// initialized.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	app.client = backend.NewClient(cfg.Backend, logger)
	app.awaiter = task.NewAwaiter(app.client, cfg.Sync.PollInterval, logger)

	app.chainService = chains.NewService(app.client, logger)
	if err := app.chainService.Load(ctx); err != nil {
		// The service keeps serving its static table; a later refresh
		// against a healthy backend is not affected.
		logger.Warn("failed to load chain metadata, using static table", "error", err)
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.notificationCenter = notify.NewCenter(notificationCapacity, logger)

	// Internal events (status changes, pipeline failures) flow into the
	// notification center alongside backend push messages.
	if emitter, ok := app.eventEmitter.(*events.InMemoryEventEmitter); ok {
		emitter.RegisterHandler(app.notificationCenter)
	} else {
		return nil, fmt.Errorf("unexpected event emitter type, cannot register notification center")
	}

	queue := syncer.NewRedecodeQueue(cfg.Sync.RedecodeWorkers, logger)
	app.orchestrator = syncer.NewOrchestrator(
		app.client,
		app.awaiter,
		app.chainService,
		queue,
		app.eventEmitter,
		syncer.Config{
			ChunkSize:         cfg.Sync.ChunkSize,
			QueryOnlineEvents: cfg.Sync.QueryOnlineEvents,
		},
		logger,
	)

	if cfg.Backend.WebsocketURL != "" {
		app.wsConsumer = backend.NewMessageConsumer(
			cfg.Backend.WebsocketURL,
			app.notificationCenter.HandleBackendMessage,
			logger,
		)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the websocket consumer and the HTTP server, handling
// lifecycle and cleanup. It returns when the server shuts down.
func (app *application) Run(ctx context.Context) error {
	if app.wsConsumer != nil {
		wsCtx, cancel := context.WithCancel(ctx)
		app.wsCancel = cancel
		go func() {
			if err := app.wsConsumer.Run(wsCtx); err != nil && wsCtx.Err() == nil {
				app.logger.Error("websocket consumer stopped", "error", err)
			}
		}()
	}

	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.wsCancel != nil {
		app.wsCancel()
	}

	app.logger.Info("Application shutdown completed")
}
