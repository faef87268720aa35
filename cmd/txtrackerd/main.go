// Package main implements the entry point for the txtracker daemon,
// which keeps a local view of tracked EVM accounts in sync with the
// portfolio backend and serves that view over a local HTTP API.
package main

import (
	"context"
	"log"

	"github.com/chainfolio/txtracker/internal/config"
	"github.com/chainfolio/txtracker/internal/platform/logger"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"backend_url", cfg.Backend.URL,
		"chunk_size", cfg.Sync.ChunkSize,
		"query_online_events", cfg.Sync.QueryOnlineEvents)

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
