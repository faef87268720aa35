package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"  validate:"required"`
	Backend BackendConfig `mapstructure:"backend" validate:"required"`
	Sync    SyncConfig    `mapstructure:"sync"    validate:"required"`
}

// ServerConfig contains settings for the local view-state API server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// BackendConfig contains settings for reaching the portfolio backend.
type BackendConfig struct {
	// URL is the base URL of the backend REST API, e.g. http://localhost:4242/api/1
	URL string `mapstructure:"url" validate:"required,url"`

	// Timeout applies to individual backend HTTP requests, not to task polling.
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`

	// WebsocketURL is the backend's push-message endpoint. Empty disables the
	// websocket consumer.
	WebsocketURL string `mapstructure:"websocket_url" validate:"omitempty,url"`
}

// SyncConfig contains settings for the refresh pipeline.
type SyncConfig struct {
	// ChunkSize is how many accounts are synced in parallel per group.
	ChunkSize int `mapstructure:"chunk_size" validate:"required,gt=0"`

	// RedecodeWorkers caps how many redecode keys may run concurrently.
	RedecodeWorkers int `mapstructure:"redecode_workers" validate:"required,gt=0"`

	// PollInterval is the delay between backend task status polls.
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"required"`

	// QueryOnlineEvents gates the withdrawal/block-production/exchange event
	// queries that run alongside a transaction refresh.
	QueryOnlineEvents bool `mapstructure:"query_online_events"`
}
