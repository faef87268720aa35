package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// txtracker.yaml in the working directory. Environment variables take
// precedence over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("backend.url", "http://localhost:4242/api/1")
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("backend.websocket_url", "")
	v.SetDefault("sync.chunk_size", 4)
	v.SetDefault("sync.redecode_workers", 3)
	v.SetDefault("sync.poll_interval", 2*time.Second)
	v.SetDefault("sync.query_online_events", true)

	// Optional config file
	v.SetConfigName("txtracker")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars and defaults apply.
	}

	// Environment variables: TXTRACKER_SERVER_PORT, TXTRACKER_BACKEND_URL, ...
	v.SetEnvPrefix("TXTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
