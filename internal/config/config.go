// Package config loads server configuration from the environment.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all server settings.
type Config struct {
	// Listeners
	TelnetAddr string `envconfig:"TELNET_ADDR" default:":2323"`
	HTTPAddr   string `envconfig:"HTTP_ADDR" default:":8080"`

	// Storage
	DBPath string `envconfig:"DB_PATH" default:"data/connections.db"`
	LogDir string `envconfig:"LOG_DIR" default:"data/transcripts"`

	// Session behavior
	Prompt     string `envconfig:"PROMPT" default:"> "`
	MaxLine    int    `envconfig:"MAX_LINE" default:"256"`
	MaxClients int    `envconfig:"MAX_CLIENTS" default:"0"`
	CacheSize  int    `envconfig:"CACHE_SIZE" default:"4096"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev   bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.MaxLine < 2 {
		return nil, fmt.Errorf("MAX_LINE must be at least 2, got %d", cfg.MaxLine)
	}
	return &cfg, nil
}
