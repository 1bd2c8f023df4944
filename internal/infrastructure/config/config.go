package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all host configuration.
type Config struct {
	Backend BackendConfig
	Launch  LaunchConfig
	Logging LogConfig
}

// BackendConfig describes how to reach the supervised backend.
type BackendConfig struct {
	BaseURL           string        `envconfig:"BACKEND_URL" default:"http://127.0.0.1:8000"`
	StreamPath        string        `envconfig:"BACKEND_STREAM_PATH" default:"/ws"`
	ReconnectInterval time.Duration `envconfig:"STREAM_RECONNECT_INTERVAL" default:"3s"`
	KeepaliveInterval time.Duration `envconfig:"STREAM_KEEPALIVE_INTERVAL" default:"30s"`
}

// LaunchConfig describes how the backend process is launched and when
// the UI is presented.
type LaunchConfig struct {
	Mode         string        `envconfig:"DEPLOY_MODE" default:"dev"`
	ManifestPath string        `envconfig:"LAUNCH_MANIFEST" default:""`
	PresentDelay time.Duration `envconfig:"PRESENT_DELAY" default:"3s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("ULTRON", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:           "http://127.0.0.1:8000",
			StreamPath:        "/ws",
			ReconnectInterval: 3 * time.Second,
			KeepaliveInterval: 30 * time.Second,
		},
		Launch: LaunchConfig{
			Mode:         "dev",
			PresentDelay: 3 * time.Second,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}
