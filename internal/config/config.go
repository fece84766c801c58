// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath  string        `envconfig:"DATABASE_PATH" default:"./data/schedules.db"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
	PollInterval  time.Duration `envconfig:"POLL_INTERVAL" default:"2s"`
	BlinkInterval time.Duration `envconfig:"BLINK_INTERVAL" default:"500ms"`
	SpeechCommand string        `envconfig:"SPEECH_COMMAND" default:"espeak"`
	UserEmail     string        `envconfig:"USER_EMAIL" required:"true"`
	UserPassword  string        `envconfig:"USER_PASSWORD" required:"true"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	return &cfg, nil
}
