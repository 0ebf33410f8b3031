// Package config loads runner settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Runner configures a page run.
type Runner struct {
	LogLevel     string `env:"GLCONTEXT_LOG_LEVEL" envDefault:"info"`
	MaxTurns     int    `env:"GLCONTEXT_MAX_TURNS" envDefault:"1000"`
	LoseContext  bool   `env:"GLCONTEXT_LOSE_CONTEXT"`
	LossMessage  string `env:"GLCONTEXT_LOSS_MESSAGE"`
	RestoreAfter bool   `env:"GLCONTEXT_RESTORE" envDefault:"true"`

	LoadExternal bool          `env:"GLCONTEXT_LOAD_EXTERNAL" envDefault:"true"`
	FetchTimeout time.Duration `env:"GLCONTEXT_FETCH_TIMEOUT" envDefault:"10s"`
	UserAgent    string        `env:"GLCONTEXT_USER_AGENT" envDefault:"glcontext/1.0"`

	// MetricsFile, when set, receives the Prometheus metrics after the run.
	MetricsFile string `env:"GLCONTEXT_METRICS_FILE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadRunner parses a Runner and checks its limits.
func LoadRunner() (Runner, error) {
	var cfg Runner
	if err := ParseEnv(&cfg); err != nil {
		return Runner{}, err
	}
	if cfg.MaxTurns <= 0 {
		return Runner{}, fmt.Errorf("GLCONTEXT_MAX_TURNS must be positive, got %d", cfg.MaxTurns)
	}
	if cfg.FetchTimeout <= 0 {
		return Runner{}, fmt.Errorf("GLCONTEXT_FETCH_TIMEOUT must be positive, got %s", cfg.FetchTimeout)
	}
	return cfg, nil
}
