package app

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all the necessary configuration for an App instance to run.
// Every field can be set from the environment; CLI flags override it.
type Config struct {
	InputPaths []string `env:"AXISEM_INPUT" envSeparator:","`
	OutputDir  string   `env:"AXISEM_OUTPUT" envDefault:"output"`

	LogFormat string `env:"AXISEM_LOG_FORMAT" envDefault:"text"`
	LogLevel  string `env:"AXISEM_LOG_LEVEL" envDefault:"info"`

	// Ranks is the world size. Without a coordinator all ranks run in this
	// process.
	Ranks int `env:"AXISEM_RANKS" envDefault:"1"`
	// Rank is this process's rank in a socket world.
	Rank int `env:"AXISEM_RANK" envDefault:"0"`
	// Coordinator is the socket.io URL of rank 0's hub. Empty selects a
	// local world.
	Coordinator string `env:"AXISEM_COORDINATOR"`
	// Listen is the address rank 0 serves the hub on.
	Listen string `env:"AXISEM_LISTEN" envDefault:"127.0.0.1:7400"`

	PlanCache       bool   `env:"AXISEM_PLAN_CACHE" envDefault:"true"`
	OTelEndpoint    string `env:"AXISEM_OTEL_ENDPOINT"`
	HealthcheckPort int    `env:"AXISEM_HEALTHCHECK_PORT"`
}

// ConfigFromEnv returns the configuration described by the environment.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// NewConfig validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.InputPaths) == 0 {
		return nil, errors.New("at least one input path is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("output directory cannot be empty")
	}
	if cfg.Ranks < 1 {
		return nil, fmt.Errorf("ranks must be positive, got %d", cfg.Ranks)
	}
	if cfg.Coordinator != "" && (cfg.Rank < 0 || cfg.Rank >= cfg.Ranks) {
		return nil, fmt.Errorf("rank %d outside world of size %d", cfg.Rank, cfg.Ranks)
	}
	return &cfg, nil
}
