package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config is loaded once at process startup from the environment and
// shared by both cmd/scheduler and cmd/server.
type Config struct {
	Env  string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port string `env:"PORT" envDefault:"8080" validate:"required"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`
	APIPrefix   string `env:"API_PREFIX" envDefault:"/api/v1" validate:"required"`

	DefaultTimeoutSeconds float64 `env:"DEFAULT_TIMEOUT_SECONDS" envDefault:"30" validate:"min=1,max=120"`
	MaxTimeoutSeconds     float64 `env:"MAX_TIMEOUT_SECONDS" envDefault:"120" validate:"min=1"`

	MaxRetries         int     `env:"MAX_RETRIES" envDefault:"3" validate:"min=0,max=20"`
	RetryDelaySeconds  float64 `env:"RETRY_DELAY_SECONDS" envDefault:"1.0" validate:"min=0.01"`
	VerifySSL          bool    `env:"VERIFY_SSL" envDefault:"false"`
	MaxConcurrentJobs  int     `env:"MAX_CONCURRENT_JOBS" envDefault:"100" validate:"min=1"`
	MisfireGraceSec    int     `env:"MISFIRE_GRACE_SECONDS" envDefault:"60" validate:"min=0"`
	SchedulerTimezone  string  `env:"SCHEDULER_TIMEZONE" envDefault:"Asia/Kolkata" validate:"required"`
	WindowSweepSeconds int     `env:"WINDOW_SWEEP_INTERVAL_SECONDS" envDefault:"60" validate:"min=1"`
	ReconcileSeconds   int     `env:"SCHEDULE_RECONCILE_INTERVAL_SECONDS" envDefault:"10" validate:"min=1"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SlogLevel converts the LOG_LEVEL string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
