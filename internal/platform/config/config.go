// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration. Every field has a development
// default so a bare `go run ./cmd/server` starts against in-memory backends.
type Config struct {
	Addr     string `env:"FAIRCIRCLE_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DatabaseURL selects the Postgres backend when set; empty means
	// in-memory stores.
	DatabaseURL string `env:"DATABASE_URL"`

	// RedisURL enables the fair-score cache when set.
	RedisURL string `env:"REDIS_URL"`

	// KafkaBrokers enables the audit event stream when non-empty.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_AUDIT_TOPIC" envDefault:"faircircle.audit"`

	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string `env:"JWT_ISSUER" envDefault:"faircircle"`
	JWTAudience   string `env:"JWT_AUDIENCE" envDefault:"faircircle-api"`

	FairScaleURL    string        `env:"FAIRSCALE_API_URL"`
	FairScaleAPIKey string        `env:"FAIRSCALE_API_KEY"`
	ScoreCacheTTL   time.Duration `env:"SCORE_CACHE_TTL" envDefault:"5m"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
