package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("expected no default database url, got %q", cfg.DatabaseURL)
	}
	if cfg.ScoreCacheTTL != 5*time.Minute {
		t.Fatalf("expected default cache TTL 5m, got %s", cfg.ScoreCacheTTL)
	}
	if cfg.KafkaTopic != "faircircle.audit" {
		t.Fatalf("expected default audit topic, got %q", cfg.KafkaTopic)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("FAIRCIRCLE_ADDR", ":9000")
	t.Setenv("DATABASE_URL", "postgres://localhost/faircircle")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("SCORE_CACHE_TTL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Addr != ":9000" {
		t.Fatalf("expected addr :9000, got %q", cfg.Addr)
	}
	if cfg.DatabaseURL != "postgres://localhost/faircircle" {
		t.Fatalf("unexpected database url %q", cfg.DatabaseURL)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "broker-2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.ScoreCacheTTL != 30*time.Second {
		t.Fatalf("expected cache TTL 30s, got %s", cfg.ScoreCacheTTL)
	}
}
