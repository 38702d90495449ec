package config_test

import (
	"log/slog"
	"testing"
	"time"

	"catalog.local/internal/platform/config"
)

func TestConfigLoad_UsesDefaults(t *testing.T) {
	t.Setenv("ADDR", "")
	t.Setenv("IDLE_TIMEOUT", "")
	t.Setenv("SHUTDOWN_TIMEOUT", "")
	t.Setenv("READ_HEADER_TIMEOUT", "")
	t.Setenv("READ_TIMEOUT", "")
	t.Setenv("WRITE_TIMEOUT", "")

	cfg := config.Load()

	if cfg.Addr != ":9999" {
		t.Fatalf("Addr: got %q, want %q", cfg.Addr, ":9999")
	}
	if cfg.IdleTimeout != 60*time.Second {
		t.Fatalf("IdleTimeout: got %v, want %v", cfg.IdleTimeout, 60*time.Second)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("ShutdownTimeout: got %v, want %v", cfg.ShutdownTimeout, 10*time.Second)
	}
	if cfg.ReadHeaderTimeout != 5*time.Second {
		t.Fatalf("ReadHeaderTimeout: got %v, want %v", cfg.ReadHeaderTimeout, 5*time.Second)
	}
	if cfg.ReadTimeout != 10*time.Second {
		t.Fatalf("ReadTimeout: got %v, want %v", cfg.ReadTimeout, 10*time.Second)
	}
	if cfg.WriteTimeout != 10*time.Second {
		t.Fatalf("WriteTimeout: got %v, want %v", cfg.WriteTimeout, 10*time.Second)
	}
}

func TestConfigLoad_ReadsEnv(t *testing.T) {
	t.Setenv("ADDR", ":18080")
	t.Setenv("IDLE_TIMEOUT", "2m")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("READ_HEADER_TIMEOUT", "4s")
	t.Setenv("READ_TIMEOUT", "5s")
	t.Setenv("WRITE_TIMEOUT", "6s")

	cfg := config.Load()

	if cfg.Addr != ":18080" {
		t.Fatalf("Addr: got %q, want %q", cfg.Addr, ":18080")
	}
	if cfg.IdleTimeout != 2*time.Minute {
		t.Fatalf("IdleTimeout: got %v, want %v", cfg.IdleTimeout, 2*time.Minute)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("ShutdownTimeout: got %v, want %v", cfg.ShutdownTimeout, 3*time.Second)
	}
	if cfg.ReadHeaderTimeout != 4*time.Second {
		t.Fatalf("ReadHeaderTimeout: got %v, want %v", cfg.ReadHeaderTimeout, 4*time.Second)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Fatalf("ReadTimeout: got %v, want %v", cfg.ReadTimeout, 5*time.Second)
	}
	if cfg.WriteTimeout != 6*time.Second {
		t.Fatalf("WriteTimeout: got %v, want %v", cfg.WriteTimeout, 6*time.Second)
	}
}

func TestConfigLoad_ViewHelperSettings(t *testing.T) {
	t.Setenv("ADDTHIS_KEY", "ra-123")
	t.Setenv("SYNDETICS_PLUS", "TRUE")
	t.Setenv("KEEPALIVE_INTERVAL", "45")
	t.Setenv("URL_SHORTENER", "Database")
	t.Setenv("COOKIE_LIMIT_BY_PATH", "true")
	t.Setenv("COOKIE_DOMAIN", ".example.org")
	t.Setenv("BASE_URL", "https://catalog.example.org/")

	cfg := config.Load()

	if cfg.AddThisKey != "ra-123" {
		t.Fatalf("AddThisKey: got %q", cfg.AddThisKey)
	}
	if !cfg.SyndeticsPlus {
		t.Fatal("SyndeticsPlus: got false, want true")
	}
	if cfg.KeepAliveInterval != 45 {
		t.Fatalf("KeepAliveInterval: got %d, want 45", cfg.KeepAliveInterval)
	}
	if cfg.URLShortener != "database" {
		t.Fatalf("URLShortener: got %q, want %q", cfg.URLShortener, "database")
	}
	if !cfg.CookieLimitByPath || cfg.CookieDomain != ".example.org" {
		t.Fatalf("cookie settings: got %+v", cfg)
	}
	if cfg.BaseURL != "https://catalog.example.org" {
		t.Fatalf("BaseURL: got %q", cfg.BaseURL)
	}
}

func TestConfigLoad_IgnoresInvalidKeepAlive(t *testing.T) {
	t.Setenv("KEEPALIVE_INTERVAL", "-3")

	cfg := config.Load()

	if cfg.KeepAliveInterval != 0 {
		t.Fatalf("KeepAliveInterval: got %d, want 0", cfg.KeepAliveInterval)
	}
}

func TestConfigLoad_ParsesListsAndLevels(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("REDIS_DB", "two")
	t.Setenv("CONTENT_RATE_LIMIT", "0")
	t.Setenv("SYNDETICS_URL", "https://syndetics.example/")

	cfg := config.Load()

	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "k1:9092" || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("KafkaBrokers: got %q", cfg.KafkaBrokers)
	}
	if cfg.LogLevel != slog.LevelWarn {
		t.Fatalf("LogLevel: got %v", cfg.LogLevel)
	}
	if cfg.RedisDB != 0 || cfg.ContentRateLimit != 5 {
		t.Fatalf("invalid values should keep defaults: RedisDB=%d ContentRateLimit=%v", cfg.RedisDB, cfg.ContentRateLimit)
	}
	if cfg.SyndeticsURL != "https://syndetics.example" {
		t.Fatalf("SyndeticsURL: got %q", cfg.SyndeticsURL)
	}
}

func TestConfigLoad_EmptyAddThisKeyDisables(t *testing.T) {
	t.Setenv("ADDTHIS_KEY", "")
	if cfg := config.Load(); cfg.AddThisKey != "" {
		t.Fatalf("AddThisKey: got %q", cfg.AddThisKey)
	}
}
