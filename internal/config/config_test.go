package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.PostgresURL == "" {
		t.Fatalf("expected default postgres url")
	}
	if cfg.PreferencesCacheTTL != 10*time.Minute {
		t.Fatalf("expected default cache ttl, got %v", cfg.PreferencesCacheTTL)
	}
	if cfg.ChatModel == "" {
		t.Fatalf("expected default chat model")
	}
	if cfg.CatalogDir != "" {
		t.Fatalf("expected bundled catalog by default")
	}
	if cfg.ChatRequestsPerMin != 10 {
		t.Fatalf("expected default chat rate, got %d", cfg.ChatRequestsPerMin)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://example")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CATALOG_DIR", "/srv/trails")
	t.Setenv("PREFERENCES_CACHE_TTL", "90s")
	t.Setenv("GEMINI_API_KEY", "key")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.PostgresURL != "postgres://example" {
		t.Fatalf("expected override postgres")
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected override redis")
	}
	if cfg.JWTSecret != "secret" {
		t.Fatalf("expected override secret")
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected override log level")
	}
	if cfg.CatalogDir != "/srv/trails" {
		t.Fatalf("expected override catalog dir")
	}
	if cfg.PreferencesCacheTTL != 90*time.Second {
		t.Fatalf("expected override ttl, got %v", cfg.PreferencesCacheTTL)
	}
	if cfg.GeminiAPIKey != "key" {
		t.Fatalf("expected override api key")
	}
}
