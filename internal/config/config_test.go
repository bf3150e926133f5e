package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "SECRET", "DATABASE_DSN", "TOKEN_TTL_HOURS", "CORS_ORIGINS", "JOBS_ENABLED"} {
		t.Setenv(key, "")
	}
	t.Setenv("HTTP_PORT", "8080")

	cfg := Load()
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected port 8080, got %q", cfg.HTTPPort)
	}
	if cfg.Secret != "dev_secret" {
		t.Fatalf("expected dev secret fallback, got %q", cfg.Secret)
	}
	if cfg.DatabaseDSN != defaultDSN {
		t.Fatalf("expected default dsn, got %q", cfg.DatabaseDSN)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("expected 24h token ttl, got %v", cfg.TokenTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if !cfg.Jobs.Enabled {
		t.Fatalf("jobs should default to enabled when value is unparsable")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SECRET", "s3cret")
	t.Setenv("TOKEN_TTL_HOURS", "2")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("JOBS_ENABLED", "false")
	t.Setenv("REORDER_LEAD_DAYS", "14")

	cfg := Load()
	if cfg.HTTPPort != "9090" || cfg.Secret != "s3cret" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Fatalf("expected 2h ttl, got %v", cfg.TokenTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if cfg.Jobs.Enabled {
		t.Fatalf("jobs should be disabled")
	}
	if cfg.ReorderLeadDays != 14 {
		t.Fatalf("expected lead days 14, got %d", cfg.ReorderLeadDays)
	}
}

func TestLoadRejectsNonNumericPort(t *testing.T) {
	t.Setenv("HTTP_PORT", "abc")
	if cfg := Load(); cfg.HTTPPort != "8080" {
		t.Fatalf("expected fallback port, got %q", cfg.HTTPPort)
	}
}

func TestLocationFallback(t *testing.T) {
	cfg := Config{Timezone: "Not/AZone"}
	if cfg.Location() != time.Local {
		t.Fatalf("expected local fallback")
	}
	cfg.Timezone = "UTC"
	if cfg.Location().String() != "UTC" {
		t.Fatalf("expected UTC, got %s", cfg.Location())
	}
}
