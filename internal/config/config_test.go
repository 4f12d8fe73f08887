package config

import (
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "local")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "ops")
	t.Setenv("DB_PASSWORD", "ops")
	t.Setenv("DB_NAME", "opsconsole")
	t.Setenv("DB_SSLMODE", "")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("JWT_AUDIENCE", "")
	t.Setenv("SLA_TICK_INTERVAL", "")
	t.Setenv("SUMMARY_CACHE_TTL", "")
	t.Setenv("BULK_MAX_WORKERS", "")
	t.Setenv("BULK_MAX_IDS", "")
	t.Setenv("PRODUCER_SECRET", "")
}

func TestLoadLocalDefaults(t *testing.T) {
	setBaseEnv(t)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode default disable, got %q", c.DB.SSLMode)
	}
	if c.Engine.SLATickInterval != time.Minute {
		t.Fatalf("expected default tick interval 1m, got %v", c.Engine.SLATickInterval)
	}
	if c.Engine.SummaryCacheTTL != 30*time.Second {
		t.Fatalf("expected default summary ttl 30s, got %v", c.Engine.SummaryCacheTTL)
	}
	if c.Engine.BulkMaxWorkers != 8 || c.Engine.BulkMaxIDs != 100 {
		t.Fatalf("unexpected bulk defaults: %d workers, %d ids", c.Engine.BulkMaxWorkers, c.Engine.BulkMaxIDs)
	}
	if c.HTTPAddr() != ":8080" {
		t.Fatalf("unexpected http addr %q", c.HTTPAddr())
	}
}

func TestLoadEngineOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SLA_TICK_INTERVAL", "15s")
	t.Setenv("SUMMARY_CACHE_TTL", "2m")
	t.Setenv("BULK_MAX_WORKERS", "4")
	t.Setenv("BULK_MAX_IDS", "50")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Engine.SLATickInterval != 15*time.Second {
		t.Fatalf("tick interval = %v", c.Engine.SLATickInterval)
	}
	if c.Engine.SummaryCacheTTL != 2*time.Minute {
		t.Fatalf("summary ttl = %v", c.Engine.SummaryCacheTTL)
	}
	if c.Engine.BulkMaxWorkers != 4 || c.Engine.BulkMaxIDs != 50 {
		t.Fatalf("bulk limits = %d/%d", c.Engine.BulkMaxWorkers, c.Engine.BulkMaxIDs)
	}
}

func TestLoadCollectsErrors(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_PORT", "not-a-port")
	t.Setenv("DB_HOST", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"APP_PORT", "DB_HOST", "JWT_SECRET"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q missing %s", msg, want)
		}
	}
}

func TestProductionRequiresExplicitSecrets(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for production without explicit settings")
	}
	msg := err.Error()
	for _, want := range []string{"DB_SSLMODE", "JWT_ISSUER", "JWT_AUDIENCE", "PRODUCER_SECRET"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q missing %s", msg, want)
		}
	}

	t.Setenv("DB_SSLMODE", "verify-full")
	t.Setenv("JWT_ISSUER", "https://sso.example.com")
	t.Setenv("JWT_AUDIENCE", "ops-console")
	t.Setenv("PRODUCER_SECRET", "hook-secret")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !c.IsProduction() {
		t.Fatal("expected production env")
	}
	if !strings.Contains(c.PostgresDSN(), "sslmode=verify-full") {
		t.Fatalf("dsn = %q", c.PostgresDSN())
	}
}
