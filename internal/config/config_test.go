package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "JWT_EXPIRES_IN", "CORS_ORIGINS", "TIMEZONE", "SERVICE_API_KEY", "AMQP_URL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Errorf("expected 30m access ttl, got %s", cfg.AccessTokenTTL)
	}
	if cfg.MagicLinkTTL != 15*time.Minute {
		t.Errorf("expected 15m magic link ttl, got %s", cfg.MagicLinkTTL)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("expected 2 default origins, got %v", cfg.CORSOrigins)
	}
	if cfg.Location == nil {
		t.Fatal("location should never be nil")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_EXPIRES_IN", "5m")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("DB_NAME", "budget_test")

	cfg, _ := Load()
	if cfg.Port != "9090" {
		t.Errorf("expected 9090, got %s", cfg.Port)
	}
	if cfg.AccessTokenTTL != 5*time.Minute {
		t.Errorf("expected 5m, got %s", cfg.AccessTokenTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://a.example" || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.Location != time.UTC {
		t.Errorf("expected UTC, got %v", cfg.Location)
	}
	if cfg.DB.DBName != "budget_test" {
		t.Errorf("expected db name override, got %s", cfg.DB.DBName)
	}
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "soon")
	cfg, _ := Load()
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Errorf("expected fallback 30m, got %s", cfg.AccessTokenTTL)
	}
}
