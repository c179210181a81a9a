package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/taskboard")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("ANALYTICS_CACHE_TTL", "")
	t.Setenv("CLIENT_URL", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "3000" {
		t.Fatalf("unexpected port %q", cfg.Port)
	}
	if cfg.TokenTTL != 30*24*time.Hour {
		t.Fatalf("unexpected token ttl %v", cfg.TokenTTL)
	}
	if len(cfg.AllowedOrigins) != len(defaultOrigins) {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/taskboard")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/taskboard")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "8080")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("ANALYTICS_CACHE_TTL", "30s")
	t.Setenv("CLIENT_URL", "https://app.example.com")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example.com , ,https://b.example.com")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.TokenTTL != time.Hour || cfg.AnalyticsCacheTTL != 30*time.Second || !cfg.Debug {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	want := []string{"http://localhost:3000", "http://localhost:5173", "https://app.example.com", "https://a.example.com", "https://b.example.com"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Fatalf("origin %d: expected %q, got %q", i, want[i], cfg.AllowedOrigins[i])
		}
	}

	t.Setenv("TOKEN_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected invalid TOKEN_TTL to fail")
	}
}
