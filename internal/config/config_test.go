package config

import (
	"testing"
	"time"
)

// TestParseBoolEnv проверяет разбор флага AI_ENABLED.
func TestParseBoolEnv(t *testing.T) {
	cases := map[string]bool{"false": false, "0": false, "OFF": false, "true": true, "1": true, " yes ": true}

	for raw, want := range cases {
		t.Setenv("AI_ENABLED", raw)
		got, err := parseBoolEnv("AI_ENABLED", !want)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", raw, err)
		}
		if got != want {
			t.Fatalf("%q: expected %v, got %v", raw, want, got)
		}
	}

	t.Setenv("AI_ENABLED", "maybe")
	if _, err := parseBoolEnv("AI_ENABLED", true); err == nil {
		t.Fatal("expected error for invalid boolean")
	}
}

// TestParseBoolEnvMissing проверяет значение по умолчанию.
func TestParseBoolEnvMissing(t *testing.T) {
	got, err := parseBoolEnv("MISSING_BOOL_ENV", true)
	if err != nil || !got {
		t.Fatalf("expected fallback true, got %v (err=%v)", got, err)
	}
}

// TestParseFloatEnv проверяет разбор денежных значений.
func TestParseFloatEnv(t *testing.T) {
	t.Setenv("AI_ESTIMATED_REQUEST_USD", "0.0025")
	got, err := parseFloatEnv("AI_ESTIMATED_REQUEST_USD", 0.001)
	if err != nil || got != 0.0025 {
		t.Fatalf("expected 0.0025, got %v (err=%v)", got, err)
	}

	for _, raw := range []string{"-1", "NaN", "Inf", "abc"} {
		t.Setenv("AI_ESTIMATED_REQUEST_USD", raw)
		if _, err := parseFloatEnv("AI_ESTIMATED_REQUEST_USD", 0.001); err == nil {
			t.Fatalf("%q: expected error", raw)
		}
	}

	got, err = parseFloatEnv("MISSING_FLOAT_ENV", 0.001)
	if err != nil || got != 0.001 {
		t.Fatalf("expected fallback 0.001, got %v (err=%v)", got, err)
	}
}

// TestLoadDefaults проверяет значения по умолчанию для AI-шлюза.
func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co/")
	t.Setenv("SUPABASE_ANON_KEY", " anon ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !cfg.AI.Enabled {
		t.Fatal("expected AI enabled by default")
	}
	if cfg.AI.EstimatedRequestUSD != 0.001 {
		t.Fatalf("expected estimate 0.001, got %v", cfg.AI.EstimatedRequestUSD)
	}
	if cfg.AI.ProjectedMonthlyUSD != 0 {
		t.Fatalf("expected projection 0, got %v", cfg.AI.ProjectedMonthlyUSD)
	}
	if cfg.Remote.BaseURL != "https://project.supabase.co" {
		t.Fatalf("unexpected base url %q", cfg.Remote.BaseURL)
	}
	if cfg.Remote.AnonKey != "anon" {
		t.Fatalf("unexpected anon key %q", cfg.Remote.AnonKey)
	}
	if cfg.Remote.Timeout != 8*time.Second {
		t.Fatalf("unexpected remote timeout %v", cfg.Remote.Timeout)
	}
	if cfg.Auth.SessionIssuer != "https://project.supabase.co/auth/v1" {
		t.Fatalf("unexpected issuer %q", cfg.Auth.SessionIssuer)
	}
}

// TestLoadRequiresSessionSecret проверяет обязательность секрета сессий.
func TestLoadRequiresSessionSecret(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("SUPABASE_JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without SUPABASE_JWT_SECRET")
	}
}
