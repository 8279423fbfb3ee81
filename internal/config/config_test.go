package config

import (
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model.Name == "" {
		t.Error("no default model")
	}
	if cfg.API.Retry.MaxRetries <= 0 {
		t.Error("no default retry count")
	}
	if cfg.Agent.MaxAttempts <= 0 {
		t.Error("no default agent attempt bound")
	}
	if cfg.Server.URL == "" {
		t.Error("no default auth server url")
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("got %v, want ErrMissingAPIKey", err)
	}

	cfg.API.GeminiKey = "test-key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FLUX_API_KEY", "env-key")
	t.Setenv("FLUX_MODEL", "gemini-2.5-pro")
	t.Setenv("FLUX_SERVER_URL", "http://auth.test")

	cfg := DefaultConfig()
	loadFromEnv(cfg)

	if cfg.API.GeminiKey != "env-key" {
		t.Errorf("key = %q", cfg.API.GeminiKey)
	}
	if cfg.Model.Name != "gemini-2.5-pro" {
		t.Errorf("model = %q", cfg.Model.Name)
	}
	if cfg.Server.URL != "http://auth.test" {
		t.Errorf("server = %q", cfg.Server.URL)
	}
}

func TestGeminiKeyFallback(t *testing.T) {
	t.Setenv("FLUX_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg := DefaultConfig()
	loadFromEnv(cfg)

	if cfg.API.GeminiKey != "gemini-key" {
		t.Errorf("key = %q, want fallback env var honored", cfg.API.GeminiKey)
	}
}
