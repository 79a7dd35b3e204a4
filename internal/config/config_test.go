package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"ALPHABOT_API_BASE_URL", "API_TIMEOUT", "PORT", "CREDENTIAL_STORE",
		"CREDENTIAL_KEY", "NATS_URL", "RATE_LIMIT_REQUESTS", "ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.APIBaseURL != "http://localhost:8000" {
		t.Errorf("Load() APIBaseURL = %v, want http://localhost:8000", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 90*time.Second {
		t.Errorf("Load() APITimeout = %v, want 90s", cfg.APITimeout)
	}
	if cfg.ServerPort != "8090" {
		t.Errorf("Load() ServerPort = %v, want 8090", cfg.ServerPort)
	}
	if cfg.CredentialStore != StoreFile {
		t.Errorf("Load() CredentialStore = %v, want %v", cfg.CredentialStore, StoreFile)
	}
	if cfg.CredentialKey != "access_token" {
		t.Errorf("Load() CredentialKey = %v, want access_token", cfg.CredentialKey)
	}
	if cfg.NATSURL != "" {
		t.Errorf("Load() NATSURL = %v, want empty", cfg.NATSURL)
	}
	if cfg.RateLimitRequests != 120 {
		t.Errorf("Load() RateLimitRequests = %v, want 120", cfg.RateLimitRequests)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("Load() AllowedOrigins = %v, want 2 defaults", cfg.AllowedOrigins)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("ALPHABOT_API_BASE_URL", "https://api.alphabot.example/")
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("PORT", "9999")
	t.Setenv("CREDENTIAL_STORE", StoreRedis)
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()

	if cfg.APIBaseURL != "https://api.alphabot.example" {
		t.Errorf("Load() APIBaseURL = %v, want trailing slash trimmed", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 5*time.Second {
		t.Errorf("Load() APITimeout = %v, want 5s", cfg.APITimeout)
	}
	if cfg.ServerPort != "9999" {
		t.Errorf("Load() ServerPort = %v, want 9999", cfg.ServerPort)
	}
	if cfg.CredentialStore != StoreRedis {
		t.Errorf("Load() CredentialStore = %v, want redis", cfg.CredentialStore)
	}
	if !cfg.TracingEnabled {
		t.Error("Load() TracingEnabled = false, want true")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Load() AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("API_TIMEOUT", "soon")
	t.Setenv("RATE_LIMIT_REQUESTS", "many")
	t.Setenv("TRACING_ENABLED", "maybe")

	cfg := Load()

	if cfg.APITimeout != 90*time.Second {
		t.Errorf("Load() APITimeout = %v, want default", cfg.APITimeout)
	}
	if cfg.RateLimitRequests != 120 {
		t.Errorf("Load() RateLimitRequests = %v, want default", cfg.RateLimitRequests)
	}
	if cfg.TracingEnabled {
		t.Error("Load() TracingEnabled = true, want default false")
	}
}
