package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 3000 {
		t.Fatalf("expected default port 3000 got %d", cfg.AppPort)
	}
	if cfg.AccessTokenTTL != 10*time.Minute {
		t.Fatalf("expected 10m access ttl got %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 24*time.Hour {
		t.Fatalf("expected 24h refresh ttl got %v", cfg.RefreshTokenTTL)
	}
	if cfg.ResetTokenTTL != 5*time.Minute {
		t.Fatalf("expected 5m reset ttl got %v", cfg.ResetTokenTTL)
	}
	if cfg.TokenSecret != "" {
		t.Fatalf("token secret must have no default, got %q", cfg.TokenSecret)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "app_port: 8081\ntoken_secret: from-file\naccess_token_ttl: 1h\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("FRIENDLOOP_TOKEN_SECRET", "from-env")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 8081 {
		t.Fatalf("expected port from file, got %d", cfg.AppPort)
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Fatalf("expected 1h access ttl from file, got %v", cfg.AccessTokenTTL)
	}
	if cfg.TokenSecret != "from-env" {
		t.Fatalf("expected env to override file, got %q", cfg.TokenSecret)
	}
}

func TestLoadEnvOnlyWithoutConfigFile(t *testing.T) {
	t.Setenv("FRIENDLOOP_TOKEN_SECRET", "env-only-secret")
	t.Setenv("FRIENDLOOP_APP_PORT", "8082")
	t.Setenv("FRIENDLOOP_SMTP_ADDR", "relay.example.com:25")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.TokenSecret != "env-only-secret" {
		t.Fatalf("expected env secret without a config file, got %q", cfg.TokenSecret)
	}
	if cfg.AppPort != 8082 {
		t.Fatalf("expected env port without a config file, got %d", cfg.AppPort)
	}
	if cfg.SMTP.Addr != "relay.example.com:25" {
		t.Fatalf("expected nested env override, got %q", cfg.SMTP.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("env-only config must validate: %v", err)
	}
}

func TestValidateRequiresTokenSecret(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); !errors.Is(err, ErrMissingTokenSecret) {
		t.Fatalf("expected ErrMissingTokenSecret got %v", err)
	}

	cfg.TokenSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
