package config

import (
	"log/slog"
	"os"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OCIREG_REGISTRY", "OCIREG_INSECURE", "OCIREG_USERNAME", "OCIREG_PASSWORD",
		"OCIREG_LOG_LEVEL", "OCIREG_LOG_FORMAT", "DKREG_USER", "DKREG_PASSWD",
	} {
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Registry != defaultRegistry {
		t.Errorf("expected registry %q, got %q", defaultRegistry, cfg.Registry)
	}
	if cfg.Insecure {
		t.Error("expected Insecure false")
	}
	if cfg.Username != "" {
		t.Errorf("expected empty username, got %q", cfg.Username)
	}
	if cfg.Password != "" {
		t.Errorf("expected empty password, got %q", cfg.Password)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected LogLevel info, got %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("expected LogFormat text, got %q", cfg.LogFormat)
	}
}

func TestLoadInsecure(t *testing.T) {
	tests := []struct {
		name     string
		envVal   string
		expected bool
	}{
		{"true", "true", true},
		{"false", "false", false},
		{"1", "1", true},
		{"0", "0", false},
		{"invalid", "yes", false}, // ParseBool fails, keeps default
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.envVal != "" {
				os.Setenv("OCIREG_INSECURE", tt.envVal)
				defer os.Unsetenv("OCIREG_INSECURE")
			}

			cfg := Load()
			if cfg.Insecure != tt.expected {
				t.Errorf("OCIREG_INSECURE=%q: expected Insecure=%v, got %v",
					tt.envVal, tt.expected, cfg.Insecure)
			}
		})
	}
}

func TestLoadRegistry(t *testing.T) {
	clearEnv(t)
	os.Setenv("OCIREG_REGISTRY", "ghcr.io")
	defer os.Unsetenv("OCIREG_REGISTRY")

	cfg := Load()
	if cfg.Registry != "ghcr.io" {
		t.Errorf("expected registry ghcr.io, got %q", cfg.Registry)
	}
}

func TestLoadCredentialFallback(t *testing.T) {
	clearEnv(t)
	os.Setenv("DKREG_USER", "alice")
	os.Setenv("DKREG_PASSWD", "hunter2")
	defer os.Unsetenv("DKREG_USER")
	defer os.Unsetenv("DKREG_PASSWD")

	cfg := Load()
	if cfg.Username != "alice" {
		t.Errorf("expected username from DKREG_USER fallback, got %q", cfg.Username)
	}
	if cfg.Password != "hunter2" {
		t.Errorf("expected password from DKREG_PASSWD fallback, got %q", cfg.Password)
	}
}

func TestLoadCredentialPreferred(t *testing.T) {
	clearEnv(t)
	os.Setenv("OCIREG_USERNAME", "bob")
	os.Setenv("DKREG_USER", "alice")
	defer os.Unsetenv("OCIREG_USERNAME")
	defer os.Unsetenv("DKREG_USER")

	cfg := Load()
	if cfg.Username != "bob" {
		t.Errorf("expected OCIREG_USERNAME to take priority, got %q", cfg.Username)
	}
}

func TestLoadLogLevel(t *testing.T) {
	tests := []struct {
		envVal   string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.envVal, func(t *testing.T) {
			clearEnv(t)
			os.Setenv("OCIREG_LOG_LEVEL", tt.envVal)
			defer os.Unsetenv("OCIREG_LOG_LEVEL")

			cfg := Load()
			if cfg.LogLevel != tt.expected {
				t.Errorf("OCIREG_LOG_LEVEL=%q: expected %v, got %v",
					tt.envVal, tt.expected, cfg.LogLevel)
			}
		})
	}
}

func TestLoadLogFormat(t *testing.T) {
	clearEnv(t)
	os.Setenv("OCIREG_LOG_FORMAT", "json")
	defer os.Unsetenv("OCIREG_LOG_FORMAT")

	cfg := Load()
	if cfg.LogFormat != "json" {
		t.Errorf("expected LogFormat json, got %q", cfg.LogFormat)
	}
}
