// Package config handles ocireg configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
)

// Config controls the registry client's default connection settings.
// All fields map to OCIREG_* environment variables via [Load].
type Config struct {
	// Registry is the default registry host[:port] (OCIREG_REGISTRY, default registry-1.docker.io).
	Registry string
	// Insecure selects plain http instead of https (OCIREG_INSECURE).
	Insecure bool
	// Username for registry auth (OCIREG_USERNAME, falls back to DKREG_USER).
	Username string
	// Password for registry auth (OCIREG_PASSWORD, falls back to DKREG_PASSWD).
	Password string
	// LogLevel sets the minimum log severity (OCIREG_LOG_LEVEL: debug, info, warn, error).
	LogLevel slog.Level
	// LogFormat selects the slog handler: "text" or "json" (OCIREG_LOG_FORMAT, default text).
	LogFormat string
}

const defaultRegistry = "registry-1.docker.io"

// Load populates a [Config] from OCIREG_* environment variables, falling
// back to defaults for any variable that is unset or invalid.
func Load() Config {
	c := Config{
		Registry:  defaultRegistry,
		Insecure:  false,
		LogLevel:  slog.LevelInfo,
		LogFormat: "text",
	}

	if v := os.Getenv("OCIREG_REGISTRY"); v != "" {
		c.Registry = v
	}

	if v := os.Getenv("OCIREG_INSECURE"); v != "" {
		c.Insecure, _ = strconv.ParseBool(v)
	}

	c.Username = firstNonEmpty(os.Getenv("OCIREG_USERNAME"), os.Getenv("DKREG_USER"))
	c.Password = firstNonEmpty(os.Getenv("OCIREG_PASSWORD"), os.Getenv("DKREG_PASSWD"))

	if v := os.Getenv("OCIREG_LOG_LEVEL"); v != "" {
		switch v {
		case "debug":
			c.LogLevel = slog.LevelDebug
		case "warn":
			c.LogLevel = slog.LevelWarn
		case "error":
			c.LogLevel = slog.LevelError
		default:
			c.LogLevel = slog.LevelInfo
		}
	}

	if v := os.Getenv("OCIREG_LOG_FORMAT"); v == "json" {
		c.LogFormat = "json"
	}

	return c
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
