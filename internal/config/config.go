// Package config loads the application configuration from environment
// variables (optionally seeded from a .env file by cmd/server).
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// MinJWTSecretLength is the minimum accepted secret size. HS256 security
// degrades quickly with short keys.
const MinJWTSecretLength = 16

// Config holds the application configuration loaded from environment
// variables.
type Config struct {
	DBPath    string `env:"KALENDAR_DB_PATH" envDefault:"./data/kalendar.db"`
	Host      string `env:"KALENDAR_HOST" envDefault:""`
	Port      int    `env:"KALENDAR_PORT" envDefault:"8080"`
	JWTSecret string `env:"KALENDAR_JWT_SECRET,required"`
	LogLevel  string `env:"KALENDAR_LOG_LEVEL" envDefault:"info"`
	Env       string `env:"KALENDAR_ENV" envDefault:"development"`

	// Admin bootstrap. When SeedAdmin is on and no "admin" account exists,
	// the server creates one at startup so a fresh deployment is usable.
	SeedAdmin     bool   `env:"KALENDAR_SEED_ADMIN" envDefault:"true"`
	AdminEmail    string `env:"KALENDAR_ADMIN_EMAIL" envDefault:"admin@kalendar.com"`
	AdminPassword string `env:"KALENDAR_ADMIN_PASSWORD" envDefault:"admin"`
}

// IsDevelopment returns true if the application runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Addr returns the listen address in host:port format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SlogLevel maps the configured level name onto a slog.Level. Unknown names
// fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load parses environment variables and returns a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("KALENDAR_JWT_SECRET must be at least %d bytes long, got %d; "+
			"generate one with: openssl rand -hex 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}

	if !cfg.IsDevelopment() && cfg.SeedAdmin && cfg.AdminPassword == "admin" {
		return nil, fmt.Errorf("KALENDAR_ADMIN_PASSWORD must be changed from the default outside development")
	}

	return cfg, nil
}
