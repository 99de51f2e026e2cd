// Package config defines the fieldscout server configuration and how it is
// loaded from defaults, an optional YAML file and the environment.
package config

import (
	"context"
	"fmt"
	"time"
)

// Store drivers accepted by StoreDriver.
const (
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the persistence backend: bolt or postgres.
	StoreDriver string `koanf:"store_driver"`

	// BoltPath is the bbolt database file used by the bolt driver.
	BoltPath string `koanf:"bolt_path"`

	// DatabaseURL is the PostgreSQL DSN used by the postgres driver.
	DatabaseURL string `koanf:"database_url"`

	// JWTSecret signs and verifies bearer tokens.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTLMinutes is the lifetime of issued tokens.
	TokenTTLMinutes int `koanf:"token_ttl_minutes"`

	// BcryptCost is the password hashing cost.
	BcryptCost int `koanf:"bcrypt_cost"`

	// CORSOrigins lists origins allowed to call the API from a browser.
	CORSOrigins []string `koanf:"cors_origins"`
}

// New creates a Config holding the defaults. JWTSecret has no default.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		StoreDriver:     DriverBolt,
		BoltPath:        "fieldscout.db",
		TokenTTLMinutes: 24 * 60,
		BcryptCost:      10,
		CORSOrigins:     []string{},
	}
}

// TokenTTL returns the token lifetime as a duration.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.JWTSecret == "":
		return fmt.Errorf("%w: jwt_secret must be set", ErrInvalidConfig)
	case c.TokenTTLMinutes <= 0:
		return fmt.Errorf("%w: token_ttl_minutes must be positive", ErrInvalidConfig)
	}
	switch c.StoreDriver {
	case DriverBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("%w: bolt_path must not be empty", ErrInvalidConfig)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: database_url is required for the postgres driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	return nil
}
