// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port     string `env:"DESAFIADOS_PORT" envDefault:"8080"`
	DBPath   string `env:"DESAFIADOS_DB_PATH" envDefault:"desafiados.db"`
	LogLevel string `env:"DESAFIADOS_LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"DESAFIADOS_LOG_FILE"`

	// JWTSecret verifies HS256 bearer tokens from the identity provider.
	JWTSecret string `env:"DESAFIADOS_JWT_SECRET,required,notEmpty"`
	JWTIssuer string `env:"DESAFIADOS_JWT_ISSUER"`

	StoreTimeout time.Duration `env:"DESAFIADOS_STORE_TIMEOUT" envDefault:"3s"`
	// RedeemRateLimit is redemption attempts per user per minute.
	RedeemRateLimit int `env:"DESAFIADOS_REDEEM_RATE_LIMIT" envDefault:"10"`

	OTelEndpoint string `env:"DESAFIADOS_OTEL_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads and validates the service configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.StoreTimeout <= 0 {
		errs = append(errs, fmt.Errorf("DESAFIADOS_STORE_TIMEOUT must be positive, got %s", c.StoreTimeout))
	}
	if c.RedeemRateLimit <= 0 {
		errs = append(errs, fmt.Errorf("DESAFIADOS_REDEEM_RATE_LIMIT must be positive, got %d", c.RedeemRateLimit))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DESAFIADOS_DB_PATH must not be empty"))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}
