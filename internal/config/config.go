// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"socialmedia/internal/security/password"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds every setting the service reads at startup.
type Config struct {
	Addr string `env:"ADDR" envDefault:":8080"`

	DBDriver        string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	PasswordScheme string `env:"PASSWORD_SCHEME" envDefault:"argon2id"`

	LogEnv   string `env:"LOG_ENV" envDefault:"prod"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	OIDC OIDC `envPrefix:"OIDC_"`
}

// OIDC configures the optional single sign-on login. It is disabled unless
// Issuer is set.
type OIDC struct {
	Issuer       string `env:"ISSUER"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"`
}

// Enabled reports whether SSO is configured.
func (o OIDC) Enabled() bool { return o.Issuer != "" }

// Load reads an optional .env file from the working directory and then parses
// the environment. Variables already set in the environment win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects combinations the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for DB_DRIVER=%s", c.DBDriver))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}

	if _, err := password.New(c.PasswordScheme); err != nil {
		errs = append(errs, err)
	}

	if c.OIDC.Enabled() && (c.OIDC.ClientID == "" || c.OIDC.RedirectURL == "") {
		errs = append(errs, errors.New("OIDC_CLIENT_ID and OIDC_REDIRECT_URL are required when OIDC_ISSUER is set"))
	}
	return errors.Join(errs...)
}
