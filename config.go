package smtpkit

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds mailer construction parameters. Zero-value fields fall back
// to the corresponding environment variables when passed to New, so an
// empty Config is valid as long as MAILER_EMAIL and MAILER_PASSWORD are set.
type Config struct {
	// Email is the sender address used for authentication and the
	// From header. Falls back to MAILER_EMAIL.
	Email string `env:"MAILER_EMAIL"`

	// Password is the account (app) password. Falls back to MAILER_PASSWORD.
	Password string `env:"MAILER_PASSWORD"`

	// Provider selects the SMTP host profile. Falls back to
	// MAILER_PROVIDER, defaulting to gmail.
	Provider Provider `env:"MAILER_PROVIDER" envDefault:"gmail"`

	// Timeout bounds connection establishment and each SMTP exchange.
	Timeout time.Duration `env:"MAILER_TIMEOUT" envDefault:"10s"`
}

// LoadConfig reads mailer configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, newValidationError("failed to parse environment: %v", err)
	}
	return cfg, nil
}

// withEnvFallback fills unset fields from the environment. Explicit values
// always win; the environment is consulted only for what the caller omitted.
func (c Config) withEnvFallback() (Config, error) {
	envCfg, err := LoadConfig()
	if err != nil {
		return Config{}, err
	}
	if c.Email == "" {
		c.Email = envCfg.Email
	}
	if c.Password == "" {
		c.Password = envCfg.Password
	}
	if c.Provider == "" {
		c.Provider = envCfg.Provider
	}
	if c.Timeout == 0 {
		c.Timeout = envCfg.Timeout
	}
	return c, nil
}

// validate checks that credentials resolved and the provider is known.
func (c Config) validate() error {
	if c.Email == "" || c.Password == "" {
		return newValidationError(
			"email and password are required: pass them in Config or set MAILER_EMAIL and MAILER_PASSWORD")
	}
	if _, err := resolveProvider(c.Provider); err != nil {
		return err
	}
	return nil
}
