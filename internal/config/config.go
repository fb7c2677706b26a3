package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// devTokenSecret keeps local development working without exported secrets.
// Validate rejects it outside the development environment.
const devTokenSecret = "dev-only-signing-secret-do-not-deploy-0"

// minTokenSecretLen matches the HMAC-SHA256 security margin: the key must
// be at least as long as the hash output.
const minTokenSecretLen = 32

type Config struct {
	AppPort     string `env:"APP_PORT" envDefault:"8080"`
	Environment string `env:"APP_ENV" envDefault:"development"`

	TokenSecret   string        `env:"TOKEN_SECRET" envDefault:"dev-only-signing-secret-do-not-deploy-0"`
	TokenIssuer   string        `env:"TOKEN_ISSUER" envDefault:"auth-gateway"`
	TokenAudience string        `env:"TOKEN_AUDIENCE" envDefault:"auth-gateway-clients"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	MinPasswordLength int `env:"MIN_PASSWORD_LENGTH" envDefault:"6"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	DatabaseDSN string `env:"DATABASE_DSN"`
}

// placeholderSecrets are values that must never sign production tokens.
var placeholderSecrets = map[string]bool{
	"":             true,
	"secret":       true,
	"changeme":     true,
	devTokenSecret: true,
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate enforces the fail-fast startup rules. A weak or placeholder
// signing secret outside development is fatal: the process must not
// serve traffic with it.
func (c Config) Validate() error {
	if c.IsDevelopment() {
		return nil
	}

	if placeholderSecrets[c.TokenSecret] {
		return fmt.Errorf("config: TOKEN_SECRET is unset or a placeholder in %q environment", c.Environment)
	}
	if len(c.TokenSecret) < minTokenSecretLen {
		return fmt.Errorf("config: TOKEN_SECRET must be at least %d bytes, got %d", minTokenSecretLen, len(c.TokenSecret))
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("config: DATABASE_DSN is required in %q environment", c.Environment)
	}
	if c.GoogleClientID == "" || c.GoogleClientSecret == "" || c.GoogleRedirectURL == "" {
		return fmt.Errorf("config: google oauth settings are required in %q environment", c.Environment)
	}

	return nil
}

func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}
