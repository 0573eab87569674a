// Package config loads the process configuration from the environment. A
// local .env file is honored in development.
package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// Token delivery modes: where a freshly minted session token is handed to
// the client.
const (
	DeliveryCookie = "cookie"
	DeliveryBody   = "body"
	DeliveryBoth   = "both"
)

type Config struct {
	Port       string `env:"PORT" envDefault:"3000"`
	Production bool   `env:"PRODUCTION"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	// DatabaseDSN is the sqlite DSN for the records store.
	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"file:records.db"`

	// AllowOrigins is the comma-separated CORS allow list. Credentialed
	// requests (the session cookie) require explicit origins.
	AllowOrigins string `env:"ALLOWED_ORIGINS"`

	// JWTSecret signs session tokens. Required.
	JWTSecret string `env:"JWT_SECRET,required"`
	// TokenTTL bounds token and session-cookie lifetime.
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"10m"`
	// TokenIssuer is the optional iss claim.
	TokenIssuer string `env:"TOKEN_ISSUER"`
	// CookieName is the session cookie name.
	CookieName string `env:"COOKIE_NAME" envDefault:"jwt"`
	// TokenDelivery selects cookie, body, or both.
	TokenDelivery string `env:"TOKEN_DELIVERY" envDefault:"cookie"`
	// BcryptCost is the password hashing work factor.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
}

// Load reads the configuration from the environment, picking up a .env file
// when one exists next to the process.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load .env file")
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "failed to parse environment configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects option values the rest of the service would choke on.
func (c *Config) Validate() error {
	switch c.TokenDelivery {
	case DeliveryCookie, DeliveryBody, DeliveryBoth:
	default:
		return errors.New("token delivery must be cookie, body, or both", errors.CategoryValidation).
			WithMetadata(map[string]any{"token_delivery": c.TokenDelivery})
	}

	if c.TokenTTL <= 0 {
		return errors.New("token TTL must be positive", errors.CategoryValidation).
			WithMetadata(map[string]any{"token_ttl": c.TokenTTL.String()})
	}

	return nil
}

// DeliverCookie reports whether login should set the session cookie.
func (c *Config) DeliverCookie() bool {
	return c.TokenDelivery == DeliveryCookie || c.TokenDelivery == DeliveryBoth
}

// DeliverBody reports whether login should return the token in the body.
func (c *Config) DeliverBody() bool {
	return c.TokenDelivery == DeliveryBody || c.TokenDelivery == DeliveryBoth
}

// CookieSameSite returns the SameSite attribute for the session cookie:
// cross-site capable in production (HTTPS), Lax otherwise.
func (c *Config) CookieSameSite() string {
	if c.Production {
		return "None"
	}
	return "Lax"
}

// ListenAddr is the address the HTTP server binds.
func (c *Config) ListenAddr() string {
	return ":" + c.Port
}
