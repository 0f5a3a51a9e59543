package authkit

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// MinSigningKeyLength is the minimum accepted HMAC key length in bytes.
const MinSigningKeyLength = 32

// EnvConfig is an immutable configuration snapshot loaded from the
// environment. Construct it once at startup and pass it into the services
// that need it; nothing in this package reads ambient state afterwards.
type EnvConfig struct {
	SigningKey         string   `env:"AUTH_SIGNING_KEY,required"`
	Issuer             string   `env:"AUTH_ISSUER" envDefault:"mars"`
	Audience           []string `env:"AUTH_AUDIENCE" envSeparator:"," envDefault:"mars:api"`
	AccessTokenMinutes int      `env:"AUTH_ACCESS_TOKEN_MINUTES" envDefault:"30"`
	RefreshTokenDays   int      `env:"AUTH_REFRESH_TOKEN_DAYS" envDefault:"14"`
}

var _ Config = (*EnvConfig)(nil)

// LoadConfig parses configuration from the environment and validates it.
func LoadConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "failed to parse auth configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces the configuration invariants. A weak signing key is fatal
// at startup, never per request.
func (c *EnvConfig) Validate() error {
	if len(c.SigningKey) < MinSigningKeyLength {
		return ErrSigningKeyTooShort.WithMetadata(map[string]any{
			"length":  len(c.SigningKey),
			"minimum": MinSigningKeyLength,
		})
	}

	if c.AccessTokenMinutes <= 0 {
		return errors.New("access token TTL must be positive", errors.CategoryValidation).
			WithMetadata(map[string]any{"minutes": c.AccessTokenMinutes})
	}

	if c.RefreshTokenDays <= 0 {
		return errors.New("refresh token TTL must be positive", errors.CategoryValidation).
			WithMetadata(map[string]any{"days": c.RefreshTokenDays})
	}

	return nil
}

func (c *EnvConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *EnvConfig) GetIssuer() string {
	return c.Issuer
}

func (c *EnvConfig) GetAudience() []string {
	return c.Audience
}

func (c *EnvConfig) GetAccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

func (c *EnvConfig) GetRefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenDays) * 24 * time.Hour
}
