package auth

import (
	"encoding/base64"
	stderrors "errors"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/joho/godotenv"
)

// EnvConfig is loaded from the environment and an optional .env file.
// The signing key has no default: a missing AUTH_SIGNING_KEY is a
// startup error.
type EnvConfig struct {
	SigningKey         string        `env:"AUTH_SIGNING_KEY,required,notEmpty" json:"signing_key"`
	SigningKeyEncoding string        `env:"AUTH_SIGNING_KEY_ENCODING" envDefault:"raw" json:"signing_key_encoding"`
	TokenTTL           time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"30m" json:"token_ttl"`
	Issuer             string        `env:"AUTH_ISSUER" envDefault:"go-users-auth" json:"issuer"`
	AuthScheme         string        `env:"AUTH_SCHEME" envDefault:"Bearer" json:"auth_scheme"`
	ContextKey         string        `env:"AUTH_CONTEXT_KEY" envDefault:"security" json:"context_key"`
	PasswordHasher     string        `env:"AUTH_PASSWORD_HASHER" envDefault:"bcrypt" json:"password_hasher"`
	BcryptCost         int           `env:"AUTH_BCRYPT_COST" envDefault:"12" json:"bcrypt_cost"`
	UseHashid          bool          `env:"AUTH_USE_HASHID" envDefault:"false" json:"use_hashid"`
	HTTPAddr           string        `env:"HTTP_ADDR" envDefault:":8080" json:"http_addr"`
	DatabaseURL        string        `env:"DATABASE_URL" envDefault:"file:users.db?cache=shared" json:"database_url"`
	CORSAllowOrigins   string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*" json:"cors_allow_origins"`
	Debug              bool          `env:"DEBUG" envDefault:"false" json:"debug"`

	signingKey []byte
}

var _ Config = (*EnvConfig)(nil)

// LoadConfig reads .env files (missing files are ignored) and then the
// process environment
func LoadConfig(envFiles ...string) (*EnvConfig, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		var pathErr *os.PathError
		if !stderrors.As(err, &pathErr) {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to load env file")
		}
	}

	return ParseConfig(env.Options{})
}

// ParseConfig parses the environment described by opts
func ParseConfig(opts env.Options) (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		if strings.Contains(err.Error(), "AUTH_SIGNING_KEY") {
			return nil, withCause(ErrMissingSigningKey, err, nil)
		}
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse configuration")
	}

	key, err := DecodeSigningKey(cfg.SigningKey, cfg.SigningKeyEncoding)
	if err != nil {
		return nil, err
	}
	cfg.signingKey = key

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}

	return cfg, nil
}

// DecodeSigningKey decodes a configured secret. Encoding is "raw" or
// "base64".
func DecodeSigningKey(value, encoding string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrMissingSigningKey
	}

	var key []byte
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "raw":
		key = []byte(value)
	case "base64":
		decoded, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			decoded, err = base64.RawStdEncoding.DecodeString(value)
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "signing key is not valid base64")
		}
		key = decoded
	default:
		return nil, errors.New("unknown signing key encoding", errors.CategoryBadInput).
			WithMetadata(map[string]any{"encoding": encoding})
	}

	if len(key) < MinSigningKeyLength {
		return nil, withCause(ErrWeakSigningKey, nil, map[string]any{"length": len(key)})
	}

	return key, nil
}

func (c *EnvConfig) GetSigningKey() []byte {
	return c.signingKey
}

func (c *EnvConfig) GetTokenTTL() time.Duration {
	return c.TokenTTL
}

func (c *EnvConfig) GetIssuer() string {
	return c.Issuer
}

func (c *EnvConfig) GetAuthScheme() string {
	return c.AuthScheme
}

func (c *EnvConfig) GetContextKey() string {
	return c.ContextKey
}

func (c *EnvConfig) GetPasswordHasher() string {
	return c.PasswordHasher
}

func (c *EnvConfig) GetBcryptCost() int {
	return c.BcryptCost
}

func (c *EnvConfig) GetUseHashid() bool {
	return c.UseHashid
}

// CORSOrigins returns the allowed origins as fiber's cors expects them
func (c *EnvConfig) CORSOrigins() string {
	parts := strings.Split(c.CORSAllowOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ",")
}

// Dump renders the configuration with the secret masked
func (c *EnvConfig) Dump() string {
	masked := *c
	masked.SigningKey = "****"
	masked.signingKey = nil
	return print.MaybePrettyJSON(masked)
}
