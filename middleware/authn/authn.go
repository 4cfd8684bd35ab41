package authn

import (
	"context"
	"fmt"

	"github.com/goliatone/go-router"
)

// TokenVerifier mirrors the token service of the auth package without
// importing it
type TokenVerifier interface {
	ExtractSubject(token string) (string, error)
	Validate(token, expectedSubject string) (bool, error)
}

// Identity is the loaded principal
type Identity interface {
	Subject() string
	Authorities() []string
}

// PrincipalLoader resolves a token subject into a principal
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, subject string) (Identity, error)
}

// PrincipalLoaderFunc adapts a function to PrincipalLoader
type PrincipalLoaderFunc func(ctx context.Context, subject string) (Identity, error)

func (f PrincipalLoaderFunc) LoadPrincipal(ctx context.Context, subject string) (Identity, error) {
	return f(ctx, subject)
}

// Logger is the logging contract of the pipeline
type Logger interface {
	Debug(format string, args ...any)
	Warn(format string, args ...any)
}

// Outcome is how a request left the pipeline
type Outcome string

const (
	OutcomePublic           Outcome = "public"
	OutcomeMissingToken     Outcome = "missing_token"
	OutcomeInvalidToken     Outcome = "invalid_token"
	OutcomeUnknownPrincipal Outcome = "unknown_principal"
	OutcomeRejectedToken    Outcome = "rejected_token"
	OutcomeAuthenticated    Outcome = "authenticated"
)

// Listener is notified of every outcome
type Listener func(c router.Context, outcome Outcome)

type Config struct {
	// Tokens is required
	Tokens TokenVerifier
	// Principals is required
	Principals PrincipalLoader
	// PublicPaths are matched exactly against the request path
	PublicPaths []string
	// Filter skips authentication when it returns true
	Filter func(router.Context) bool
	// AuthScheme defaults to Bearer
	AuthScheme string
	// Header defaults to Authorization
	Header string
	// TokenLookup overrides Header, e.g. "header:Authorization,cookie:jwt"
	TokenLookup string
	// ContextKey is the Locals key, defaults to "security"
	ContextKey string
	Logger     Logger
	Listeners  []Listener
}

// GetDefaultConfig fills in defaults
func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Tokens == nil {
		panic("AUTHN: middleware configuration: Tokens is required.")
	}

	if cfg.Principals == nil {
		panic("AUTHN: middleware configuration: Principals is required.")
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.Header == "" {
		cfg.Header = HeaderAuthorization
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = "header:" + cfg.Header
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "security"
	}

	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}

	return cfg
}

// New returns the authentication middleware. It never writes a response:
// requests it cannot authenticate continue anonymously and are left to
// the authorization guards.
func New(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	extractors := GetExtractors(cfg.TokenLookup, cfg.AuthScheme)

	public := make(map[string]struct{}, len(cfg.PublicPaths))
	for _, p := range cfg.PublicPaths {
		public[p] = struct{}{}
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			outcome := cfg.authenticate(c, public, extractors)
			for _, l := range cfg.Listeners {
				if l != nil {
					l(c, outcome)
				}
			}
			return c.Next()
		}
	}
}

func (cfg Config) authenticate(c router.Context, public map[string]struct{}, extractors []Extractor) (outcome Outcome) {
	if _, ok := public[c.Path()]; ok {
		return OutcomePublic
	}

	if cfg.Filter != nil && cfg.Filter(c) {
		return OutcomePublic
	}

	raw, err := extractRawToken(c, extractors)
	if err != nil {
		return OutcomeMissingToken
	}

	// each stage sets the outcome it ends in if it panics
	defer func() {
		if r := recover(); r != nil {
			cfg.Logger.Warn("authentication panic recovered", "path", c.Path(), "panic", fmt.Sprint(r))
		}
	}()

	outcome = OutcomeInvalidToken
	subject, err := cfg.Tokens.ExtractSubject(raw)
	if err != nil {
		cfg.Logger.Debug("cannot extract token subject", "path", c.Path(), "error", err)
		return OutcomeInvalidToken
	}

	outcome = OutcomeUnknownPrincipal
	principal, err := cfg.Principals.LoadPrincipal(c.Context(), subject)
	if err != nil || principal == nil {
		cfg.Logger.Debug("cannot load principal", "subject", subject, "error", err)
		return OutcomeUnknownPrincipal
	}

	outcome = OutcomeRejectedToken
	ok, err := cfg.Tokens.Validate(raw, principal.Subject())
	if err != nil || !ok {
		cfg.Logger.Debug("token rejected", "subject", subject, "error", err)
		return OutcomeRejectedToken
	}

	sc := SecurityContext{
		Subject:     principal.Subject(),
		Authorities: append([]string{}, principal.Authorities()...),
	}

	c.Locals(cfg.ContextKey, sc)
	c.SetContext(WithSecurityContext(c.Context(), sc))

	return OutcomeAuthenticated
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
