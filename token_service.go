package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the lifetime of an access token
const DefaultTokenTTL = 30 * time.Minute

// MinSigningKeyLength is the shortest HS256 key we accept, in bytes
const MinSigningKeyLength = 32

// TokenServiceOption configures a TokenServiceImpl
type TokenServiceOption func(*TokenServiceImpl)

// WithClock overrides the time source
func WithClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if now != nil {
			ts.now = now
		}
	}
}

// TokenServiceImpl implements the TokenService interface with HS256.
// It holds no mutable state after construction.
type TokenServiceImpl struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	logger     Logger
	now        func() time.Time
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, ttl time.Duration, issuer string, logger Logger, opts ...TokenServiceOption) (*TokenServiceImpl, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	if len(signingKey) < MinSigningKeyLength {
		return nil, withCause(ErrWeakSigningKey, nil, map[string]any{
			"length": len(signingKey),
		})
	}

	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	if logger == nil {
		logger = defLogger{}
	}

	key := make([]byte, len(signingKey))
	copy(key, signingKey)

	ts := &TokenServiceImpl{
		signingKey: key,
		ttl:        ttl,
		issuer:     issuer,
		logger:     logger,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(ts)
	}

	return ts, nil
}

// NewTokenServiceFromConfig builds the service from configuration
func NewTokenServiceFromConfig(cfg Config, logger Logger, opts ...TokenServiceOption) (*TokenServiceImpl, error) {
	return NewTokenService(cfg.GetSigningKey(), cfg.GetTokenTTL(), cfg.GetIssuer(), logger, opts...)
}

// TTL returns the configured token lifetime
func (ts *TokenServiceImpl) TTL() time.Duration {
	return ts.ttl
}

// Issue signs a token for subject
func (ts *TokenServiceImpl) Issue(subject string) (IssuedToken, error) {
	if subject == "" {
		return IssuedToken{}, errors.New("token subject is required", errors.CategoryBadInput)
	}

	now := ts.now()
	expires := now.Add(ts.ttl)

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return IssuedToken{}, errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return IssuedToken{
		Value:     signedString,
		Subject:   subject,
		IssuedAt:  claims.IssuedAt(),
		ExpiresAt: claims.Expires(),
	}, nil
}

// ExtractSubject verifies signature and structure and returns the
// subject. Expiry is not checked here.
func (ts *TokenServiceImpl) ExtractSubject(tokenString string) (string, error) {
	claims, err := ts.parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject(), nil
}

// IsExpired reports whether the token's exp is before now
func (ts *TokenServiceImpl) IsExpired(tokenString string) (bool, error) {
	claims, err := ts.parse(tokenString)
	if err != nil {
		return true, err
	}
	return claims.ExpiredAt(ts.now()), nil
}

// Validate is true when the token belongs to expectedSubject and has not
// expired. Signature failures are returned as errors.
func (ts *TokenServiceImpl) Validate(tokenString, expectedSubject string) (bool, error) {
	claims, err := ts.parse(tokenString)
	if err != nil {
		return false, err
	}

	if claims.Subject() != expectedSubject {
		ts.logger.Debug("token subject mismatch")
		return false, nil
	}

	if claims.ExpiredAt(ts.now()) {
		ts.logger.Debug("token rejected", "subject", expectedSubject,
			"error", withCause(ErrTokenExpired, nil, map[string]any{"exp": claims.Expires()}))
		return false, nil
	}

	return true, nil
}

// parse checks signature, algorithm, issuer and subject presence. Time
// based claims are evaluated by the callers against ts.now.
func (ts *TokenServiceImpl) parse(tokenString string) (*JWTClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService parse encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	if err != nil {
		return nil, withCause(ErrInvalidToken, err, nil)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject() == "" {
		return nil, withCause(ErrInvalidToken, nil, map[string]any{"reason": "missing subject"})
	}

	if ts.issuer != "" && claims.Issuer != ts.issuer {
		return nil, withCause(ErrInvalidToken, nil, map[string]any{"reason": "issuer mismatch"})
	}

	return claims, nil
}
