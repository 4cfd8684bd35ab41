package auth

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher hashes passwords with bcrypt at a fixed cost
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, zero selects the
// package default
func NewBcryptHasher(cost int) BcryptHasher {
	if cost == 0 {
		cost = passwordHashCost()
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return BcryptHasher{cost: cost}
}

// HashPassword will generate a password hash
func (h BcryptHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	return string(out), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func (h BcryptHasher) ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrBadCredentials
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compare password hash")
	}
	return nil
}

// HashPassword hashes with bcrypt at the default cost
func HashPassword(password string) (string, error) {
	return NewBcryptHasher(0).HashPassword(password)
}

// ComparePasswordAndHash compares against a bcrypt or argon2id hash
func ComparePasswordAndHash(password, hash string) error {
	return NewPasswordHasher(NewBcryptHasher(0)).ComparePasswordAndHash(password, hash)
}

// PasswordHasher hashes new passwords with its primary algorithm and
// verifies stored hashes by their prefix, so switching algorithms keeps
// existing accounts working.
type PasswordHasher struct {
	primary PasswordAuthenticator
	bcrypt  PasswordAuthenticator
	argon   PasswordAuthenticator
}

// NewPasswordHasher wraps primary
func NewPasswordHasher(primary PasswordAuthenticator) *PasswordHasher {
	return &PasswordHasher{
		primary: primary,
		bcrypt:  NewBcryptHasher(0),
		argon:   NewArgon2Hasher(nil),
	}
}

// PasswordHasherFromConfig selects the algorithm by name
func PasswordHasherFromConfig(cfg Config) (*PasswordHasher, error) {
	switch strings.ToLower(cfg.GetPasswordHasher()) {
	case "", "bcrypt":
		return NewPasswordHasher(NewBcryptHasher(cfg.GetBcryptCost())), nil
	case "argon2id", "argon2":
		return NewPasswordHasher(NewArgon2Hasher(nil)), nil
	default:
		return nil, withCause(ErrUnknownPasswordHasher, nil, map[string]any{
			"hasher": cfg.GetPasswordHasher(),
		})
	}
}

func (p *PasswordHasher) HashPassword(password string) (string, error) {
	return p.primary.HashPassword(password)
}

func (p *PasswordHasher) ComparePasswordAndHash(password, hash string) error {
	if strings.HasPrefix(hash, argon2Prefix) {
		return p.argon.ComparePasswordAndHash(password, hash)
	}
	return p.bcrypt.ComparePasswordAndHash(password, hash)
}
