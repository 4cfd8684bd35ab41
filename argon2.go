package auth

import (
	"github.com/alexedwards/argon2id"
	goerrors "github.com/goliatone/go-errors"
)

const argon2Prefix = "$argon2id$"

// Argon2Hasher hashes passwords with argon2id
type Argon2Hasher struct {
	params *argon2id.Params
}

// NewArgon2Hasher uses argon2id.DefaultParams when params is nil
func NewArgon2Hasher(params *argon2id.Params) Argon2Hasher {
	if params == nil {
		params = argon2id.DefaultParams
	}
	return Argon2Hasher{params: params}
}

func (h Argon2Hasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}
	return argon2id.CreateHash(password, h.params)
}

func (h Argon2Hasher) ComparePasswordAndHash(password, hash string) error {
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compare password hash")
	}
	if !match {
		return ErrBadCredentials
	}
	return nil
}
