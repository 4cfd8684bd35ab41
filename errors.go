package auth

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidToken      = "TOKEN_INVALID"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeMissingSigningKey = "SIGNING_KEY_MISSING"
	TextCodeWeakSigningKey    = "SIGNING_KEY_WEAK"
	TextCodeUserNotFound      = "USER_NOT_FOUND"
	TextCodeBadCredentials    = "BAD_CREDENTIALS"
	TextCodeDuplicateEmail    = "DUPLICATE_EMAIL"
	TextCodeInvalidRole       = "INVALID_ROLE"
	TextCodeEmptyString       = "EMPTY_STRING"
	TextCodeInvalidUserID     = "INVALID_USER_ID"
)

// ErrInvalidToken is returned for tokens that fail signature or
// structural checks
var ErrInvalidToken = goerrors.New("invalid token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned when a token is past its exp claim
var ErrTokenExpired = goerrors.New("token expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

var ErrMissingSigningKey = goerrors.New("signing key is required", goerrors.CategoryBadInput).
	WithTextCode(TextCodeMissingSigningKey)

var ErrWeakSigningKey = goerrors.New("signing key must be at least 32 bytes", goerrors.CategoryBadInput).
	WithTextCode(TextCodeWeakSigningKey)

// ErrUserNotFound no user matches the given id or email
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrBadCredentials the password did not match the stored hash
var ErrBadCredentials = goerrors.New("bad credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeBadCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrDuplicateEmail the email is already registered
var ErrDuplicateEmail = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeBadRequest)

var ErrInvalidRole = goerrors.New("invalid role", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidRole).
	WithCode(goerrors.CodeBadRequest)

// ErrNoEmptyString value can not be empty
var ErrNoEmptyString = goerrors.New("value can not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyString).
	WithCode(goerrors.CodeBadRequest)

var ErrInvalidPayload = goerrors.New("invalid request payload", goerrors.CategoryBadInput).
	WithTextCode("INVALID_PAYLOAD").
	WithCode(goerrors.CodeBadRequest)

var ErrUnknownPasswordHasher = goerrors.New("unknown password hasher", goerrors.CategoryBadInput).
	WithTextCode("PASSWORD_HASHER_UNKNOWN")

var ErrInvalidUserID = goerrors.New("invalid user id", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidUserID).
	WithCode(goerrors.CodeBadRequest)

// IsInvalidTokenError will check for invalid tokens
func IsInvalidTokenError(err error) bool {
	return hasTextCode(err, TextCodeInvalidToken)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	return hasTextCode(err, TextCodeTokenExpired)
}

// IsUserNotFoundError matches ErrUserNotFound and copies of it
func IsUserNotFoundError(err error) bool {
	return hasTextCode(err, TextCodeUserNotFound)
}

// IsDuplicateEmailError matches ErrDuplicateEmail and copies of it
func IsDuplicateEmailError(err error) bool {
	return hasTextCode(err, TextCodeDuplicateEmail)
}

// IsBadCredentialsError matches ErrBadCredentials and copies of it
func IsBadCredentialsError(err error) bool {
	return hasTextCode(err, TextCodeBadCredentials)
}

// IsInvalidRoleError matches ErrInvalidRole and copies of it
func IsInvalidRoleError(err error) bool {
	return hasTextCode(err, TextCodeInvalidRole)
}

// hasTextCode walks the source chain of rich errors looking for code
func hasTextCode(err error, code string) bool {
	for err != nil {
		var richErr *goerrors.Error
		if !goerrors.As(err, &richErr) || richErr == nil {
			return false
		}
		if richErr.TextCode == code {
			return true
		}
		err = richErr.Source
	}
	return false
}

// withCause returns a copy of base that carries err as its source
func withCause(base *goerrors.Error, err error, meta map[string]any) error {
	clone := base.Clone()
	if clone == nil {
		clone = base
	}
	if err != nil {
		clone.Source = err
	}
	if len(meta) > 0 {
		clone.WithMetadata(meta)
	}
	return clone
}
