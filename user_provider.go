package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-users-auth/middleware/authn"
)

// UserProvider loads principals from the user store
type UserProvider struct {
	store     UserStore
	hasher    PasswordAuthenticator
	Validator func(*User) error
	logger    Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserStore, hasher PasswordAuthenticator) *UserProvider {
	if hasher == nil {
		hasher = NewPasswordHasher(NewBcryptHasher(0))
	}
	return &UserProvider{
		store:     store,
		hasher:    hasher,
		logger:    defLogger{},
		Validator: defaultValidator,
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	u.logger = resolveLogger("auth.user_provider", nil, l)
	return u
}

func (u *UserProvider) validate(user *User) error {
	if u.Validator != nil {
		return u.Validator(user)
	}
	return defaultValidator(user)
}

// VerifyIdentity will find the user, compare to the password, and return
// a detached copy of the user
func (u *UserProvider) VerifyIdentity(ctx context.Context, email, password string) (*User, error) {
	user, err := u.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if IsUserNotFoundError(err) || errors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := u.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrBadCredentials) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}

	if err := u.validate(user); err != nil {
		return nil, err
	}

	return user.Clone(), nil
}

// LoadPrincipal resolves a token subject, the user's email, into the
// identity used by the authentication pipeline
func (u *UserProvider) LoadPrincipal(ctx context.Context, subject string) (authn.Identity, error) {
	user, err := u.store.FindByEmail(ctx, NormalizeEmail(subject))
	if err != nil {
		return nil, err
	}

	if err := u.validate(user); err != nil {
		u.logger.Warn("principal failed validation", "subject", subject, "error", err)
		return nil, err
	}

	return NewIdentityFromUser(user), nil
}

var _ authn.PrincipalLoader = (*UserProvider)(nil)

func defaultValidator(u *User) error {
	if u == nil {
		return ErrUserNotFound
	}
	for _, r := range u.Roles {
		if !IsValidRole(r) {
			return errors.New("user has an unknown or invalid role", errors.CategoryAuth).
				WithTextCode(TextCodeInvalidRole).
				WithMetadata(map[string]any{"role": r, "user_id": u.ID.String()})
		}
	}
	return nil
}
