package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// RegistrationTimeout bounds a single registration
var RegistrationTimeout = time.Second * 10

type RegisterUserMessage struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Role      UserRole `json:"-"`
	UseHashid bool     `json:"-"`
}

// Validate checks the registration payload
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required, validation.Length(3, 50)),
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(3, 0)),
	)
}

// RegisterUserHandler creates accounts. With a repository manager the
// lookup and insert share one transaction, otherwise the store's own
// uniqueness guard decides races.
type RegisterUserHandler struct {
	store  UserStore
	repo   RepositoryManager
	hasher PasswordAuthenticator
}

func NewRegisterUserHandler(store UserStore, hasher PasswordAuthenticator) *RegisterUserHandler {
	if hasher == nil {
		hasher = NewPasswordHasher(NewBcryptHasher(0))
	}
	return &RegisterUserHandler{
		store:  store,
		hasher: hasher,
	}
}

// WithRepository runs registrations inside repo transactions
func (h *RegisterUserHandler) WithRepository(repo RepositoryManager) *RegisterUserHandler {
	h.repo = repo
	if repo != nil {
		h.store = repo.Users()
	}
	return h
}

// Handle registers the user and returns the stored record
func (h *RegisterUserHandler) Handle(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, RegistrationTimeout)
	defer cancel()

	user, err := h.buildUser(event)
	if err != nil {
		return nil, err
	}

	if h.repo != nil {
		var created *User
		err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			users := h.repo.Users()
			if _, err := users.FindByEmailTx(ctx, tx, user.Email); err == nil {
				return withCause(ErrDuplicateEmail, nil, map[string]any{"email": user.Email})
			} else if !IsUserNotFoundError(err) {
				return err
			}

			created, err = users.CreateTx(ctx, tx, user)
			return err
		})
		if err != nil {
			return nil, registrationError(err)
		}
		return created, nil
	}

	if _, err := h.store.FindByEmail(ctx, user.Email); err == nil {
		return nil, withCause(ErrDuplicateEmail, nil, map[string]any{"email": user.Email})
	} else if !IsUserNotFoundError(err) {
		return nil, registrationError(err)
	}

	created, err := h.store.Create(ctx, user)
	if err != nil {
		return nil, registrationError(err)
	}

	return created, nil
}

func (h *RegisterUserHandler) buildUser(event RegisterUserMessage) (*User, error) {
	if event.Password == "" {
		return nil, ErrNoEmptyString
	}

	role := RoleUser
	if event.Role != "" {
		r, ok := ParseRole(event.Role)
		if !ok {
			return nil, withCause(ErrInvalidRole, nil, map[string]any{"role": event.Role})
		}
		role = r
	}

	hash, err := h.hasher.HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Name:         event.Name,
		Email:        NormalizeEmail(event.Email),
		PasswordHash: hash,
		Roles:        []UserRole{role},
	}

	if event.UseHashid {
		if id, err := hashid.NewUUID(user.Email); err == nil {
			user.ID = id
		}
	}

	return user, nil
}

func registrationError(err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	if isUniqueViolation(err) {
		return withCause(ErrDuplicateEmail, err, nil)
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration failed")
}
