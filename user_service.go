package auth

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// UserService manages existing accounts
type UserService struct {
	store        UserStore
	hasher       PasswordAuthenticator
	logger       Logger
	activitySink ActivitySink
}

func NewUserService(store UserStore, hasher PasswordAuthenticator) *UserService {
	if hasher == nil {
		hasher = NewPasswordHasher(NewBcryptHasher(0))
	}
	return &UserService{
		store:        store,
		hasher:       hasher,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *UserService) WithLogger(logger Logger) *UserService {
	s.logger = resolveLogger("auth.users", nil, logger)
	return s
}

func (s *UserService) WithActivitySink(sink ActivitySink) *UserService {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

func (s *UserService) List(ctx context.Context) ([]UserView, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]UserView, 0, len(records))
	for _, r := range records {
		out = append(out, r.View())
	}
	return out, nil
}

// ListByRole returns the users holding role
func (s *UserService) ListByRole(ctx context.Context, role string) ([]UserView, error) {
	parsed, ok := ParseRole(role)
	if !ok {
		return nil, withCause(ErrInvalidRole, nil, map[string]any{"role": role})
	}

	records, err := s.store.ListByRole(ctx, parsed)
	if err != nil {
		return nil, err
	}

	out := make([]UserView, 0, len(records))
	for _, r := range records {
		out = append(out, r.View())
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (UserView, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return UserView{}, err
	}
	return user.View(), nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (UserView, error) {
	user, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return UserView{}, err
	}
	return user.View(), nil
}

// Update applies the non nil fields of update. Roles are added to the
// ones the user already holds, never replaced.
func (s *UserService) Update(ctx context.Context, actor ActorRef, id uuid.UUID, update UserUpdate) (UserView, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return UserView{}, err
	}

	changed := make([]string, 0, 4)

	if update.Name != nil {
		user.Name = strings.TrimSpace(*update.Name)
		changed = append(changed, "name")
	}

	if update.Email != nil {
		email := NormalizeEmail(*update.Email)
		if email == "" {
			return UserView{}, withCause(ErrNoEmptyString, nil, map[string]any{"field": "email"})
		}
		if email != user.Email {
			if owner, err := s.store.FindByEmail(ctx, email); err == nil && owner.ID != user.ID {
				return UserView{}, withCause(ErrDuplicateEmail, nil, map[string]any{"email": email})
			} else if err != nil && !IsUserNotFoundError(err) {
				return UserView{}, err
			}
		}
		user.Email = email
		changed = append(changed, "email")
	}

	if update.Password != nil {
		hash, err := s.hashPassword(*update.Password)
		if err != nil {
			return UserView{}, err
		}
		user.PasswordHash = hash
		changed = append(changed, "password")
	}

	if len(update.Roles) > 0 {
		roles, err := ParseRoles(update.Roles)
		if err != nil {
			return UserView{}, err
		}
		user.AddRoles(roles...)
		changed = append(changed, "roles")
	}

	updated, err := s.store.Update(ctx, user)
	if err != nil {
		return UserView{}, err
	}

	s.emit(ctx, ActivityEventUserUpdated, actor, updated.ID, map[string]any{
		"fields": changed,
	})

	return updated.View(), nil
}

func (s *UserService) Delete(ctx context.Context, actor ActorRef, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.emit(ctx, ActivityEventUserDeleted, actor, id, nil)
	return nil
}

func (s *UserService) ChangePassword(ctx context.Context, actor ActorRef, id uuid.UUID, password string) error {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	if _, err := s.store.Update(ctx, user); err != nil {
		return err
	}

	s.emit(ctx, ActivityEventPasswordChanged, actor, id, nil)
	return nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return "", richErr
		}
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}
	return hash, nil
}

func (s *UserService) emit(ctx context.Context, eventType ActivityEventType, actor ActorRef, id uuid.UUID, meta map[string]any) {
	if meta == nil {
		meta = map[string]any{}
	}
	recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    id.String(),
		Metadata:  meta,
	})
}
