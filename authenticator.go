package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// Auther runs login and registration against a UserStore
type Auther struct {
	users        UserStore
	provider     *UserProvider
	tokenService TokenService
	hasher       PasswordAuthenticator
	register     *RegisterUserHandler
	logger       Logger
	activitySink ActivitySink
	useHashid    bool
	authScheme   string
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(users UserStore, tokens TokenService, hasher PasswordAuthenticator) *Auther {
	if hasher == nil {
		hasher = NewPasswordHasher(NewBcryptHasher(0))
	}

	return &Auther{
		users:        users,
		provider:     NewUserProvider(users, hasher),
		tokenService: tokens,
		hasher:       hasher,
		register:     NewRegisterUserHandler(users, hasher),
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		authScheme:   "Bearer",
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = resolveLogger("auth.authenticator", nil, logger)
	s.provider.WithLogger(logger)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithRepository makes registrations transactional
func (s *Auther) WithRepository(repo RepositoryManager) *Auther {
	s.register.WithRepository(repo)
	return s
}

// WithHashid derives new user ids from their email
func (s *Auther) WithHashid(enabled bool) *Auther {
	s.useHashid = enabled
	return s
}

// WithAuthScheme sets the scheme prefixed to issued tokens in the
// Authorization header
func (s *Auther) WithAuthScheme(scheme string) *Auther {
	if scheme != "" {
		s.authScheme = scheme
	}
	return s
}

func (s *Auther) scheme() string {
	if s.authScheme == "" {
		return "Bearer"
	}
	return s.authScheme
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Provider returns the principal loader backing this Authenticator
func (s *Auther) Provider() *UserProvider {
	return s.provider
}

// Login verifies the credentials and issues a token whose subject is the
// user's email
func (s *Auther) Login(ctx context.Context, email, password string) (IssuedToken, UserView, error) {
	email = NormalizeEmail(email)

	user, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Debug("Login verify identity error", "email", email, "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": email,
			"error":      err.Error(),
		})
		return IssuedToken{}, UserView{}, err
	}

	token, err := s.tokenService.Issue(user.Email)
	if err != nil {
		s.logger.Error("Login failed to issue token", "email", email, "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromUser(user), user.ID.String(), map[string]any{
			"identifier": email,
			"error":      err.Error(),
		})
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return IssuedToken{}, UserView{}, richErr
		}
		return IssuedToken{}, UserView{}, errors.Wrap(err, errors.CategoryInternal, "failed to issue token")
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromUser(user), user.ID.String(), map[string]any{
		"identifier": email,
		"expires_at": token.ExpiresAt,
	})

	return token, user.View(), nil
}

// Register creates an account with role, falling back to the message
// role and then USER
func (s *Auther) Register(ctx context.Context, msg RegisterUserMessage, role UserRole) (UserView, error) {
	if role != "" {
		msg.Role = role
	}
	msg.UseHashid = msg.UseHashid || s.useHashid

	user, err := s.register.Handle(ctx, msg)
	if err != nil {
		s.logger.Debug("Register failed", "email", NormalizeEmail(msg.Email), "error", err)
		return UserView{}, err
	}

	s.emitAuthEvent(ctx, ActivityEventUserRegistered, s.actorFromUser(user), user.ID.String(), map[string]any{
		"email": user.Email,
		"roles": user.Roles,
	})

	return user.View(), nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}

	recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	})
}

func (s *Auther) actorFromUser(user *User) ActorRef {
	if user == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   user.ID.String(),
		Type: "user",
	}
}
