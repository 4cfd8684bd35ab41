package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

type AuthControllerRoutes struct {
	Login         string
	Register      string
	RegisterAdmin string
}

type AuthController struct {
	Debug  bool
	Logger Logger
	Auther *Auther
	Routes *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:         "/login",
			Register:      "/register",
			RegisterAdmin: "/register/admin",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	return c
}

func WithAuther(a *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = a
		return c
	}
}

func WithAuthControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = resolveLogger("auth.http", nil, l)
		return c
	}
}

func WithAuthControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// LoginResponse is the body of a successful login. The token travels in
// the Authorization header.
type LoginResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// LoginPost keeps bare status responses on failure: 400 invalid payload,
// 404 unknown email, 401 wrong password, 500 anything else
func (a *AuthController) LoginPost(c router.Context) error {
	payload := new(LoginRequest)
	if err := c.Bind(payload); err != nil {
		return c.NoContent(router.StatusBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return c.NoContent(router.StatusBadRequest)
	}

	token, view, err := a.Auther.Login(c.Context(), payload.Email, payload.Password)
	if err != nil {
		switch {
		case IsUserNotFoundError(err):
			return c.NoContent(http.StatusNotFound)
		case IsBadCredentialsError(err):
			return c.NoContent(router.StatusUnauthorized)
		default:
			a.Logger.Error("login failed", "email", payload.Email, "error", err)
			return c.NoContent(router.StatusInternalServerError)
		}
	}

	c.SetHeader("Authorization", a.Auther.scheme()+" "+token.Value)

	return c.JSON(router.StatusOK, LoginResponse{
		ID:    view.ID,
		Name:  view.Name,
		Email: view.Email,
	})
}

func (a *AuthController) RegisterPost(c router.Context) error {
	return a.register(c, RoleUser)
}

func (a *AuthController) RegisterAdminPost(c router.Context) error {
	return a.register(c, RoleAdmin)
}

func (a *AuthController) register(c router.Context, role UserRole) error {
	payload := new(RegisterUserMessage)
	if err := c.Bind(payload); err != nil {
		return badRequest(c, "invalid registration payload")
	}

	if a.Debug {
		masked := *payload
		masked.Password = "****"
		a.Logger.Debug("registration payload", "payload", print.MaybePrettyJSON(masked))
	}

	if err := payload.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	if _, err := a.Auther.Register(c.Context(), *payload, role); err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) && richErr.Category != errors.CategoryInternal {
			return badRequest(c, richErr.Message)
		}
		a.Logger.Error("registration failed", "email", payload.Email, "error", err)
		return badRequest(c, "registration failed")
	}

	return c.Status(http.StatusCreated).SendString("Created")
}

// UsersController serves the authenticated user management routes
type UsersController struct {
	Logger Logger
	Users  *UserService
}

func NewUsersController(users *UserService, logger Logger) *UsersController {
	if users == nil {
		panic("Missing UserService in users controller...")
	}
	return &UsersController{
		Logger: resolveLogger("auth.http", nil, logger),
		Users:  users,
	}
}

// List answers GET /users. The role query narrows the result to the
// users holding that role.
func (u *UsersController) List(c router.Context) error {
	var (
		users []UserView
		err   error
	)

	if role := c.Query("role", ""); role != "" {
		users, err = u.Users.ListByRole(c.Context(), role)
	} else {
		users, err = u.Users.List(c.Context())
	}
	if err != nil {
		return err
	}
	return c.JSON(router.StatusOK, users)
}

func (u *UsersController) Get(c router.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}

	user, err := u.Users.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(router.StatusOK, user)
}

func (u *UsersController) GetByEmail(c router.Context) error {
	user, err := u.Users.GetByEmail(c.Context(), c.Param("email"))
	if err != nil {
		return err
	}
	return c.JSON(router.StatusOK, user)
}

func (u *UsersController) Update(c router.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}

	payload := UserUpdate{}
	if err := c.Bind(&payload); err != nil {
		return withCause(ErrInvalidPayload, err, nil)
	}

	if payload.Name != nil {
		name := strings.TrimSpace(*payload.Name)
		if err := validation.Validate(name, validation.Required, validation.Length(3, 50)); err != nil {
			return validationError("name", err)
		}
	}

	if payload.Email != nil {
		if err := validation.Validate(strings.TrimSpace(*payload.Email), validation.Required, is.Email); err != nil {
			return validationError("email", err)
		}
	}

	user, err := u.Users.Update(c.Context(), actorFromRouter(c), id, payload)
	if err != nil {
		return err
	}
	return c.JSON(router.StatusOK, user)
}

func (u *UsersController) Delete(c router.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}

	if err := u.Users.Delete(c.Context(), actorFromRouter(c), id); err != nil {
		return err
	}
	return c.JSON(router.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// passwordChange is accepted when the body is JSON, otherwise the raw
// body is the new password
type passwordChange struct {
	Password string `json:"password"`
}

func (u *UsersController) ChangePassword(c router.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}

	password := string(c.Body())
	if strings.Contains(strings.ToLower(c.Header("Content-Type")), "json") {
		payload := passwordChange{}
		if err := json.Unmarshal(c.Body(), &payload); err != nil {
			return withCause(ErrInvalidPayload, err, map[string]any{"field": "password"})
		}
		password = payload.Password
	}

	if err := u.Users.ChangePassword(c.Context(), actorFromRouter(c), id, password); err != nil {
		return err
	}
	return c.JSON(router.StatusOK, map[string]string{"message": "Password updated successfully"})
}

func userIDParam(c router.Context) (uuid.UUID, error) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, withCause(ErrInvalidUserID, err, map[string]any{"id": raw})
	}
	return id, nil
}

func validationError(field string, err error) error {
	return errors.New(err.Error(), errors.CategoryValidation).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{"field": field})
}

func badRequest(c router.Context, msg string) error {
	return c.JSON(router.StatusBadRequest, map[string]string{"error": msg})
}
