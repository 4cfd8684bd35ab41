package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"

	"github.com/goliatone/go-users-auth/middleware/authn"
)

// ServerOptions wires the HTTP surface
type ServerOptions struct {
	Auther           *Auther
	Users            *UserService
	Metrics          *Metrics
	Logger           Logger
	LoggerProvider   LoggerProvider
	CORSAllowOrigins string
	AuthScheme       string
	ContextKey       string
	Debug            bool
}

// PublicPaths never require a token
var PublicPaths = []string{
	"/healthz",
	"/metrics",
	"/v1/auth/login",
	"/v1/auth/register",
	"/v1/auth/register/admin",
}

// NewHTTPServer builds the server on the go-router fiber adapter:
// recover, request id, CORS, the authentication pipeline and the routes.
// The gofiber middlewares and the prometheus handler are fiber handlers,
// they mount on the wrapped app.
func NewHTTPServer(opts ServerOptions) router.Server[*fiber.App] {
	logger := resolveLogger("auth.http", opts.LoggerProvider, opts.Logger)

	srv := router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		return fiber.New(fiber.Config{
			AppName:               "go-users-auth",
			UnescapePath:          true,
			DisableStartupMessage: true,
			ErrorHandler:          ErrorHandler(logger, opts.Debug),
		})
	})

	allowOrigins := opts.CORSAllowOrigins
	if allowOrigins == "" {
		allowOrigins = "*"
	}

	app := srv.WrappedRouter()
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  allowOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		ExposeHeaders: fiber.HeaderAuthorization,
	}))

	if opts.Metrics != nil {
		app.Get("/metrics", opts.Metrics.Handler())
	}

	r := srv.Router()
	r.WithLogger(resolveLogger("auth.router", opts.LoggerProvider, opts.Logger))

	listeners := []authn.Listener{}
	if opts.Metrics != nil {
		listeners = append(listeners, opts.Metrics.PipelineListener())
	}

	r.Use(authn.New(authn.Config{
		Tokens:      opts.Auther.TokenService(),
		Principals:  opts.Auther.Provider(),
		PublicPaths: PublicPaths,
		AuthScheme:  opts.AuthScheme,
		ContextKey:  opts.ContextKey,
		Logger:      resolveLogger("auth.authn", opts.LoggerProvider, opts.Logger),
		Listeners:   listeners,
	}))

	r.Get("/healthz", func(c router.Context) error {
		return c.JSON(router.StatusOK, map[string]string{"status": "ok"})
	}).SetName("health.get")

	RegisterRoutes(r, opts, logger)

	return srv
}

// RegisterRoutes mounts the auth and users routes under /v1
func RegisterRoutes[T any](app router.Router[T], opts ServerOptions, logger Logger) {
	authController := NewAuthController(
		WithAuther(opts.Auther),
		WithAuthControllerLogger(logger),
		WithAuthControllerDebug(opts.Debug),
	)

	authGroup := app.Group("/v1/auth")
	authGroup.Post(authController.Routes.Register, authController.RegisterPost).
		SetName("auth.register.post")
	authGroup.Post(authController.Routes.RegisterAdmin, authController.RegisterAdminPost).
		SetName("auth.register-admin.post")
	authGroup.Post(authController.Routes.Login, authController.LoginPost).
		SetName("auth.login.post")

	usersController := NewUsersController(opts.Users, logger)
	authenticated := authn.RequireAuthenticated()

	users := app.Group("/v1/users")
	users.Get("/", usersController.List, authenticated).SetName("users.list")
	users.Get("/email/:email", usersController.GetByEmail, authenticated).SetName("users.email.get")
	users.Get("/:id", usersController.Get, authenticated).SetName("users.get")
	users.Put("/:id", usersController.Update, authenticated).SetName("users.put")
	users.Delete("/:id", usersController.Delete, authenticated).SetName("users.delete")
	users.Patch("/:id/password", usersController.ChangePassword, authenticated).SetName("users.password.patch")
}

// ErrorHandler maps rich errors to their status code. Anything
// unclassified becomes a generic 500.
func ErrorHandler(logger Logger, debug bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}

		var richErr *errors.Error
		if !errors.As(err, &richErr) || richErr.Code == 0 {
			logger.Error("unexpected server error", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "An unexpected server error occurred",
			})
		}

		if debug {
			logger.Debug("request error",
				"path", c.Path(),
				"error", richErr.Message,
				"category", richErr.Category,
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
		}

		if richErr.Code >= fiber.StatusInternalServerError {
			logger.Error("server error", "path", c.Path(), "error", err)
			return c.Status(richErr.Code).JSON(fiber.Map{
				"error": "An unexpected server error occurred",
			})
		}

		body := fiber.Map{"error": richErr.Message}
		if richErr.TextCode != "" {
			body["code"] = richErr.TextCode
		}
		return c.Status(richErr.Code).JSON(body)
	}
}
