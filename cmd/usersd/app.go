package main

import (
	"context"
	"fmt"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-users-auth"
)

// App holds the wired components shared by every command
type App struct {
	config  *auth.EnvConfig
	bunDB   *bun.DB
	repo    auth.RepositoryManager
	tokens  *auth.TokenServiceImpl
	hasher  *auth.PasswordHasher
	auther  *auth.Auther
	users   *auth.UserService
	metrics *auth.Metrics
	logger  *glog.BaseLogger
}

func (a *App) GetLogger(name string) auth.Logger {
	return a.logger.GetLogger(name)
}

// loggerProvider hands named glog loggers to the auth package
type loggerProvider struct {
	app *App
}

func (p loggerProvider) GetLogger(name string) auth.Logger {
	return p.app.GetLogger(name)
}

func newLogger(debug bool) *glog.BaseLogger {
	if debug {
		return glog.NewLogger(
			glog.WithLoggerTypePretty(),
			glog.WithLevel(glog.Trace),
			glog.WithName("usersd"),
			glog.WithAddSource(false),
			glog.WithRichErrorHandler(errors.ToSlogAttributes),
		)
	}

	return glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithName("usersd"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)
}

// NewApp loads configuration and opens the database
func NewApp(ctx context.Context) (*App, error) {
	cfg, err := auth.LoadConfig(envFiles...)
	if err != nil {
		return nil, err
	}

	app := &App{
		config: cfg,
		logger: newLogger(cfg.Debug),
	}

	if cfg.Debug {
		app.GetLogger("config").Debug("configuration loaded", "config", cfg.Dump())
	}

	if err := WithPersistence(ctx, app); err != nil {
		return nil, err
	}

	if err := WithServices(ctx, app); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := auth.OpenDB(ctx, app.config.DatabaseURL)
	if err != nil {
		return err
	}

	app.bunDB = db
	app.repo = auth.NewRepositoryManager(db)

	if err := app.repo.Validate(); err != nil {
		return err
	}

	return nil
}

func WithServices(_ context.Context, app *App) error {
	tokens, err := auth.NewTokenServiceFromConfig(app.config, app.GetLogger("tokens"))
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	hasher, err := auth.PasswordHasherFromConfig(app.config)
	if err != nil {
		return err
	}

	app.tokens = tokens
	app.hasher = hasher
	app.metrics = auth.NewMetrics()

	sink := auth.MultiActivitySink(
		auth.LoggerActivitySink(app.GetLogger("activity")),
		app.metrics.ActivitySink(),
	)

	store := app.repo.Users()

	app.auther = auth.NewAuthenticator(store, tokens, hasher).
		WithLogger(app.GetLogger("authenticator")).
		WithActivitySink(sink).
		WithRepository(app.repo).
		WithHashid(app.config.GetUseHashid()).
		WithAuthScheme(app.config.GetAuthScheme())

	app.users = auth.NewUserService(store, hasher).
		WithLogger(app.GetLogger("users")).
		WithActivitySink(sink)

	return nil
}

func (a *App) Close() {
	if a.bunDB != nil {
		a.bunDB.Close()
	}
}
