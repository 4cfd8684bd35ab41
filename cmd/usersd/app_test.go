package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-users-auth"
)

const testSigningKey = "0123456789abcdef0123456789abcdef-usersd"

func newTestApp(t *testing.T, dsn string) *App {
	t.Helper()

	cfg, err := auth.ParseConfig(env.Options{Environment: map[string]string{
		"AUTH_SIGNING_KEY": testSigningKey,
		"AUTH_BCRYPT_COST": "4",
		"DATABASE_URL":     dsn,
	}})
	require.NoError(t, err)

	app := &App{config: cfg, logger: newLogger(false)}
	require.NoError(t, WithPersistence(context.Background(), app))
	t.Cleanup(app.Close)

	require.NoError(t, WithServices(context.Background(), app))
	return app
}

func TestWithServices_InMemoryDatabase(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t, "file:usersd_services?mode=memory&cache=shared")

	require.NotNil(t, app.tokens)
	require.NotNil(t, app.hasher)
	require.NotNil(t, app.auther)
	require.NotNil(t, app.users)
	require.NotNil(t, app.metrics)

	require.NoError(t, app.repo.Migrate(ctx))
	require.NoError(t, app.repo.Migrate(ctx))

	status, err := app.repo.MigrationStatus(ctx)
	require.NoError(t, err)
	for _, m := range status {
		assert.True(t, m.IsApplied(), m.Name)
	}

	_, err = app.auther.Register(ctx, auth.RegisterUserMessage{
		Name: "Root", Email: "root@x.com", Password: "s3cret",
	}, auth.RoleAdmin)
	require.NoError(t, err)

	_, err = app.auther.Register(ctx, auth.RegisterUserMessage{
		Name: "Mike", Email: "mike@x.com", Password: "s3cret",
	}, auth.RoleUser)
	require.NoError(t, err)

	_, err = app.auther.Register(ctx, auth.RegisterUserMessage{
		Name: "Again", Email: "MIKE@x.com", Password: "s3cret",
	}, auth.RoleUser)
	assert.True(t, auth.IsDuplicateEmailError(err))

	token, view, err := app.auther.Login(ctx, "root@x.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "root@x.com", view.Email)

	subject, err := app.tokens.ExtractSubject(token.Value)
	require.NoError(t, err)
	assert.Equal(t, "root@x.com", subject)

	all, err := app.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	admins, err := app.users.ListByRole(ctx, auth.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "root@x.com", admins[0].Email)
}

func TestWithServices_RejectsWeakSigningKey(t *testing.T) {
	cfg, err := auth.ParseConfig(env.Options{Environment: map[string]string{
		"AUTH_SIGNING_KEY": "short",
		"DATABASE_URL":     "file:usersd_weak?mode=memory&cache=shared",
	}})
	require.NoError(t, err)

	app := &App{config: cfg, logger: newLogger(false)}
	require.NoError(t, WithPersistence(context.Background(), app))
	t.Cleanup(app.Close)

	err = WithServices(context.Background(), app)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrWeakSigningKey)
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestCommands_MigrateCreateAndList(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "users.db")
	t.Setenv("AUTH_SIGNING_KEY", testSigningKey)
	t.Setenv("AUTH_BCRYPT_COST", "4")
	t.Setenv("DATABASE_URL", dsn)

	missing := filepath.Join(t.TempDir(), "missing.env")

	runCommand(t, "migrate", "--env-file", missing)

	status := runCommand(t, "migrate", "status", "--env-file", missing)
	assert.Contains(t, status, "20250101000001_create_users: applied")
	assert.Contains(t, status, "20250101000002_users_indexes: applied")

	created := runCommand(t, "users", "create", "--env-file", missing,
		"--name", "Root", "--email", "root@x.com", "--password", "s3cret", "--admin=true")
	assert.Contains(t, created, "root@x.com")

	runCommand(t, "users", "create", "--env-file", missing,
		"--name", "Mike", "--email", "mike@x.com", "--password", "s3cret", "--admin=false")

	var admins []auth.UserView
	raw := runCommand(t, "users", "list", "--env-file", missing, "--role", "ADMIN")
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(raw)), &admins))
	require.Len(t, admins, 1)
	assert.Equal(t, "root@x.com", admins[0].Email)
	assert.Equal(t, []auth.UserRole{auth.RoleAdmin}, admins[0].Roles)

	var all []auth.UserView
	raw = runCommand(t, "users", "list", "--env-file", missing, "--role", "")
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(raw)), &all))
	assert.Len(t, all, 2)
}
