package authn_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-users-auth/middleware/authn"
)

// stubTokens accepts "good-<subject>" tokens
type stubTokens struct {
	panicOn  string
	rejectOn string
}

func (s stubTokens) ExtractSubject(token string) (string, error) {
	if token == s.panicOn {
		panic("boom")
	}
	if len(token) > 5 && token[:5] == "good-" {
		return token[5:], nil
	}
	return "", errors.New("invalid token")
}

func (s stubTokens) Validate(token, expected string) (bool, error) {
	if token == s.rejectOn {
		return false, nil
	}
	sub, err := s.ExtractSubject(token)
	if err != nil {
		return false, err
	}
	return sub == expected, nil
}

type identity struct {
	subject string
	roles   []string
}

func (i identity) Subject() string       { return i.subject }
func (i identity) Authorities() []string { return i.roles }

func loader(known map[string][]string) authn.PrincipalLoader {
	return authn.PrincipalLoaderFunc(func(_ context.Context, subject string) (authn.Identity, error) {
		roles, ok := known[subject]
		if !ok {
			return nil, errors.New("unknown")
		}
		return identity{subject: subject, roles: roles}, nil
	})
}

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []authn.Outcome
}

func (r *outcomeRecorder) listener(_ router.Context, o authn.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *outcomeRecorder) last() authn.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.outcomes) == 0 {
		return ""
	}
	return r.outcomes[len(r.outcomes)-1]
}

func newApp(t *testing.T, rec *outcomeRecorder, tokens stubTokens) *fiber.App {
	t.Helper()

	srv := router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		return fiber.New(fiber.Config{DisableStartupMessage: true})
	})

	app := srv.Router()
	app.Use(authn.New(authn.Config{
		Tokens: tokens,
		Principals: loader(map[string][]string{
			"alice@x.com": {"USER"},
			"root@x.com":  {"USER", "ADMIN"},
		}),
		PublicPaths: []string{"/public"},
		TokenLookup: "header:Authorization,query:auth_token",
		Listeners:   []authn.Listener{rec.listener},
	}))

	whoami := func(c router.Context) error {
		sc, ok := authn.FromRouter(c)
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(sc.Subject)
	}

	app.Get("/public", whoami)
	app.Get("/open", whoami)
	app.Get("/private", whoami, authn.RequireAuthenticated())
	app.Get("/admin", whoami, authn.RequireRole("ADMIN"))

	return srv.WrappedRouter()
}

func call(t *testing.T, app *fiber.App, path, authorization string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set(authn.HeaderAuthorization, authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestNew_Outcomes(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		authorization string
		outcome       authn.Outcome
		body          string
	}{
		{name: "public path", path: "/public", authorization: "Bearer good-alice@x.com", outcome: authn.OutcomePublic, body: "anonymous"},
		{name: "missing token", path: "/open", outcome: authn.OutcomeMissingToken, body: "anonymous"},
		{name: "wrong scheme", path: "/open", authorization: "Basic good-alice@x.com", outcome: authn.OutcomeMissingToken, body: "anonymous"},
		{name: "empty bearer", path: "/open", authorization: "Bearer ", outcome: authn.OutcomeMissingToken, body: "anonymous"},
		{name: "invalid token", path: "/open", authorization: "Bearer garbage", outcome: authn.OutcomeInvalidToken, body: "anonymous"},
		{name: "unknown principal", path: "/open", authorization: "Bearer good-ghost@x.com", outcome: authn.OutcomeUnknownPrincipal, body: "anonymous"},
		{name: "authenticated", path: "/open", authorization: "Bearer good-alice@x.com", outcome: authn.OutcomeAuthenticated, body: "alice@x.com"},
		{name: "scheme ignores case", path: "/open", authorization: "bearer good-alice@x.com", outcome: authn.OutcomeAuthenticated, body: "alice@x.com"},
		{name: "query token", path: "/open?auth_token=good-root@x.com", outcome: authn.OutcomeAuthenticated, body: "root@x.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &outcomeRecorder{}
			app := newApp(t, rec, stubTokens{})

			status, body := call(t, app, tt.path, tt.authorization)
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, tt.body, body)
			assert.Equal(t, tt.outcome, rec.last())
		})
	}
}

func TestNew_RejectedAfterPrincipalLoad(t *testing.T) {
	rec := &outcomeRecorder{}
	app := newApp(t, rec, stubTokens{rejectOn: "good-alice@x.com"})

	status, body := call(t, app, "/open", "Bearer good-alice@x.com")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anonymous", body)
	assert.Equal(t, authn.OutcomeRejectedToken, rec.last())
}

func TestNew_RecoversFromPanics(t *testing.T) {
	rec := &outcomeRecorder{}
	app := newApp(t, rec, stubTokens{panicOn: "explode"})

	status, body := call(t, app, "/open", "Bearer explode")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anonymous", body)
	assert.Equal(t, authn.OutcomeInvalidToken, rec.last())

	status, _ = call(t, app, "/private", "Bearer explode")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestGuards(t *testing.T) {
	rec := &outcomeRecorder{}
	app := newApp(t, rec, stubTokens{})

	tests := []struct {
		name          string
		path          string
		authorization string
		status        int
	}{
		{name: "private anonymous", path: "/private", status: http.StatusForbidden},
		{name: "private invalid", path: "/private", authorization: "Bearer nope", status: http.StatusForbidden},
		{name: "private authenticated", path: "/private", authorization: "Bearer good-alice@x.com", status: http.StatusOK},
		{name: "admin without role", path: "/admin", authorization: "Bearer good-alice@x.com", status: http.StatusForbidden},
		{name: "admin with role", path: "/admin", authorization: "Bearer good-root@x.com", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, app, tt.path, tt.authorization)
			assert.Equal(t, tt.status, status)
			if status == http.StatusForbidden {
				assert.JSONEq(t, `{"error":"forbidden"}`, body)
			}
		})
	}
}

func TestGetDefaultConfig(t *testing.T) {
	assert.Panics(t, func() { authn.GetDefaultConfig() })
	assert.Panics(t, func() { authn.GetDefaultConfig(authn.Config{Tokens: stubTokens{}}) })

	cfg := authn.GetDefaultConfig(authn.Config{Tokens: stubTokens{}, Principals: loader(nil)})
	assert.Equal(t, "Bearer", cfg.AuthScheme)
	assert.Equal(t, "Authorization", cfg.Header)
	assert.Equal(t, "header:Authorization", cfg.TokenLookup)
	assert.Equal(t, "security", cfg.ContextKey)
}

func TestSecurityContext(t *testing.T) {
	_, ok := authn.FromContext(context.Background())
	assert.False(t, ok)

	ctx := authn.WithSecurityContext(context.Background(), authn.SecurityContext{})
	_, ok = authn.FromContext(ctx)
	assert.False(t, ok, "zero value is anonymous")

	ctx = authn.WithSecurityContext(context.Background(), authn.SecurityContext{
		Subject:     "alice@x.com",
		Authorities: []string{"USER"},
	})
	sc, ok := authn.FromContext(ctx)
	require.True(t, ok)
	assert.True(t, sc.HasAuthority("USER"))
	assert.False(t, sc.HasAuthority("ADMIN"))
}
