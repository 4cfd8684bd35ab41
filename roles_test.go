package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-users-auth"
	"github.com/goliatone/go-users-auth/middleware/authn"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want auth.UserRole
		ok   bool
	}{
		{in: "USER", want: auth.RoleUser, ok: true},
		{in: "ADMIN", want: auth.RoleAdmin, ok: true},
		{in: "admin", ok: false},
		{in: "Admin", ok: false},
		{in: " ADMIN ", ok: false},
		{in: "root", ok: false},
		{in: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := auth.ParseRole(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}

	assert.ElementsMatch(t, []auth.UserRole{auth.RoleUser, auth.RoleAdmin}, auth.GetAllRoles())
}

func TestUser_AddRolesIsAdditive(t *testing.T) {
	u := &auth.User{Roles: []auth.UserRole{auth.RoleUser}}

	u.AddRoles(auth.RoleAdmin, auth.RoleUser, auth.RoleAdmin)
	assert.Equal(t, []auth.UserRole{auth.RoleUser, auth.RoleAdmin}, u.Roles)
	assert.True(t, u.HasRole(auth.RoleAdmin))
}

func TestUser_CloneAndView(t *testing.T) {
	now := time.Now()
	u := &auth.User{
		Name:         "Alice",
		Email:        "alice@x.com",
		PasswordHash: "secret-hash",
		Roles:        []auth.UserRole{auth.RoleUser},
		CreatedAt:    &now,
	}

	c := u.Clone()
	c.Roles[0] = auth.RoleAdmin
	*c.CreatedAt = now.Add(time.Hour)

	assert.Equal(t, auth.RoleUser, u.Roles[0])
	assert.Equal(t, now, *u.CreatedAt)

	v := u.View()
	assert.Equal(t, "alice@x.com", v.Email)
	assert.Equal(t, now, v.CreatedAt)
	assert.Nil(t, (*auth.User)(nil).Clone())
}

func TestCurrentSubjectAndCan(t *testing.T) {
	ctx := context.Background()

	_, ok := auth.CurrentSubject(ctx)
	assert.False(t, ok)
	assert.False(t, auth.Can(ctx, auth.RoleUser))

	ctx = authn.WithSecurityContext(ctx, authn.SecurityContext{
		Subject:     "alice@x.com",
		Authorities: []string{auth.RoleUser},
	})

	subject, ok := auth.CurrentSubject(ctx)
	require.True(t, ok)
	assert.Equal(t, "alice@x.com", subject)
	assert.True(t, auth.Can(ctx, auth.RoleUser))
	assert.False(t, auth.Can(ctx, auth.RoleAdmin))
}

func TestUserProvider_LoadPrincipal(t *testing.T) {
	ctx := context.Background()
	store := auth.NewMemoryUsers()
	alice := seedUser(t, store, "Alice", "alice@x.com", auth.RoleUser, auth.RoleAdmin)

	provider := auth.NewUserProvider(store, testHasher()).WithLogger(newQuietLogger())

	identity, err := provider.LoadPrincipal(ctx, "ALICE@x.com")
	require.NoError(t, err)
	assert.Equal(t, alice.Email, identity.Subject())
	assert.Equal(t, []string{auth.RoleUser, auth.RoleAdmin}, identity.Authorities())

	_, err = provider.LoadPrincipal(ctx, "nobody@x.com")
	assert.True(t, auth.IsUserNotFoundError(err))
}

func TestUserProvider_VerifyIdentityReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := auth.NewMemoryUsers()
	seedUser(t, store, "Alice", "alice@x.com")

	provider := auth.NewUserProvider(store, testHasher())

	user, err := provider.VerifyIdentity(ctx, "alice@x.com", "pw1")
	require.NoError(t, err)
	user.Name = "Mallory"

	stored, err := store.FindByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.Name)
}
