package auth

import (
	"github.com/goliatone/go-users-auth/middleware/authn"
)

// UserIdentity adapts a User into the principal the authentication
// pipeline stores in the security context. Subject is the email, the
// value tokens are issued for.
type UserIdentity struct {
	email       string
	authorities []string
}

var _ authn.Identity = UserIdentity{}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *User) UserIdentity {
	if user == nil {
		return UserIdentity{}
	}
	return UserIdentity{
		email:       user.Email,
		authorities: append([]string{}, user.Roles...),
	}
}

// Subject returns the user's email address.
func (u UserIdentity) Subject() string {
	return u.email
}

// Authorities holds one entry per stored role
func (u UserIdentity) Authorities() []string {
	return append([]string{}, u.authorities...)
}
