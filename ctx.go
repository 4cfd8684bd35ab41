package auth

import (
	"context"

	"github.com/goliatone/go-router"

	"github.com/goliatone/go-users-auth/middleware/authn"
)

// CurrentSubject returns the authenticated subject of ctx, if any
func CurrentSubject(ctx context.Context) (string, bool) {
	sc, ok := authn.FromContext(ctx)
	if !ok {
		return "", false
	}
	return sc.Subject, true
}

// Can reports whether the principal in ctx holds role
func Can(ctx context.Context, role UserRole) bool {
	sc, ok := authn.FromContext(ctx)
	if !ok {
		return false
	}
	return sc.HasAuthority(role)
}

// actorFromRouter names the caller of a request for activity events
func actorFromRouter(c router.Context) ActorRef {
	if subject, ok := CurrentSubject(c.Context()); ok {
		return ActorRef{ID: subject, Type: "user"}
	}
	return ActorRef{ID: "anonymous", Type: "anonymous"}
}
