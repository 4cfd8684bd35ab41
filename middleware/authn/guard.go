package authn

import (
	"github.com/goliatone/go-router"
)

// ForbiddenHandler writes the rejection for anonymous or
// under-privileged requests
var ForbiddenHandler = func(c router.Context) error {
	return c.JSON(router.StatusForbidden, map[string]string{"error": "forbidden"})
}

// RequireAuthenticated rejects requests without a security context
func RequireAuthenticated() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if _, ok := FromRouter(c); !ok {
				return ForbiddenHandler(c)
			}
			return next(c)
		}
	}
}

// RequireRole rejects requests whose principal holds none of roles
func RequireRole(roles ...string) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			sc, ok := FromRouter(c)
			if !ok {
				return ForbiddenHandler(c)
			}
			for _, r := range roles {
				if sc.HasAuthority(r) {
					return next(c)
				}
			}
			return ForbiddenHandler(c)
		}
	}
}
