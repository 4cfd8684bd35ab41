package authn

import (
	"context"

	"github.com/goliatone/go-router"
)

// SecurityContext is the request scoped authentication result. The zero
// value is anonymous.
type SecurityContext struct {
	Subject     string   `json:"subject"`
	Authorities []string `json:"authorities"`
}

// IsAuthenticated reports whether a principal was established
func (s SecurityContext) IsAuthenticated() bool {
	return s.Subject != ""
}

// HasAuthority reports whether authority was granted
func (s SecurityContext) HasAuthority(authority string) bool {
	for _, a := range s.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

type contextKey struct{ name string }

var securityCtxKey = &contextKey{"security"}

// WithSecurityContext stores sc in ctx
func WithSecurityContext(ctx context.Context, sc SecurityContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, securityCtxKey, sc)
}

// FromContext returns the security context stored in ctx
func FromContext(ctx context.Context) (SecurityContext, bool) {
	if ctx == nil {
		return SecurityContext{}, false
	}
	sc, ok := ctx.Value(securityCtxKey).(SecurityContext)
	if !ok || !sc.IsAuthenticated() {
		return SecurityContext{}, false
	}
	return sc, true
}

// FromRouter returns the security context of the current request
func FromRouter(c router.Context) (SecurityContext, bool) {
	return FromContext(c.Context())
}
