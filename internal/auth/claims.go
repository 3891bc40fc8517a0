// Package auth carries per-request identity claims through the engine.
//
// The engine never authenticates. A fronting identity provider terminates
// the login flow and forwards verified claims (tenant domain, username,
// role) on each request; this package only parses and threads them.
// Authorization decisions stay in the service layer, checked against
// ownership and contributor membership per operation.
package auth

import (
	"context"
	"net/http"
	"strings"
)

// Role flags forwarded by the identity provider.
const (
	RoleEditor      = "editor"
	RoleContributor = "contributor"
)

// Claims is the verified identity of the caller.
type Claims struct {
	Tenant   string // organisation domain, the partition for all data access
	Username string
	IsEditor bool
}

// Email returns the caller's email address (username@tenant).
func (c Claims) Email() string {
	return c.Username + "@" + c.Tenant
}

type contextKey struct{}

// NewContext returns a context carrying the given claims.
func NewContext(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext extracts the claims stored by the middleware.
func FromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(contextKey{}).(Claims)
	return c, ok
}

// Header names set by the fronting identity provider.
const (
	headerTenant = "X-Auth-Tenant"
	headerUser   = "X-Auth-User"
	headerRole   = "X-Auth-Role"
)

// Middleware extracts claims from trusted gateway headers and rejects
// requests without them. It never validates credentials itself.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := Claims{
			Tenant:   strings.ToLower(strings.TrimSpace(r.Header.Get(headerTenant))),
			Username: strings.ToLower(strings.TrimSpace(r.Header.Get(headerUser))),
			IsEditor: r.Header.Get(headerRole) == RoleEditor,
		}
		if c.Tenant == "" || c.Username == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), c)))
	})
}

// RequireEditor guards editor-only routes.
func RequireEditor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := FromContext(r.Context())
		if !ok || !c.IsEditor {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
