package testutil

import (
	"context"
	"net/http"
	"time"

	"bookerregistry/internal/platform/middleware"
	"bookerregistry/pkg/requestcontext"
)

// WithPrincipal adds the authenticated subject and roles to the request
// context, as RequireAuth would.
func WithPrincipal(req *http.Request, subject string, roles ...string) *http.Request {
	ctx := requestcontext.WithPrincipal(req.Context(), subject)
	ctx = context.WithValue(ctx, middleware.ContextKeyRoles, roles)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request clock.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// BearerToken sets the Authorization header.
func BearerToken(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
