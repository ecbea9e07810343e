package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type contextKey string

const identityKey contextKey = "auth_identity"

// Identity is the request-scoped authenticated caller. It carries no roles or scopes.
type Identity struct {
	Subject string
	Token   string
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the identity bound to ctx, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.Subject == "" {
		return Identity{}, false
	}
	return id, true
}

// SubjectFromContext returns the bound subject (email), if any.
func SubjectFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.Subject, ok
}

// IdentityFromFiber reads the identity bound to the request's user context.
func IdentityFromFiber(c *fiber.Ctx) (Identity, bool) {
	return IdentityFromContext(c.UserContext())
}
