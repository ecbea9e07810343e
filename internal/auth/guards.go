package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/finance-tracker/pkg/util/errorutil"
)

// TokenGate answers whether a token is still live for its subject.
type TokenGate interface {
	IsValid(tokenString, expectedSubject string) bool
}

// RequireIdentity rejects requests without a bound identity or whose token has expired.
func RequireIdentity(gate TokenGate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := IdentityFromFiber(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !gate.IsValid(id.Token, id.Subject) {
			return apperrors.NewUnauthorized("invalid or expired token")
		}
		return c.Next()
	}
}
