package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// Binding outcomes reported to a BindingRecorder.
const (
	BindingBound     = "bound"
	BindingAnonymous = "anonymous"
	BindingRejected  = "rejected"
)

// SubjectExtractor resolves a raw token to its subject.
type SubjectExtractor interface {
	ExtractSubject(tokenString string) (string, error)
}

// BindingRecorder counts binder outcomes.
type BindingRecorder interface {
	RecordIdentityBinding(outcome string)
}

// IdentityBinder resolves bearer tokens into the request identity.
// It never rejects a request; protected routes add RequireIdentity.
type IdentityBinder struct {
	tokens   SubjectExtractor
	logger   *zap.Logger
	recorder BindingRecorder
}

// NewIdentityBinder constructs middleware. recorder may be nil.
func NewIdentityBinder(tokens SubjectExtractor, logger *zap.Logger, recorder BindingRecorder) *IdentityBinder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityBinder{tokens: tokens, logger: logger, recorder: recorder}
}

// Handle binds the bearer token subject, if any, and always continues the chain.
func (b *IdentityBinder) Handle(c *fiber.Ctx) error {
	if _, bound := IdentityFromFiber(c); bound {
		return c.Next()
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		b.record(BindingAnonymous)
		return c.Next()
	}

	raw := authHeader[len(bearerPrefix):]
	subject, err := b.tokens.ExtractSubject(raw)
	if err != nil {
		b.logger.Warn("bearer token rejected",
			zap.String("path", c.Path()),
			zap.Error(err))
		b.record(BindingRejected)
		return c.Next()
	}

	c.SetUserContext(WithIdentity(c.UserContext(), Identity{Subject: subject, Token: raw}))
	b.record(BindingBound)
	return c.Next()
}

func (b *IdentityBinder) record(outcome string) {
	if b.recorder != nil {
		b.recorder.RecordIdentityBinding(outcome)
	}
}
