package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/finance-tracker/internal/observability"
	apperrors "github.com/spec-kit/finance-tracker/pkg/util/errorutil"
)

// RegisterMiddlewares installs the global chain: request deadline, access log,
// then error rendering. The access log sits outside the renderer so it records
// the status actually written, recovered panics included.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(withDeadline(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(renderErrors(logger, metrics))
}

func withDeadline(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

type errorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// renderErrors turns any error or panic from the rest of the chain into the
// JSON error envelope tagged with the request id.
func renderErrors(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := nextRecovering(c, logger)
		if err == nil {
			return nil
		}

		domainErr := apperrors.ToDomainError(err)
		requestID := observability.RequestID(c)
		metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)

		if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("request_id", requestID),
				zap.String("route", c.Route().Path),
				zap.Error(err))
		}

		return c.Status(domainErr.HTTPStatus).JSON(errorEnvelope{Error: errorBody{
			Code:      domainErr.Code,
			Message:   domainErr.Message,
			Details:   domainErr.Details,
			RequestID: requestID,
		}})
	}
}

func nextRecovering(c *fiber.Ctx, logger *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic recovered",
				zap.String("request_id", observability.RequestID(c)),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			err = apperrors.NewInternalError(nil)
		}
	}()
	return c.Next()
}
