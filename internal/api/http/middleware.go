package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/orgchart-service/internal/auth"
	"github.com/spec-kit/orgchart-service/internal/observability"
	apperrors "github.com/spec-kit/orgchart-service/pkg/util/errorutil"
)

// RegisterMiddlewares installs the request timeout, the error envelope and
// the request logger, outermost first.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorEnvelopeMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorEnvelopeMiddleware renders every error as
// {"error": {"code", "message", "details"}}. Server errors also carry the
// request id so a caller can quote it.
func errorEnvelopeMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					append(requestFields(c), zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))...)
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}
			domainErr := apperrors.ToDomainError(err)
			metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)

			body := fiber.Map{
				"code":    domainErr.Code,
				"message": domainErr.Message,
			}
			if len(domainErr.Details) > 0 {
				body["details"] = domainErr.Details
			}
			switch {
			case domainErr.HTTPStatus >= fiber.StatusInternalServerError:
				body["request_id"] = observability.RequestID(c)
				logger.Error("request failed", append(requestFields(c), zap.Error(domainErr))...)
			case domainErr.Code == apperrors.CodeInvariant:
				// cycles, duplicate open roles
				logger.Warn("invariant violation",
					append(requestFields(c), zap.String("message", domainErr.Message), zap.Any("details", domainErr.Details))...)
			}
			c.Status(domainErr.HTTPStatus)
			err = c.JSON(fiber.Map{"error": body})
		}()
		return c.Next()
	}
}

func requestFields(c *fiber.Ctx) []zap.Field {
	fields := []zap.Field{
		zap.String("request_id", observability.RequestID(c)),
		zap.String("method", c.Method()),
		zap.String("route", c.Route().Path),
	}
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.Person != nil {
		fields = append(fields, zap.Int64("actor_id", principal.Person.ID))
	}
	return fields
}
