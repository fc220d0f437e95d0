// Package httpapi assembles the fiber application.
package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/luizxsoto/checkout-api-sub000/internal/apperr"
)

// Options configure New.
type Options struct {
	// Development exposes internal error causes in 500 responses.
	Development bool
	// AccessLog enables the per-request log line.
	AccessLog bool
	Log       logrus.FieldLogger
}

// New returns an app with the error handler and common middleware set up.
// Routes are added with Register.
func New(opts Options) *fiber.App {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(opts.Log, opts.Development),
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: opts.Development,
	}))
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency}\n",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	return app
}

// ErrorHandler renders *apperr.AppError as-is. Fiber errors keep their
// status; anything else is logged and reported as a generic 500.
func ErrorHandler(log logrus.FieldLogger, development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperr.AppError
		if errors.As(err, &appErr) {
			return c.Status(appErr.Code).JSON(appErr)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
			return c.Status(fiberErr.Code).JSON(apperr.New(statusName(fiberErr.Code), fiberErr.Code, fiberErr.Message))
		}

		log.WithFields(logrus.Fields{"method": c.Method(), "path": c.Path()}).WithError(err).Error("request failed")
		msg := "Internal server error"
		if development {
			msg = err.Error()
		}
		internal := apperr.Internal(msg)
		return c.Status(internal.Code).JSON(internal)
	}
}

func statusName(code int) string {
	switch code {
	case fiber.StatusUnauthorized:
		return apperr.UnauthorizedException
	case fiber.StatusForbidden:
		return apperr.ForbiddenException
	case fiber.StatusNotFound:
		return apperr.NotFoundException
	case fiber.StatusConflict:
		return apperr.ConflictException
	}
	return apperr.ValidationException
}
