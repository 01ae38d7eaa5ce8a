package serverutils

import (
	"errors"

	"ai-playbook-be/internal/pkg/logger"
	"ai-playbook-be/pkg/fault"

	"github.com/gofiber/fiber/v2"
)

// NewErrorHandler maps domain faults to HTTP status codes. Anything without
// a known kind becomes a 500.
func NewErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}

		switch fault.KindOf(err) {
		case fault.KindValidation:
			code = fiber.StatusBadRequest
		case fault.KindStaleReference:
			code = fiber.StatusConflict
		case fault.KindUpstream:
			code = fiber.StatusBadGateway
		case fault.KindStreamProtocol:
			code = fiber.StatusBadGateway
		}

		if code == fiber.StatusInternalServerError {
			log.Error("http", "unhandled error", map[string]interface{}{
				"path":  ctx.Path(),
				"error": err.Error(),
			})
		}

		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
