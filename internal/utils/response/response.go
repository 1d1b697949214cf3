// Package response writes sandbox API bodies. Failures always use the
// {"errors":[{"code","description"}]} shape clients decode.
package response

import (
	tapErrors "gosell/internal/errors"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(data)
}

func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

// Errors writes details as an error body with status.
func Errors(c *fiber.Ctx, status int, details ...tapErrors.ErrorDetail) error {
	return c.Status(status).JSON(tapErrors.NewErrorResponse(details...))
}

func Error(c *fiber.Ctx, status int, code tapErrors.ErrorCode, description string) error {
	return Errors(c, status, tapErrors.ErrorDetail{Code: code, Description: description})
}

func BadRequest(c *fiber.Ctx, code tapErrors.ErrorCode, description string) error {
	return Error(c, fiber.StatusBadRequest, code, description)
}

func Unauthorized(c *fiber.Ctx, description string) error {
	return Error(c, fiber.StatusUnauthorized, tapErrors.ErrorCodeUnauthorized, description)
}

func Forbidden(c *fiber.Ctx, description string) error {
	return Error(c, fiber.StatusForbidden, tapErrors.ErrorCodeForbidden, description)
}

func ServerError(c *fiber.Ctx) error {
	return Error(c, fiber.StatusInternalServerError, tapErrors.ErrorCodeInternalError, "internal server error")
}
