package errors

import (
	"github.com/gofiber/fiber/v2"
)

func RaiseError(context *fiber.Ctx, status int, message string, data string) error {
	return context.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    data})
}

// Raise writes err with the status of its kind. Errors without a kind are
// reported as internal.
func Raise(context *fiber.Ctx, err error) error {
	kind := KindOf(err)
	if kind == KindContention {
		context.Set(fiber.HeaderRetryAfter, "1")
	}
	return RaiseError(context, kind.Status(), kind.String(), err.Error())
}

func RaiseInternalServerError(context *fiber.Ctx, data string) error {
	return RaiseError(context, fiber.StatusInternalServerError, "internal error", data)
}

func RaiseBadRequestError(context *fiber.Ctx, data string) error {
	return RaiseError(context, fiber.StatusBadRequest, "bad request", data)
}

func RaiseTooManyRequestsError(context *fiber.Ctx, data string) error {
	return RaiseError(context, fiber.StatusTooManyRequests, "too many requests", data)
}
