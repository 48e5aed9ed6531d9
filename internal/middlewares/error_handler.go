package middlewares

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

type errorResponse struct {
	APIVersion string     `json:"apiVersion"`
	Error      *errorInfo `json:"error"`
}

type errorInfo struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorHandler renders uncaught errors as the JSON API envelope. Internal
// errors are logged here; the response never leaks their details.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	if code == fiber.StatusInternalServerError {
		slog.Error("Unhandled request error", "path", ctx.Path(), "error", err)
		message = "Internal server error"
	}
	return ctx.Status(code).JSON(errorResponse{
		APIVersion: "1.0",
		Error: &errorInfo{
			Code:    code,
			Message: message,
		},
	})
}
