package serverutils

import (
	"errors"

	"ai-jobanalyzer-be/pkg/agent"
	"ai-jobanalyzer-be/pkg/tools"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware translates domain errors into HTTP responses so
// controllers can just return them.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var (
			validationErr *agent.ValidationError
			requestErr    *RequestValidationError
			stageErr      *agent.StageError
			toolErr       *tools.ToolError
			fiberErr      *fiber.Error
		)

		switch {
		case errors.As(err, &validationErr):
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(validationErr.Error()))
		case errors.As(err, &requestErr):
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(requestErr.Error()))
		case errors.Is(err, agent.ErrSessionNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse("session not found"))
		case errors.As(err, &stageErr):
			return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(stageErr.Error()))
		case errors.As(err, &toolErr):
			if toolErr.Timeout {
				return ctx.Status(fiber.StatusGatewayTimeout).JSON(ErrorResponse(toolErr.Error()))
			}
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(toolErr.Error()))
		case errors.As(err, &fiberErr):
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		default:
			return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("internal server error"))
		}
	}
}
