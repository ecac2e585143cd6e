package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"car-portal/internal/domain"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorHandler renders handler errors as ErrorResponse. Domain errors are
// mapped onto their HTTP status; anything unrecognised becomes a 500 and is
// logged with the trace id returned to the client.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"
		errorCode := "INTERNAL_ERROR"
		traceID := uuid.New().String()[:8]

		var (
			fiberErr    *fiber.Error
			validation  *domain.ValidationError
			mediaReject *domain.MediaRejectedError
		)

		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
			errorCode = codeForStatus(code, errorCode)
		case errors.As(err, &validation):
			code = fiber.StatusBadRequest
			message = validation.Message
			errorCode = "VALIDATION_ERROR"
		case errors.As(err, &mediaReject):
			code = fiber.StatusUnsupportedMediaType
			errorCode = "UNSUPPORTED_MEDIA_TYPE"
			if mediaReject.TooLarge {
				code = fiber.StatusRequestEntityTooLarge
				errorCode = "PAYLOAD_TOO_LARGE"
			}
			message = mediaReject.Reason
		case errors.Is(err, domain.ErrNotFound):
			code = fiber.StatusNotFound
			message = "Record not found"
			errorCode = "NOT_FOUND"
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("trace_id", traceID),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(ErrorResponse{
			Code:    errorCode,
			Message: message,
			TraceID: traceID,
		})
	}
}

func codeForStatus(status int, fallback string) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusUnsupportedMediaType:
		return "UNSUPPORTED_MEDIA_TYPE"
	case fiber.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	}
	return fallback
}

func NewError(code int, message string) *fiber.Error {
	return fiber.NewError(code, message)
}

func BadRequest(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}

func Unauthorized(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusUnauthorized, message)
}

func Forbidden(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusForbidden, message)
}

func NotFound(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusNotFound, message)
}

func Conflict(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusConflict, message)
}
