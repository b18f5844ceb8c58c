package httpx

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/wavelength-chat/wavelength-backend/internal/apperr"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func requestID(c *fiber.Ctx) string {
	if v := c.Locals("requestid"); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func Error(c *fiber.Ctx, status int, code string, message string) error {
	if message == "" {
		message = "Request failed"
	}
	return c.Status(status).JSON(ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestID(c),
	})
}

// FromError maps a classified error to its HTTP status. Unclassified
// errors surface as a generic 500 so storage details never leak.
func FromError(c *fiber.Ctx, err error) error {
	code := apperr.CodeOf(err)
	var ae *apperr.Error
	message := "Request failed"
	if errors.As(err, &ae) {
		message = ae.Message
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindInvalidOperation:
		return Error(c, fiber.StatusBadRequest, code, message)
	case apperr.KindNotFound:
		return Error(c, fiber.StatusNotFound, code, message)
	case apperr.KindConflict:
		return Error(c, fiber.StatusConflict, code, message)
	case apperr.KindForbidden:
		return Error(c, fiber.StatusForbidden, code, message)
	case apperr.KindUnavailable:
		return Error(c, fiber.StatusServiceUnavailable, code, message)
	default:
		return Internal(c, "internal_error")
	}
}

func BadRequest(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusBadRequest, code, message)
}

func Unauthorized(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusUnauthorized, code, message)
}

func Forbidden(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusForbidden, code, message)
}

func Internal(c *fiber.Ctx, code string) error {
	return Error(c, fiber.StatusInternalServerError, code, "Internal server error")
}

func LocalUserID(c *fiber.Ctx, key string) (string, error) {
	v := c.Locals(key)
	if v == nil {
		return "", fmt.Errorf("missing local %s", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("invalid local %s", key)
	}
	return s, nil
}
