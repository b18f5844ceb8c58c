package validation

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wavelength-chat/wavelength-backend/internal/apperr"
	"github.com/wavelength-chat/wavelength-backend/internal/models"
)

const (
	GroupNameMinLength = 3
	GroupNameMaxLength = 50
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// entityid matches the 24-hex identifier shape used by every entity.
	_ = v.RegisterValidation("entityid", func(fl validator.FieldLevel) bool {
		return models.ValidID(fl.Field().String())
	})
	return v
}

// Struct validates a tagged request struct and reports the first failing
// field as a ValidationError with field-level detail.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if ok := errors.As(err, &fieldErrs); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperr.Validation(
			"invalid_"+strings.ToLower(fe.Field()),
			fmt.Sprintf("field %s failed on the %q rule", fe.Field(), fe.Tag()),
		)
	}
	return apperr.Validation("invalid_request", "invalid request")
}

// RequireID rejects ids that do not have the canonical 24-hex shape.
// Shape failures are validation errors, never not-found.
func RequireID(field, id string) error {
	if !models.ValidID(id) {
		return apperr.Validation("invalid_"+field, fmt.Sprintf("%s must be a 24-character hex id", field))
	}
	return nil
}

// NormalizeGroupName trims and checks the 3-50 character group name rule.
func NormalizeGroupName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) < GroupNameMinLength || len(name) > GroupNameMaxLength {
		return "", apperr.Validation("invalid_chat_name",
			fmt.Sprintf("chat name must be between %d and %d characters", GroupNameMinLength, GroupNameMaxLength))
	}
	return name, nil
}

func MaxMessageLength() int {
	maxStr := os.Getenv("MAX_MESSAGE_LENGTH")
	if maxStr == "" {
		return 4000
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 1 {
		return 4000
	}
	return max
}

// MessageContent trims the content and enforces the configured length
// ceiling. Over-length content is rejected, never truncated: a silent
// cut can split a multi-byte rune and the sender would not know their
// message arrived short.
func MessageContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperr.Validation("missing_content", "message content is required")
	}
	if max := MaxMessageLength(); len(content) > max {
		return "", apperr.Validation("content_too_long",
			fmt.Sprintf("message content must be at most %d bytes", max))
	}
	return content, nil
}
