// Package apperr carries the error taxonomy shared by the chat core.
// Every service-level failure is one of these kinds; handlers translate
// the kind to an HTTP status and never leak raw storage errors.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindInternal is the zero value: anything not classified below.
	KindInternal Kind = iota
	// KindValidation covers malformed input shape, length or format.
	KindValidation
	// KindNotFound covers absent chats, users and messages.
	KindNotFound
	// KindConflict covers duplicate state, e.g. adding an existing member.
	KindConflict
	// KindForbidden covers failed authority or membership checks.
	KindForbidden
	// KindInvalidOperation covers self-referential or already-satisfied
	// precondition requests.
	KindInvalidOperation
	// KindUnavailable covers storage or collaborator failure.
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindInvalidOperation:
		return "invalid_operation"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a classified failure with a stable machine code and a
// human-readable message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap classifies an underlying error without losing it.
func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

func Forbidden(code, message string) *Error {
	return New(KindForbidden, code, message)
}

func InvalidOperation(code, message string) *Error {
	return New(KindInvalidOperation, code, message)
}

func Unavailable(code string, err error) *Error {
	return Wrap(KindUnavailable, code, "service temporarily unavailable", err)
}

// KindOf extracts the kind from any error in the chain. Unclassified
// errors report KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf extracts the stable code, or "" for unclassified errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
