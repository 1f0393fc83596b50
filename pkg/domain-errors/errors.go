// Package domainerrors defines the coded error taxonomy shared across the
// service. Handlers translate codes to HTTP statuses; services attach codes at
// the point where an infrastructure fact becomes a domain outcome.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies a class of failure. Codes are stable API: clients branch on
// them, so renaming one is a breaking change.
type Code string

const (
	// CodePermissionDenied means the actor's role lacks the capability the
	// requested mutation is gated on. Recoverable, user-facing, no retry.
	CodePermissionDenied Code = "permission_denied"

	// CodeIllegalTransition means the entity's current lifecycle state has no
	// entry for the requested transition. Distinct from CodePermissionDenied:
	// the remediation is different (wait for/perform another transition vs.
	// ask someone with the right role).
	CodeIllegalTransition Code = "illegal_transition"

	// CodeNotFound means the entity id is unknown to the storage collaborator.
	CodeNotFound Code = "not_found"

	// CodePersistenceFailure means the storage collaborator failed mid-flight.
	// The mutation did not commit and no success audit record was written;
	// callers may retry.
	CodePersistenceFailure Code = "persistence_failure"

	// CodeConfiguration marks startup-time configuration defects, e.g. a
	// permission table with undefined role/capability cells. Fatal: the
	// gateway must not start.
	CodeConfiguration Code = "configuration_error"

	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeConflict     Code = "conflict"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal"
)

// Error carries a code plus a human-readable message, optionally wrapping an
// underlying cause so errors.Is/As keep working through it.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so transport layers never leak raw failure details.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status the thin transport layer should
// emit. The mapping lives here so every handler stays consistent.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeIllegalTransition, CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodePersistenceFailure, CodeConfiguration, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
