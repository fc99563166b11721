package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusSessionExpired is the non-standard status reported for an expired refresh token.
const StatusSessionExpired = 440

// Error is an API error: a stable machine code, the HTTP status it maps to and a message safe
// to show to clients. Err keeps the underlying cause for logs only.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Status  int         `json:"-"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Err == nil:
		return e.Message
	default:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports a match on Code, so a clone with a custom message still matches its template.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t != nil && e.Code == t.Code
}

// New declares an error template.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap records cause under the given code and status.
func Wrap(cause error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: cause}
}

// Templates of the error taxonomy. Callers derive request-specific errors with Clone.
var (
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrNotRegistered      = New("NOT_REGISTERED", http.StatusBadRequest, "unregistered user or incorrect username")
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusBadRequest, "the password is incorrect")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "the user status is inactive, please contact the administrator")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrSessionExpired     = New("SESSION_EXPIRED", StatusSessionExpired, "session expired")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrTooManyRequests    = New("TOO_MANY_REQUESTS", http.StatusTooManyRequests, "too many requests")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// Plain sentinels raised by the storage layer.
var (
	ErrCacheMiss = errors.New("cache miss")
	ErrDuplicate = errors.New("duplicate key")
)

// FromError finds the API error in err's chain. Anything else is reported as ErrInternal with
// err kept as the cause.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies template, replacing its message unless message is empty.
func Clone(template *Error, message string) *Error {
	if template == nil {
		return nil
	}
	out := *template
	if message != "" {
		out.Message = message
	}
	return &out
}

// WithDetails clones template and attaches a details payload, e.g. per-field problems.
func WithDetails(template *Error, message string, details interface{}) *Error {
	out := Clone(template, message)
	if out != nil {
		out.Details = details
	}
	return out
}
