package xerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common reusable application errors
var (
	ErrUnauthorized      = errors.New("unauthorized access")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrRateLimited       = errors.New("too many requests")
	ErrSessionExpired    = errors.New("session expired or invalid")
	ErrTokenRevoked      = errors.New("token has been revoked")
	ErrSessionTerminated = errors.New("session terminated")
)

// FieldError is one server-side validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// EntityError is an HTTP 422 response mapped field by field.
type EntityError struct {
	Status  int          `json:"-"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}

func (e *EntityError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return "validation failed"
}

// Field returns the message for a field, if any.
func (e *EntityError) Field(name string) (string, bool) {
	for _, fe := range e.Errors {
		if fe.Field == name {
			return fe.Message, true
		}
	}
	return "", false
}

// HTTPError is any other non-2xx response. Payload is the raw body.
type HTTPError struct {
	Status  int
	Message string
	Payload []byte
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.Status, http.StatusText(e.Status))
}

// RedirectError tells a server-side caller to send the current request elsewhere.
type RedirectError struct {
	Location string
}

func (e *RedirectError) Error() string {
	return "redirect to " + e.Location
}

func (e *RedirectError) Is(target error) bool {
	return target == ErrUnauthorized
}

// StatusOf extracts an HTTP status from a typed error, or fallback.
func StatusOf(err error, fallback int) int {
	var entity *EntityError
	if errors.As(err, &entity) {
		return http.StatusUnprocessableEntity
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrTokenRevoked) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrRateLimited) {
		return http.StatusTooManyRequests
	}
	return fallback
}

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
