package engagement

import (
	"fmt"
	"net/http"

	apperrors "github.com/acme/contact-center-samples/pkg/errors"
)

// APIError describes a failed booking. StatusCode is 0 when no response was received.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("engagement: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == 0:
		return apperrors.ErrUnavailable
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return apperrors.ErrUnauthorized
	case e.StatusCode == http.StatusBadRequest:
		return apperrors.ErrValidation
	default:
		return apperrors.ErrVendor
	}
}

// Result is the terminal outcome of a booking: a created callback id on
// success, or Err on failure.
type Result struct {
	StatusCode int
	Headers    http.Header
	CallbackID string
	Err        *APIError
}

// Succeeded reports whether the callback was created.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Error returns the failure as an error value, or nil.
func (r Result) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

func failure(status int, headers http.Header, code int, message string) Result {
	return Result{
		StatusCode: status,
		Headers:    headers,
		Err:        &APIError{StatusCode: status, Code: code, Message: message},
	}
}
