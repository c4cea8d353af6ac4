package workspace

import (
	"fmt"
	"net/http"

	apperrors "github.com/acme/contact-center-samples/pkg/errors"
)

// APIError is returned when the workspace API reports a failure.
type APIError struct {
	Operation  string
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("workspace: %s: status %d code %d: %s", e.Operation, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("workspace: %s: status %d code %d", e.Operation, e.StatusCode, e.Code)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.ErrUnauthorized
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return apperrors.ErrUnavailable
	default:
		return apperrors.ErrVendor
	}
}
