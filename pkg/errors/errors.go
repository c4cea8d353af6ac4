package errors

import "errors"

// Sentinels for vendor and configuration errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrVendor       = errors.New("vendor api error")
	ErrUnavailable  = errors.New("service unavailable")
)

// Is reports whether err is one of the sentinels.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Wrap adds context to an error.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Join(errors.New(message), err)
}
