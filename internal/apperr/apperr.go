// Package apperr defines the error kinds shared across the relay.
//
// Callers classify failures with errors.Is against the sentinels below. Every
// constructor wraps the sentinel with %w, so the underlying cause stays
// reachable through errors.As as well.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication marks a webhook whose signature is missing or wrong.
	ErrAuthentication = errors.New("authentication failed")
	// ErrConfiguration marks a missing credential or identifier. It is always
	// returned before any network call is attempted.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation marks missing or invalid call parameters.
	ErrValidation = errors.New("validation error")
	// ErrUpstream marks a failed call to a third-party API.
	ErrUpstream = errors.New("upstream failure")
)

// Configuration returns an ErrConfiguration for the named environment variable.
func Configuration(variable string) error {
	return fmt.Errorf("%w: %s environment variable is not set", ErrConfiguration, variable)
}

// Validation returns an ErrValidation with the given message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Upstream wraps err, returned by the named operation, as an ErrUpstream.
func Upstream(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrUpstream, op, err)
}
