package domain

import (
	"errors"
	"strings"
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrProviderFailure     = errors.New("provider failure")
)

// ValidationError reports a malformed caller request. It is always detected
// locally, before any provider call, and maps to a 4xx response.
type ValidationError struct {
	Reason           string
	MissingFields    []string
	AvailableMethods []string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validation builds a plain ValidationError with a fixed reason string.
func Validation(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// MissingArguments builds the canonical missing-required-arguments error.
func MissingArguments(fields []string) *ValidationError {
	return &ValidationError{
		Reason:        "Missing required arguments: " + strings.Join(fields, ", "),
		MissingFields: fields,
	}
}
