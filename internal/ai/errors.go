package ai

import (
	"errors"
	"fmt"
)

// ErrNoCredential is returned when the provider has no API key configured.
var ErrNoCredential = errors.New("api key is not configured")

// ExternalServiceError reports a failed call to the AI capability.
type ExternalServiceError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

func serviceErr(provider, op string, err error) error {
	return &ExternalServiceError{Provider: provider, Op: op, Err: err}
}
