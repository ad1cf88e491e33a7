package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrScenarioNotFound = fmt.Errorf("%w: scenario", ErrNotFound)

	// Validation errors
	ErrInvalidField    = errors.New("unknown vitals field")
	ErrInvalidScenario = errors.New("invalid planning scenario")

	// Upstream errors
	ErrUpstreamUnavailable = errors.New("analytics backend unavailable")
	ErrUpstreamMalformed   = errors.New("malformed analytics backend response")
)

// NewUpstreamError wraps a transport failure with its endpoint.
func NewUpstreamError(endpoint string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, endpoint, err)
}

// Error checking helpers
func IsScenarioNotFound(err error) bool {
	return errors.Is(err, ErrScenarioNotFound)
}

func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrUpstreamMalformed)
}
