package host

import "errors"

// Domain-specific errors for host operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidTransition is returned when a lifecycle call is not
	// legal in the current state.
	ErrInvalidTransition = errors.New("host: invalid state transition")

	// ErrConfig is returned for construction-time misconfiguration.
	ErrConfig = errors.New("host: invalid configuration")
)
