package node

import "errors"

// Domain-specific errors for edge node operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidTransition is returned when a lifecycle call is not
	// legal in the current state. The state is left unchanged.
	ErrInvalidTransition = errors.New("node: invalid state transition")

	// ErrUnknownDevice is returned when a device ID is not attached to
	// the node.
	ErrUnknownDevice = errors.New("node: unknown device")

	// ErrNotBorn is returned when publishing data for a node or device
	// that has not issued its birth certificate.
	ErrNotBorn = errors.New("node: not born")

	// ErrConfig is returned for construction-time misconfiguration.
	ErrConfig = errors.New("node: invalid configuration")
)
