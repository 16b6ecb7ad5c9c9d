package topic

import "errors"

// Domain-specific errors for topic handling.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidTopic is returned when a topic string does not match the
	// Sparkplug B grammar.
	ErrInvalidTopic = errors.New("topic: invalid sparkplug topic")

	// ErrUnknownMessageType is returned when the command segment is not a
	// recognised Sparkplug message type.
	ErrUnknownMessageType = errors.New("topic: unknown message type")
)
