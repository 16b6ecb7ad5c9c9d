package payload

import "errors"

// Domain-specific errors for payload encoding and decoding.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidPayload is returned when a payload cannot be decoded or
	// decompressed.
	ErrInvalidPayload = errors.New("payload: invalid payload")

	// ErrUnknownAlgorithm is returned when a compression envelope names
	// an algorithm other than GZIP or DEFLATE.
	ErrUnknownAlgorithm = errors.New("payload: unknown compression algorithm")

	// ErrUnsupportedValue is returned when a metric value cannot be
	// represented as its declared data type.
	ErrUnsupportedValue = errors.New("payload: unsupported metric value")
)
