package payload

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
)

// Recognised compression algorithm tokens. Comparison is
// case-insensitive on the wire.
const (
	AlgorithmGZIP    = "GZIP"
	AlgorithmDEFLATE = "DEFLATE"
)

// compress compresses raw bytes with the named algorithm.
func compress(algorithm string, data []byte) ([]byte, error) {
	var buf bytes.Buffer

	switch {
	case equalFold(algorithm, AlgorithmGZIP):
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("payload: gzip compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("payload: gzip compress: %w", err)
		}

	case equalFold(algorithm, AlgorithmDEFLATE):
		w, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			return nil, fmt.Errorf("payload: deflate compress: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("payload: deflate compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("payload: deflate compress: %w", err)
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}

	return buf.Bytes(), nil
}

// decompress reverses compress for the named algorithm.
func decompress(algorithm string, data []byte) ([]byte, error) {
	switch {
	case equalFold(algorithm, AlgorithmGZIP):
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %w", ErrInvalidPayload, err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %w", ErrInvalidPayload, err)
		}
		return out, nil

	case equalFold(algorithm, AlgorithmDEFLATE):
		r := flate.NewReader(bytes.NewReader(data))
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: deflate: %w", ErrInvalidPayload, err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
}
