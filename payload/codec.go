package payload

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/proto"

	"github.com/weekaung/sparkplugb-client/sproto"
)

// Options controls outbound payload encoding.
type Options struct {
	// Compress enables the compression envelope on encode.
	Compress bool

	// Algorithm selects GZIP or DEFLATE. Defaults to GZIP when
	// compression is enabled and no algorithm is set.
	Algorithm string
}

// Codec encodes and decodes Sparkplug B payloads.
//
// Encoding delegates to the external Sparkplug protobuf schema; this
// type adds the compression envelope on top. Decode transparently
// unwraps compressed payloads regardless of the local Options, so a
// host can consume both compressed and plain traffic.
//
// Thread Safety:
//   - Codec is stateless after construction and safe for concurrent use.
type Codec struct {
	opts Options
}

// NewCodec creates a codec with the given options.
func NewCodec(opts Options) *Codec {
	if opts.Compress && opts.Algorithm == "" {
		opts.Algorithm = AlgorithmGZIP
	}
	return &Codec{opts: opts}
}

// Encode serialises a payload, applying the compression envelope when
// enabled.
//
// A compressed message is itself a valid Sparkplug payload: the inner
// encoding is carried in the body field and a single "algorithm"
// metric announces the scheme.
//
// Returns:
//   - []byte: The wire bytes
//   - error: If the payload holds values its types cannot represent,
//     or compression fails
func (c *Codec) Encode(p *Payload) ([]byte, error) {
	raw, err := c.encodePlain(p)
	if err != nil {
		return nil, err
	}

	if !c.opts.Compress {
		return raw, nil
	}

	compressed, err := compress(c.opts.Algorithm, raw)
	if err != nil {
		return nil, err
	}

	envelope := &Payload{
		Timestamp: p.Timestamp,
		Body:      compressed,
		Metrics: []Metric{
			{
				Name:  AlgorithmMetric,
				Type:  String,
				Value: strings.ToUpper(c.opts.Algorithm),
			},
		},
	}
	return c.encodePlain(envelope)
}

// encodePlain serialises a payload without the compression envelope.
func (c *Codec) encodePlain(p *Payload) ([]byte, error) {
	pp, err := toProto(p)
	if err != nil {
		return nil, err
	}
	raw, err := proto.Marshal(pp)
	if err != nil {
		return nil, fmt.Errorf("payload: encode: %w", err)
	}
	return raw, nil
}

// Decode parses wire bytes into a payload.
//
// If the decoded payload carries an "algorithm" metric, the body is
// decompressed and re-decoded. Unknown algorithms fail with
// ErrUnknownAlgorithm; malformed bytes fail with ErrInvalidPayload.
func (c *Codec) Decode(data []byte) (*Payload, error) {
	p, err := decodeRaw(data)
	if err != nil {
		return nil, err
	}

	// Compression envelope: a top-level algorithm metric names the
	// scheme, the body holds the inner encoding.
	if alg := p.Metric(AlgorithmMetric); alg != nil {
		name, ok := alg.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: algorithm metric is not a string", ErrInvalidPayload)
		}
		inner, err := decompress(name, p.Body)
		if err != nil {
			return nil, err
		}

		innerPayload, err := decodeRaw(inner)
		if err != nil {
			return nil, fmt.Errorf("%w: decompressed body: %w", ErrInvalidPayload, err)
		}
		return innerPayload, nil
	}

	return p, nil
}

// decodeRaw parses wire bytes as one protobuf payload without looking
// for a compression envelope.
func decodeRaw(data []byte) (*Payload, error) {
	var pp sproto.Payload
	if err := proto.Unmarshal(data, &pp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return fromProto(&pp), nil
}
