// Package payload implements the Sparkplug B payload model and codec.
//
// This package manages:
//   - A typed domain model (Payload, Metric, DataType) independent of
//     the wire representation
//   - Encoding and decoding via the external Sparkplug B protobuf
//     schema (github.com/weekaung/sparkplugb-client/sproto)
//   - The optional compression envelope (GZIP or DEFLATE), where the
//     inner payload is compressed into the body field and announced by
//     an "algorithm" metric
//   - The seq field and the reserved metric names (bdSeq,
//     Node Control/Rebirth); the codec encodes them as given, and the
//     node sets them before each encode
//
// # 64-bit Integers
//
// Int64 and UInt64 metric values ride through encode and decode as
// native int64/uint64. They are never converted to float64, so values
// above 2^53 keep full precision.
//
// # Usage
//
//	codec := payload.NewCodec(payload.Options{})
//	data, err := codec.Encode(&payload.Payload{
//	    Timestamp: time.Now().UnixMilli(),
//	    Metrics: []payload.Metric{
//	        {Name: "Temperature", Type: payload.Double, Value: 25.5},
//	    },
//	})
//
//	decoded, err := codec.Decode(data)
//
// With compression enabled the codec transparently wraps outbound
// payloads and unwraps inbound ones:
//
//	codec := payload.NewCodec(payload.Options{Compress: true, Algorithm: "GZIP"})
package payload
