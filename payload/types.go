package payload

// Reserved metric names the protocol layer inserts or interprets.
const (
	// BdSeqMetric ties an NBIRTH to the NDEATH registered as the MQTT
	// will for the same session.
	BdSeqMetric = "bdSeq"

	// RebirthMetric is the node control metric a host sets true to
	// force a full re-announce.
	RebirthMetric = "Node Control/Rebirth"

	// AlgorithmMetric announces the compression algorithm at the top
	// level of a compressed payload.
	AlgorithmMetric = "algorithm"
)

// DataType is the Sparkplug B metric data type code.
type DataType uint32

// Sparkplug B data types.
const (
	Unknown  DataType = 0
	Int8     DataType = 1
	Int16    DataType = 2
	Int32    DataType = 3
	Int64    DataType = 4
	UInt8    DataType = 5
	UInt16   DataType = 6
	UInt32   DataType = 7
	UInt64   DataType = 8
	Float    DataType = 9
	Double   DataType = 10
	Boolean  DataType = 11
	String   DataType = 12
	DateTime DataType = 13
	Text     DataType = 14
)

var dataTypeNames = map[DataType]string{
	Unknown:  "Unknown",
	Int8:     "Int8",
	Int16:    "Int16",
	Int32:    "Int32",
	Int64:    "Int64",
	UInt8:    "UInt8",
	UInt16:   "UInt16",
	UInt32:   "UInt32",
	UInt64:   "UInt64",
	Float:    "Float",
	Double:   "Double",
	Boolean:  "Boolean",
	String:   "String",
	DateTime: "DateTime",
	Text:     "Text",
}

// String returns the canonical name of the data type.
func (d DataType) String() string {
	if name, ok := dataTypeNames[d]; ok {
		return name
	}
	return "Unknown"
}

// IsNumeric reports whether the type participates in deadband
// comparison. Boolean, String, DateTime, and Text change-detect by
// inequality instead.
func (d DataType) IsNumeric() bool {
	switch d {
	case Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64, Float, Double:
		return true
	default:
		return false
	}
}

// ParseDataType resolves a type name like "Int32" or "double" to its
// code. Returns Unknown for unrecognised names.
func ParseDataType(name string) DataType {
	for code, n := range dataTypeNames {
		if equalFold(n, name) {
			return code
		}
	}
	return Unknown
}

// equalFold is an ASCII-only case-insensitive comparison; type names
// and algorithm tokens never contain non-ASCII characters.
func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Metric is one named, typed value inside a payload.
//
// Value holds the scalar in its native Go representation: int8..int64,
// uint8..uint64, float32, float64, bool, string, or []byte. A nil Value
// together with IsNull=true represents an explicit null.
type Metric struct {
	Name      string
	Alias     uint64 // 0 = no alias
	Type      DataType
	Timestamp int64 // milliseconds since epoch; 0 = unset
	IsNull    bool
	Value     any

	// Properties carries annotations attached by a BIRTH (for example
	// engineering units or a template chain). They are held on the
	// in-memory model so host mirrors can preserve them across plain
	// scalar DATA updates.
	Properties map[string]any
}

// Payload is the domain form of one Sparkplug B message body.
type Payload struct {
	Timestamp int64 // milliseconds since epoch
	Metrics   []Metric
	Seq       *uint64 // nil when the message type carries no seq (NDEATH)
	UUID      string
	Body      []byte
}

// Metric returns the first metric with the given name, or nil.
func (p *Payload) Metric(name string) *Metric {
	for i := range p.Metrics {
		if p.Metrics[i].Name == name {
			return &p.Metrics[i]
		}
	}
	return nil
}

// SeqValue returns a pointer to v, for building payloads with an
// explicit sequence number.
func SeqValue(v uint64) *uint64 {
	return &v
}
