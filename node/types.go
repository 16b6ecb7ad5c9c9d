package node

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/sparkplug-core/payload"
)

// Logger defines the logging interface used by the node.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// State is the edge node lifecycle state.
type State int

// Edge node states. A node is in exactly one state at any moment.
const (
	Disconnected State = iota
	ConnectedDead
	ConnectedBorn
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case ConnectedDead:
		return "connected.dead"
	case ConnectedBorn:
		return "connected.born"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Producer is a synchronous metric value source, invoked on every
// publish evaluation.
type Producer func() (any, error)

// AsyncProducer is a metric value source that may suspend, for example
// to read hardware. The context carries the evaluation deadline.
type AsyncProducer func(ctx context.Context) (any, error)

// Deadband configures report-by-exception for a numeric metric.
//
// A new value is suppressed while it stays within Value of the last
// published value, unless MaxTime has elapsed since the last publish.
type Deadband struct {
	// Value is the minimum absolute change that qualifies a publish.
	Value float64

	// MaxTime forces a publish when this much time has passed since
	// the last one, regardless of the value. Zero disables the limit.
	MaxTime time.Duration
}

// Metric is one named, typed value owned by a node or device.
//
// Value holds either a scalar, a Producer, or an AsyncProducer. The
// scheduler resolves producers immediately before each publish
// consideration so one payload reflects one consistent snapshot.
type Metric struct {
	// Name is the metric path, unique within its owner.
	Name string

	// Type is the Sparkplug data type of the produced values.
	Type payload.DataType

	// Value is the scalar, Producer, or AsyncProducer.
	Value any

	// Alias is an optional numeric alias announced in the birth
	// certificate. Zero means no alias.
	Alias uint64

	// ScanRate is the interval between publish eligibility
	// evaluations. Zero excludes the metric from scheduling; it is
	// still announced in births.
	ScanRate time.Duration

	// Deadband configures report-by-exception. Only meaningful for
	// numeric types.
	Deadband *Deadband

	// Properties carries pass-through protocol annotations.
	Properties map[string]any

	// last records what actually went out on the wire.
	last *lastPublished
}

// lastPublished records the value a metric last put on the wire, not a
// later mutation of the metric.
type lastPublished struct {
	timestamp time.Time
	value     any
}

// LastPublished returns the timestamp and value of the metric's most
// recent publish, or false when it has never been published.
func (m *Metric) LastPublished() (time.Time, any, bool) {
	if m.last == nil {
		return time.Time{}, nil, false
	}
	return m.last.timestamp, m.last.value, true
}

// Device is a child of an edge node with its own metric set and
// birth/death lifecycle.
type Device struct {
	ID      string
	Metrics map[string]*Metric

	// born tracks the device sub-machine state. A device may be born
	// only while its owning node is born.
	born bool
}

// Born reports whether the device has issued its birth certificate in
// the current node session.
func (d *Device) Born() bool {
	return d.born
}

// evaluate resolves the metric's current scalar, invoking producer
// functions as needed.
func (m *Metric) evaluate(ctx context.Context) (any, error) {
	switch v := m.Value.(type) {
	case Producer:
		return v()
	case func() (any, error):
		return v()
	case AsyncProducer:
		return v(ctx)
	case func(ctx context.Context) (any, error):
		return v(ctx)
	default:
		return v, nil
	}
}
