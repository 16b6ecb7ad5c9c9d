package host

import (
	"fmt"

	"github.com/nerrad567/sparkplug-core/payload"
)

// Logger defines the logging interface used by the host.
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

// State is the host lifecycle state.
type State int

// Host states.
const (
	Disconnected State = iota
	Connected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// GroupView mirrors one Sparkplug group.
type GroupView struct {
	ID    string
	Nodes map[string]*NodeView
}

// NodeView mirrors one edge node: its metrics by name and its devices
// by ID. A NodeView exists only between an observed NBIRTH and the
// matching NDEATH.
type NodeView struct {
	ID      string
	Metrics map[string]*payload.Metric
	Devices map[string]*DeviceView

	// bdSeq is the session identity from the NBIRTH, used to discard
	// stale death certificates from earlier sessions.
	bdSeq uint64

	// lastSeq tracks sequence continuity for gap detection.
	lastSeq uint8

	// aliases resolves alias-only DATA metrics back to the names the
	// birth certificate announced.
	aliases map[uint64]string
}

// DeviceView mirrors one device under a node.
type DeviceView struct {
	ID      string
	Metrics map[string]*payload.Metric
}
