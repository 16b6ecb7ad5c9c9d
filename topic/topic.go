package topic

import (
	"fmt"
	"strings"
)

// DefaultVersion is the Sparkplug namespace version this library targets.
const DefaultVersion = "spBv1.0"

// StatePrefix is the literal first segment of the reserved STATE topic.
const StatePrefix = "STATE"

// MessageType identifies the Sparkplug command segment of a topic.
type MessageType string

// Sparkplug B message types.
const (
	NBIRTH MessageType = "NBIRTH" // node birth certificate
	NDEATH MessageType = "NDEATH" // node death certificate
	NDATA  MessageType = "NDATA"  // node data
	NCMD   MessageType = "NCMD"   // node command
	DBIRTH MessageType = "DBIRTH" // device birth certificate
	DDEATH MessageType = "DDEATH" // device death certificate
	DDATA  MessageType = "DDATA"  // device data
	DCMD   MessageType = "DCMD"   // device command
	STATE  MessageType = "STATE"  // primary host state
)

// messageTypes is the set of valid command segments for parsing.
var messageTypes = map[string]MessageType{
	"NBIRTH": NBIRTH,
	"NDEATH": NDEATH,
	"NDATA":  NDATA,
	"NCMD":   NCMD,
	"DBIRTH": DBIRTH,
	"DDEATH": DDEATH,
	"DDATA":  DDATA,
	"DCMD":   DCMD,
}

// IsDeviceType reports whether the message type addresses a device
// (and therefore requires a deviceId segment).
func (m MessageType) IsDeviceType() bool {
	switch m {
	case DBIRTH, DDEATH, DDATA, DCMD:
		return true
	default:
		return false
	}
}

// Topic is the structured form of a Sparkplug B topic string.
//
// For STATE topics only Type and PrimaryHostID are set; all other
// fields are empty.
type Topic struct {
	Version       string
	GroupID       string
	Type          MessageType
	EdgeNodeID    string
	DeviceID      string
	PrimaryHostID string
}

// Parse splits a slash-separated topic string into a Topic.
//
// The string is split into at most five parts. If the first part is
// literally "STATE", the remainder is the primary host ID and all other
// fields are absent.
//
// Returns:
//   - Topic: The parsed topic
//   - error: ErrInvalidTopic or ErrUnknownMessageType on grammar violations
func Parse(s string) (Topic, error) {
	if s == "" {
		return Topic{}, fmt.Errorf("%w: empty string", ErrInvalidTopic)
	}

	parts := strings.SplitN(s, "/", 5)

	// Reserved STATE namespace: STATE/<primaryHostId>
	if parts[0] == StatePrefix {
		if len(parts) < 2 || parts[1] == "" {
			return Topic{}, fmt.Errorf("%w: STATE topic missing host id in %q", ErrInvalidTopic, s)
		}
		// The host ID is everything after the prefix.
		return Topic{
			Type:          STATE,
			PrimaryHostID: strings.Join(parts[1:], "/"),
		}, nil
	}

	if len(parts) < 4 {
		return Topic{}, fmt.Errorf("%w: %q has %d segments, need at least 4", ErrInvalidTopic, s, len(parts))
	}

	msgType, ok := messageTypes[parts[2]]
	if !ok {
		return Topic{}, fmt.Errorf("%w: %q in %q", ErrUnknownMessageType, parts[2], s)
	}

	t := Topic{
		Version:    parts[0],
		GroupID:    parts[1],
		Type:       msgType,
		EdgeNodeID: parts[3],
	}

	if len(parts) == 5 {
		t.DeviceID = parts[4]
	}

	if msgType.IsDeviceType() && t.DeviceID == "" {
		return Topic{}, fmt.Errorf("%w: %s topic %q missing device id", ErrInvalidTopic, msgType, s)
	}
	if !msgType.IsDeviceType() && t.DeviceID != "" {
		return Topic{}, fmt.Errorf("%w: %s topic %q has unexpected device id", ErrInvalidTopic, msgType, s)
	}

	return t, nil
}

// String renders the topic back to its wire form.
func (t Topic) String() string {
	if t.Type == STATE {
		return StatePrefix + "/" + t.PrimaryHostID
	}
	s := t.Version + "/" + t.GroupID + "/" + string(t.Type) + "/" + t.EdgeNodeID
	if t.DeviceID != "" {
		s += "/" + t.DeviceID
	}
	return s
}
