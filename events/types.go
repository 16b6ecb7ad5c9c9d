package events

import (
	"github.com/nerrad567/sparkplug-core/payload"
	"github.com/nerrad567/sparkplug-core/topic"
)

// Envelope pairs a decoded payload with the topic it arrived on or was
// sent to.
type Envelope struct {
	Topic   topic.Topic
	Payload *payload.Payload
}

// StateChange reports a primary host state observation.
type StateChange struct {
	PrimaryHostID string
	Online        bool
}

// Raw carries inbound bytes that failed to decode, so applications can
// inspect or divert malformed traffic without the core guessing.
type Raw struct {
	Topic string
	Body  []byte
}
