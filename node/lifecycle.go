package node

import (
	"context"
	"strings"
	"time"

	"github.com/nerrad567/sparkplug-core/events"
	"github.com/nerrad567/sparkplug-core/payload"
	"github.com/nerrad567/sparkplug-core/topic"
)

// evaluateTimeout bounds producer resolution for one payload assembly.
const evaluateTimeout = 5 * time.Second

// Birth publishes the node's birth certificate and starts scheduling.
//
// Connect births automatically; this entry point exists for
// applications that issued an explicit Death and want to re-announce
// within the same session.
func (n *Node) Birth() error {
	n.mu.Lock()
	err := n.birthLocked()
	evs := n.flushLocked()
	n.mu.Unlock()

	n.deliver(evs)
	return err
}

// Death publishes the node's death certificate, returning it to the
// connected-dead state without closing the session.
func (n *Node) Death() error {
	n.mu.Lock()
	err := n.deathLocked()
	evs := n.flushLocked()
	n.mu.Unlock()

	n.deliver(evs)
	return err
}

// birthLocked assembles and publishes NBIRTH, births every device, and
// starts the scan timers. Callers hold the mutex.
func (n *Node) birthLocked() error {
	if n.state != ConnectedDead {
		n.logger.Info("birth ignored", "state", n.state.String())
		return ErrInvalidTransition
	}

	ctx, cancel := context.WithTimeout(context.Background(), evaluateTimeout)
	defer cancel()

	now := time.Now()

	// NBIRTH carries the full node metric set plus the two reserved
	// metrics: the session bdSeq and the rebirth control, always false
	// when announced by the node itself.
	metrics := []payload.Metric{
		{Name: payload.BdSeqMetric, Type: payload.UInt64, Value: n.seq.BdSeq()},
		{Name: payload.RebirthMetric, Alias: 1, Type: payload.Boolean, Value: false},
	}
	snapshot, err := n.snapshotLocked(ctx, n.metrics, now)
	if err != nil {
		return err
	}
	metrics = append(metrics, snapshot...)

	// NBIRTH restarts the session sequence at 0.
	n.seq.ResetSeq()

	birthTopic := n.topics.Node(n.cfg.version(), n.cfg.GroupID, topic.NBIRTH, n.cfg.ID)
	if err := n.publishLocked(birthTopic, &payload.Payload{
		Timestamp: now.UnixMilli(),
		Seq:       payload.SeqValue(n.seq.NextSeq()),
		Metrics:   metrics,
	}, n.codec); err != nil {
		return err
	}

	n.state = ConnectedBorn
	n.logger.Info("node born",
		"group_id", n.cfg.GroupID,
		"node_id", n.cfg.ID,
		"bd_seq", n.seq.BdSeq(),
	)
	n.emitLocked(events.Birth, nil)

	// Announce every device: a device still marked born from a
	// previous session dies first so its certificate is fresh.
	for _, id := range n.sortedDeviceIDs() {
		d := n.devices[id]
		if d.born {
			if err := n.deviceDeathLocked(d); err != nil {
				n.logger.Warn("device death during birth failed", "device_id", id, "error", err)
			}
		}
		if err := n.deviceBirthLocked(ctx, d); err != nil {
			n.logger.Warn("device birth failed", "device_id", id, "error", err)
		}
	}

	n.sched.start(n.scanRatesLocked(), n.tick)
	return nil
}

// deathLocked publishes NDEATH and returns to connected-dead. The
// certificate carries no seq, only the session bdSeq. Callers hold the
// mutex.
func (n *Node) deathLocked() error {
	if n.state != ConnectedBorn {
		n.logger.Info("death ignored", "state", n.state.String())
		return ErrInvalidTransition
	}

	n.sched.stop()

	deathTopic := n.topics.Node(n.cfg.version(), n.cfg.GroupID, topic.NDEATH, n.cfg.ID)
	if err := n.publishLocked(deathTopic, deathPayload(n.seq.BdSeq()), n.plain); err != nil {
		return err
	}

	// A dead node has no born devices (their lifetimes nest inside
	// the node's). No DDEATH certificates go out; the NDEATH covers
	// them.
	for _, d := range n.devices {
		d.born = false
	}

	n.state = ConnectedDead
	n.logger.Info("node dead", "group_id", n.cfg.GroupID, "node_id", n.cfg.ID)
	n.emitLocked(events.Death, nil)
	return nil
}

// deathPayload builds an NDEATH certificate for the given bdSeq. The
// same shape serves as the MQTT will and the explicit death publish.
func deathPayload(bdSeq uint64) *payload.Payload {
	return &payload.Payload{
		Timestamp: time.Now().UnixMilli(),
		Metrics: []payload.Metric{
			{Name: payload.BdSeqMetric, Type: payload.UInt64, Value: bdSeq},
		},
	}
}

// handleNodeCommand processes inbound NCMD traffic.
//
// Metrics named Node Control/<cmd> route through the command table;
// only rebirth is recognised. Anything else is logged and ignored.
func (n *Node) handleNodeCommand(topicStr string, body []byte) error {
	t, err := topic.Parse(topicStr)
	if err != nil {
		return err
	}

	p, err := n.plain.Decode(body)
	if err != nil {
		n.logger.Warn("undecodable NCMD", "topic", topicStr, "error", err)
		n.bus.Emit(events.Message, &events.Raw{Topic: topicStr, Body: body})
		return nil
	}

	n.bus.Emit(events.NCmd, &events.Envelope{Topic: t, Payload: p})

	rebirth := false
	for i := range p.Metrics {
		m := &p.Metrics[i]
		cmd, ok := strings.CutPrefix(m.Name, "Node Control/")
		if !ok {
			continue
		}
		switch strings.ToLower(cmd) {
		case "rebirth":
			if v, ok := m.Value.(bool); ok && v {
				rebirth = true
			}
		default:
			n.logger.Warn("unknown node control command", "command", cmd)
		}
	}

	if rebirth {
		n.logger.Info("rebirth requested", "group_id", n.cfg.GroupID, "node_id", n.cfg.ID)
		// A rebirth tears the session down and dials a fresh one; it
		// runs off the transport callback goroutine so the handler
		// returns promptly.
		go n.rebirth()
	}
	return nil
}

// rebirth produces a fresh session: death, disconnect, connect. The
// new session carries an incremented bdSeq and an NBIRTH with seq 0.
func (n *Node) rebirth() {
	n.mu.Lock()
	if n.state == ConnectedBorn {
		if err := n.deathLocked(); err != nil {
			n.logger.Warn("death during rebirth failed", "error", err)
		}
	}
	if n.state != Disconnected {
		n.sched.stop()
		n.teardownTransportLocked()
		n.state = Disconnected
		n.emitLocked(events.Disconnected, nil)
	}
	evs := n.flushLocked()
	n.mu.Unlock()
	n.deliver(evs)

	if err := n.Connect(); err != nil {
		n.logger.Error("reconnect after rebirth failed", "error", err)
	}
}

// handleDeviceCommand forwards DCMD traffic to application code via the
// event bus. Interpretation of device commands is out of core scope.
func (n *Node) handleDeviceCommand(topicStr string, body []byte) error {
	t, err := topic.Parse(topicStr)
	if err != nil {
		return err
	}

	p, err := n.plain.Decode(body)
	if err != nil {
		n.logger.Warn("undecodable DCMD", "topic", topicStr, "error", err)
		n.bus.Emit(events.Message, &events.Raw{Topic: topicStr, Body: body})
		return nil
	}

	n.bus.Emit(events.DCmd, &events.Envelope{Topic: t, Payload: p})
	return nil
}

// handleHostState surfaces primary host online/offline transitions so
// applications can implement store-and-forward against host
// availability.
func (n *Node) handleHostState(topicStr string, body []byte) error {
	t, err := topic.Parse(topicStr)
	if err != nil {
		return err
	}

	n.bus.Emit(events.State, &events.StateChange{
		PrimaryHostID: t.PrimaryHostID,
		Online:        string(body) == "ONLINE",
	})
	return nil
}
