package host

import (
	"time"

	"github.com/nerrad567/sparkplug-core/events"
	"github.com/nerrad567/sparkplug-core/payload"
	"github.com/nerrad567/sparkplug-core/topic"
)

// handleMessage is the single inbound path for every namespace
// subscription. It parses the topic, decodes the payload, and
// dispatches to the mirror by message type.
func (h *Host) handleMessage(topicStr string, body []byte) error {
	t, err := topic.Parse(topicStr)
	if err != nil {
		h.logger.Warn("unparseable topic", "topic", topicStr, "error", err)
		return nil
	}

	// STATE topics carry plain UTF-8 literals, not protobuf.
	if t.Type == topic.STATE {
		h.bus.Emit(events.State, &events.StateChange{
			PrimaryHostID: t.PrimaryHostID,
			Online:        string(body) == stateOnline,
		})
		return nil
	}

	p, err := h.codec.Decode(body)
	if err != nil {
		// Malformed traffic is surfaced raw and does not disturb the
		// mirror.
		h.logger.Warn("undecodable payload", "topic", topicStr, "error", err)
		h.bus.Emit(events.Message, &events.Raw{Topic: topicStr, Body: body})
		return nil
	}

	h.mu.Lock()
	switch t.Type {
	case topic.NBIRTH:
		h.applyNodeBirth(t, p)
		h.emitLocked(events.NBirth, &events.Envelope{Topic: t, Payload: p})
	case topic.DBIRTH:
		if h.applyDeviceBirth(t, p) {
			h.emitLocked(events.DBirth, &events.Envelope{Topic: t, Payload: p})
		}
	case topic.NDATA:
		if h.applyNodeData(t, p) {
			h.emitLocked(events.NData, &events.Envelope{Topic: t, Payload: p})
		}
	case topic.DDATA:
		if h.applyDeviceData(t, p) {
			h.emitLocked(events.DData, &events.Envelope{Topic: t, Payload: p})
		}
	case topic.NDEATH:
		if h.applyNodeDeath(t, p) {
			h.emitLocked(events.NDeath, &events.Envelope{Topic: t, Payload: p})
		}
	case topic.DDEATH:
		h.applyDeviceDeath(t, p)
		h.emitLocked(events.DDeath, &events.Envelope{Topic: t, Payload: p})
	case topic.NCMD:
		// Commands from other hosts are observed, not applied.
		h.emitLocked(events.NCmd, &events.Envelope{Topic: t, Payload: p})
	case topic.DCMD:
		h.emitLocked(events.DCmd, &events.Envelope{Topic: t, Payload: p})
	}
	evs := h.flushLocked()
	h.mu.Unlock()

	h.deliver(evs)
	return nil
}

// node returns the mirrored node, or nil. Callers hold the mutex.
func (h *Host) node(groupID, nodeID string) *NodeView {
	g, ok := h.groups[groupID]
	if !ok {
		return nil
	}
	return g.Nodes[nodeID]
}

// applyNodeBirth replaces the node's view with a fresh one built from
// the birth certificate.
func (h *Host) applyNodeBirth(t topic.Topic, p *payload.Payload) {
	g, ok := h.groups[t.GroupID]
	if !ok {
		g = &GroupView{ID: t.GroupID, Nodes: make(map[string]*NodeView)}
		h.groups[t.GroupID] = g
	}

	nv := &NodeView{
		ID:      t.EdgeNodeID,
		Metrics: make(map[string]*payload.Metric, len(p.Metrics)),
		Devices: make(map[string]*DeviceView),
		aliases: make(map[uint64]string),
	}
	indexMetrics(nv.Metrics, nv.aliases, p.Metrics)

	if bd := p.Metric(payload.BdSeqMetric); bd != nil {
		if v, ok := bd.Value.(uint64); ok {
			nv.bdSeq = v
		}
	}
	if p.Seq != nil {
		nv.lastSeq = uint8(*p.Seq)
	}

	g.Nodes[t.EdgeNodeID] = nv
	h.logger.Info("node born", "group_id", t.GroupID, "node_id", t.EdgeNodeID, "metrics", len(nv.Metrics))
}

// applyDeviceBirth attaches a device view under its node. A DBIRTH for
// an unknown node is a protocol gap: the view is desynchronised, so a
// rebirth is requested and the birth dropped.
func (h *Host) applyDeviceBirth(t topic.Topic, p *payload.Payload) bool {
	nv := h.node(t.GroupID, t.EdgeNodeID)
	if nv == nil {
		h.requestRebirthLocked(t.GroupID, t.EdgeNodeID, "DBIRTH for unknown node")
		return false
	}

	dv := &DeviceView{
		ID:      t.DeviceID,
		Metrics: make(map[string]*payload.Metric, len(p.Metrics)),
	}
	indexMetrics(dv.Metrics, nv.aliases, p.Metrics)
	nv.Devices[t.DeviceID] = dv

	h.trackSeq(nv, t, p)
	h.logger.Info("device born", "group_id", t.GroupID, "node_id", t.EdgeNodeID, "device_id", t.DeviceID)
	return true
}

// applyNodeData merges a value update into the node's metric map.
func (h *Host) applyNodeData(t topic.Topic, p *payload.Payload) bool {
	nv := h.node(t.GroupID, t.EdgeNodeID)
	if nv == nil {
		h.requestRebirthLocked(t.GroupID, t.EdgeNodeID, "NDATA for unknown node")
		return false
	}

	h.trackSeq(nv, t, p)
	mergeMetrics(nv.Metrics, nv.aliases, p.Metrics)
	return true
}

// applyDeviceData merges a value update into the device's metric map.
func (h *Host) applyDeviceData(t topic.Topic, p *payload.Payload) bool {
	nv := h.node(t.GroupID, t.EdgeNodeID)
	if nv == nil {
		h.requestRebirthLocked(t.GroupID, t.EdgeNodeID, "DDATA for unknown node")
		return false
	}
	dv := nv.Devices[t.DeviceID]
	if dv == nil {
		h.requestRebirthLocked(t.GroupID, t.EdgeNodeID, "DDATA for unknown device")
		return false
	}

	h.trackSeq(nv, t, p)
	mergeMetrics(dv.Metrics, nv.aliases, p.Metrics)
	return true
}

// applyNodeDeath removes the node and all its devices. A death
// certificate whose bdSeq does not match the current session is stale
// (an old will delivered late) and is ignored.
func (h *Host) applyNodeDeath(t topic.Topic, p *payload.Payload) bool {
	nv := h.node(t.GroupID, t.EdgeNodeID)
	if nv == nil {
		return false
	}

	if bd := p.Metric(payload.BdSeqMetric); bd != nil {
		if v, ok := bd.Value.(uint64); ok && v != nv.bdSeq {
			h.logger.Warn("stale death certificate ignored",
				"group_id", t.GroupID,
				"node_id", t.EdgeNodeID,
				"death_bd_seq", v,
				"session_bd_seq", nv.bdSeq,
			)
			return false
		}
	}

	delete(h.groups[t.GroupID].Nodes, t.EdgeNodeID)
	h.logger.Info("node dead", "group_id", t.GroupID, "node_id", t.EdgeNodeID)
	return true
}

// applyDeviceDeath removes one device from its node.
func (h *Host) applyDeviceDeath(t topic.Topic, p *payload.Payload) {
	nv := h.node(t.GroupID, t.EdgeNodeID)
	if nv == nil {
		return
	}
	h.trackSeq(nv, t, p)
	delete(nv.Devices, t.DeviceID)
	h.logger.Info("device dead", "group_id", t.GroupID, "node_id", t.EdgeNodeID, "device_id", t.DeviceID)
}

// trackSeq validates sequence continuity for a node's traffic. A gap
// means messages were lost: the mirror may hold stale values, so a
// rebirth is requested. The update itself is still applied; its values
// are newer than what the mirror holds.
func (h *Host) trackSeq(nv *NodeView, t topic.Topic, p *payload.Payload) {
	if p.Seq == nil {
		return
	}
	received := uint8(*p.Seq)
	if expected := nv.lastSeq + 1; received != expected {
		h.requestRebirthLocked(t.GroupID, t.EdgeNodeID, "sequence gap")
		h.logger.Warn("sequence gap",
			"group_id", t.GroupID,
			"node_id", t.EdgeNodeID,
			"expected", expected,
			"received", received,
		)
	}
	nv.lastSeq = received
}

// requestRebirthLocked publishes an NCMD asking the node to re-announce
// its full metric set. Callers hold the mutex.
func (h *Host) requestRebirthLocked(groupID, nodeID, reason string) {
	if h.transport == nil {
		return
	}

	cmdTopic := h.topics.Node(h.cfg.version(), groupID, topic.NCMD, nodeID)
	p := &payload.Payload{
		Timestamp: time.Now().UnixMilli(),
		Seq:       payload.SeqValue(h.seq.NextSeq()),
		Metrics: []payload.Metric{
			{Name: payload.RebirthMetric, Type: payload.Boolean, Value: true},
		},
	}

	data, err := h.codec.Encode(p)
	if err != nil {
		h.logger.Error("encoding rebirth command failed", "error", err)
		return
	}
	if err := h.transport.Publish(cmdTopic, data, h.cfg.DataQoS, false); err != nil {
		h.logger.Error("rebirth command publish failed", "topic", cmdTopic, "error", err)
		return
	}

	h.logger.Info("rebirth requested", "group_id", groupID, "node_id", nodeID, "reason", reason)
	h.emitLocked(events.Rebirth, &events.Envelope{
		Topic:   topic.Topic{Version: h.cfg.version(), GroupID: groupID, Type: topic.NCMD, EdgeNodeID: nodeID},
		Payload: p,
	})
}

// indexMetrics builds a fresh name-keyed metric map from a birth
// certificate and records the alias vocabulary it announces.
func indexMetrics(dst map[string]*payload.Metric, aliases map[uint64]string, metrics []payload.Metric) {
	for i := range metrics {
		m := metrics[i]
		if m.Name == "" {
			continue
		}
		if m.Alias != 0 && aliases != nil {
			aliases[m.Alias] = m.Name
		}
		dst[m.Name] = &m
	}
}

// mergeMetrics applies a DATA update to an existing metric map.
//
// Known names overwrite in place, preserving the annotations the birth
// attached (type, alias, properties) when the update omits them.
// Unknown names are accepted as new entries. Alias-only metrics
// resolve through the birth's alias vocabulary.
func mergeMetrics(dst map[string]*payload.Metric, aliases map[uint64]string, metrics []payload.Metric) {
	for i := range metrics {
		m := metrics[i]

		name := m.Name
		if name == "" && m.Alias != 0 {
			name = aliases[m.Alias]
		}
		if name == "" {
			continue
		}

		existing, ok := dst[name]
		if !ok {
			m.Name = name
			dst[name] = &m
			continue
		}

		existing.Value = m.Value
		existing.IsNull = m.IsNull
		if m.Timestamp != 0 {
			existing.Timestamp = m.Timestamp
		}
		if m.Type != payload.Unknown {
			existing.Type = m.Type
		}
		if m.Properties != nil {
			existing.Properties = m.Properties
		}
	}
}
