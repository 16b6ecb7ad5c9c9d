package host

import (
	"sort"

	"github.com/nerrad567/sparkplug-core/payload"
)

// GroupExport is the read-only projection of one mirrored group.
// Mapping keys become the id and name fields so downstream consumers
// (GraphQL layers, UIs) can treat the tree as plain arrays.
type GroupExport struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Nodes []NodeExport `json:"nodes"`
}

// NodeExport is the read-only projection of one mirrored node.
type NodeExport struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Metrics []payload.Metric `json:"metrics"`
	Devices []DeviceExport   `json:"devices"`
}

// DeviceExport is the read-only projection of one mirrored device.
type DeviceExport struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Metrics []payload.Metric `json:"metrics"`
}

// Snapshot flattens the nested mirror into sorted arrays. The result
// is a deep copy: callers can hold or mutate it freely while the
// mirror keeps moving.
func (h *Host) Snapshot() []GroupExport {
	h.mu.Lock()
	defer h.mu.Unlock()

	groups := make([]GroupExport, 0, len(h.groups))
	for _, gid := range sortedKeys(h.groups) {
		g := h.groups[gid]

		nodes := make([]NodeExport, 0, len(g.Nodes))
		for _, nid := range sortedKeys(g.Nodes) {
			nv := g.Nodes[nid]

			devices := make([]DeviceExport, 0, len(nv.Devices))
			for _, did := range sortedKeys(nv.Devices) {
				dv := nv.Devices[did]
				devices = append(devices, DeviceExport{
					ID:      dv.ID,
					Name:    dv.ID,
					Metrics: exportMetrics(dv.Metrics),
				})
			}

			nodes = append(nodes, NodeExport{
				ID:      nv.ID,
				Name:    nv.ID,
				Metrics: exportMetrics(nv.Metrics),
				Devices: devices,
			})
		}

		groups = append(groups, GroupExport{ID: g.ID, Name: g.ID, Nodes: nodes})
	}
	return groups
}

// NodeMetric returns a copy of one mirrored node metric, or false when
// the group, node, or metric is unknown.
func (h *Host) NodeMetric(groupID, nodeID, name string) (payload.Metric, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	nv := h.node(groupID, nodeID)
	if nv == nil {
		return payload.Metric{}, false
	}
	m, ok := nv.Metrics[name]
	if !ok {
		return payload.Metric{}, false
	}
	return *m, true
}

// DeviceMetric returns a copy of one mirrored device metric, or false
// when any level of the path is unknown.
func (h *Host) DeviceMetric(groupID, nodeID, deviceID, name string) (payload.Metric, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	nv := h.node(groupID, nodeID)
	if nv == nil {
		return payload.Metric{}, false
	}
	dv := nv.Devices[deviceID]
	if dv == nil {
		return payload.Metric{}, false
	}
	m, ok := dv.Metrics[name]
	if !ok {
		return payload.Metric{}, false
	}
	return *m, true
}

// HasNode reports whether the mirror holds a live view of the node,
// i.e. an NBIRTH has been observed since the last NDEATH.
func (h *Host) HasNode(groupID, nodeID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.node(groupID, nodeID) != nil
}

// HasDevice reports whether the mirror holds a live view of the device.
func (h *Host) HasDevice(groupID, nodeID, deviceID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	nv := h.node(groupID, nodeID)
	return nv != nil && nv.Devices[deviceID] != nil
}

// exportMetrics copies a metric map into a name-sorted slice.
func exportMetrics(metrics map[string]*payload.Metric) []payload.Metric {
	out := make([]payload.Metric, 0, len(metrics))
	for _, name := range sortedKeys(metrics) {
		m := *metrics[name]
		if m.Properties != nil {
			props := make(map[string]any, len(m.Properties))
			for k, v := range m.Properties {
				props[k] = v
			}
			m.Properties = props
		}
		if b, ok := m.Value.([]byte); ok {
			m.Value = append([]byte(nil), b...)
		}
		out = append(out, m)
	}
	return out
}

// sortedKeys returns a map's keys in sorted order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
