package node

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/sparkplug-core/events"
	"github.com/nerrad567/sparkplug-core/mqtt"
	"github.com/nerrad567/sparkplug-core/payload"
	"github.com/nerrad567/sparkplug-core/sequence"
	"github.com/nerrad567/sparkplug-core/topic"
)

// Transport is the broker surface the node needs. *mqtt.Client
// satisfies it; tests substitute their own recorder.
type Transport interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(filter string, qos byte, handler mqtt.MessageHandler) error
	SetOnDisconnect(callback func(err error))
	Close() error
	IsConnected() bool
}

// Dialer opens a broker session. The default dials through the mqtt
// adapter.
type Dialer func(o mqtt.Options) (Transport, error)

func dialBroker(o mqtt.Options) (Transport, error) {
	return mqtt.Connect(o)
}

// Node is a Sparkplug B edge node.
//
// All state transitions are serialised on an internal mutex: API
// calls, MQTT callbacks, and scheduler ticks mutate state one at a
// time. Transitions are atomic with respect to external observers.
//
// Events are queued during a transition and delivered after it
// completes, outside the lock, so handlers may call back into the
// node.
type Node struct {
	cfg     Config
	metrics map[string]*Metric
	devices map[string]*Device

	state State
	seq   *sequence.Accountant

	codec *payload.Codec // configured encoding for BIRTH/DATA
	plain *payload.Codec // uncompressed encoding for DEATH certificates

	topics topic.Topics
	bus    *events.Bus
	sched  *scheduler
	logger Logger

	transport Transport
	dial      Dialer

	// pending holds events queued under the mutex for delivery after
	// the transition completes.
	pending []events.Event

	mu sync.Mutex
}

// New creates an edge node from its configuration.
//
// The node starts disconnected; Connect opens the session and births
// it. Construction fails only on misconfiguration.
//
// Returns:
//   - *Node: The node, ready for Connect
//   - error: ErrConfig describing the first invalid field
func New(cfg Config) (*Node, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	n := &Node{
		cfg:     cfg,
		metrics: make(map[string]*Metric, len(cfg.Metrics)),
		devices: make(map[string]*Device, len(cfg.Devices)),
		state:   Disconnected,
		seq:     sequence.New(),
		codec:   payload.NewCodec(cfg.Payload),
		plain:   payload.NewCodec(payload.Options{}),
		bus:     events.NewBus(),
		sched:   newScheduler(),
		logger:  noopLogger{},
		dial:    dialBroker,
	}

	for i := range cfg.Metrics {
		m := cfg.Metrics[i]
		if m.Name == "" {
			return nil, fmt.Errorf("%w: metric with empty name", ErrConfig)
		}
		n.metrics[m.Name] = &m
	}

	for _, dc := range cfg.Devices {
		if dc.ID == "" {
			return nil, fmt.Errorf("%w: device with empty id", ErrConfig)
		}
		d := &Device{
			ID:      dc.ID,
			Metrics: make(map[string]*Metric, len(dc.Metrics)),
		}
		for i := range dc.Metrics {
			m := dc.Metrics[i]
			if m.Name == "" {
				return nil, fmt.Errorf("%w: device %q metric with empty name", ErrConfig, dc.ID)
			}
			d.Metrics[m.Name] = &m
		}
		n.devices[dc.ID] = d
	}

	return n, nil
}

// SetLogger sets the logger for the node.
func (n *Node) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	n.mu.Lock()
	n.logger = logger
	n.mu.Unlock()
}

// Events returns the node's event bus for listener registration.
func (n *Node) Events() *events.Bus {
	return n.bus
}

// State returns the current lifecycle state.
func (n *Node) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Device returns the device with the given ID, or nil.
func (n *Node) Device(id string) *Device {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.devices[id]
}

// BdSeq returns the birth/death sequence of the current session.
func (n *Node) BdSeq() uint64 {
	return n.seq.BdSeq()
}

// SetMetricValue replaces the stored value of a node-owned metric.
// The next scheduler tick evaluates it against the
// report-by-exception gate.
func (n *Node) SetMetricValue(name string, value any) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	m, ok := n.metrics[name]
	if !ok {
		return fmt.Errorf("node: unknown metric %q", name)
	}
	m.Value = value
	return nil
}

// SetDeviceMetricValue replaces the stored value of a device-owned metric.
func (n *Node) SetDeviceMetricValue(deviceID, name string, value any) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	d, ok := n.devices[deviceID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDevice, deviceID)
	}
	m, ok := d.Metrics[name]
	if !ok {
		return fmt.Errorf("node: device %q has no metric %q", deviceID, name)
	}
	m.Value = value
	return nil
}

// emitLocked queues an event for delivery once the current transition
// completes. Callers hold the mutex.
func (n *Node) emitLocked(t events.Type, payload any) {
	n.pending = append(n.pending, events.Event{Type: t, Payload: payload})
}

// flushLocked takes the queued events. Callers hold the mutex.
func (n *Node) flushLocked() []events.Event {
	out := n.pending
	n.pending = nil
	return out
}

// deliver emits queued events in order, outside the lock.
func (n *Node) deliver(evs []events.Event) {
	for _, ev := range evs {
		n.bus.Emit(ev.Type, ev.Payload)
	}
}

// Connect opens a broker session and births the node.
//
// The sequence is fixed by the protocol:
//  1. Bump bdSeq for the new attempt
//  2. Open MQTT with the NDEATH certificate as the last will
//  3. Subscribe to NCMD, DCMD, and host STATE topics
//  4. Publish NBIRTH (resetting seq to 0) and a DBIRTH per device
//  5. Start the scan timers
//
// A failed connection leaves the node disconnected; the core does not
// reconnect on its own.
func (n *Node) Connect() error {
	n.mu.Lock()
	err := n.connectLocked()
	evs := n.flushLocked()
	n.mu.Unlock()

	n.deliver(evs)
	return err
}

// connectLocked implements Connect. Callers hold the mutex.
func (n *Node) connectLocked() error {
	if n.state != Disconnected {
		n.logger.Info("connect ignored", "state", n.state.String())
		return ErrInvalidTransition
	}

	bdSeq := n.seq.BumpBdSeq()

	willBytes, err := n.plain.Encode(deathPayload(bdSeq))
	if err != nil {
		return fmt.Errorf("node: encoding death certificate: %w", err)
	}

	version := n.cfg.version()
	deathTopic := n.topics.Node(version, n.cfg.GroupID, topic.NDEATH, n.cfg.ID)

	client, err := n.dial(mqtt.Options{
		BrokerURL:      n.cfg.BrokerURL,
		ClientID:       n.cfg.ClientID,
		Username:       n.cfg.Username,
		Password:       n.cfg.Password,
		KeepAlive:      n.cfg.KeepAlive,
		ConnectTimeout: n.cfg.ConnectTimeout,
		Will: &mqtt.Will{
			Topic:   deathTopic,
			Payload: willBytes,
			QoS:     0,
			Retain:  false,
		},
	})
	if err != nil {
		n.emitLocked(events.Error, err)
		return err
	}

	n.transport = client
	n.state = ConnectedDead
	client.SetOnDisconnect(n.handleTransportLoss)

	// Inbound command and host state subscriptions.
	subs := []struct {
		filter  string
		handler mqtt.MessageHandler
	}{
		{n.topics.NodeCommands(version, n.cfg.GroupID, n.cfg.ID), n.handleNodeCommand},
		{n.topics.DeviceCommands(version, n.cfg.GroupID, n.cfg.ID), n.handleDeviceCommand},
		{n.topics.AllStates(), n.handleHostState},
	}
	for _, s := range subs {
		if err := client.Subscribe(s.filter, n.cfg.QoS, s.handler); err != nil {
			n.teardownTransportLocked()
			n.state = Disconnected
			n.emitLocked(events.Error, err)
			return err
		}
	}

	n.logger.Info("connected",
		"group_id", n.cfg.GroupID,
		"node_id", n.cfg.ID,
		"bd_seq", bdSeq,
	)
	n.emitLocked(events.Connected, nil)

	return n.birthLocked()
}

// Disconnect tears the session down.
//
// Scan timers are cancelled synchronously, a born node publishes its
// NDEATH first, and the transport is closed. The registered will is
// not delivered on this graceful path.
func (n *Node) Disconnect() error {
	n.mu.Lock()
	err := n.disconnectLocked()
	evs := n.flushLocked()
	n.mu.Unlock()

	n.deliver(evs)
	return err
}

// disconnectLocked implements Disconnect. Callers hold the mutex.
func (n *Node) disconnectLocked() error {
	if n.state == Disconnected {
		n.logger.Info("disconnect ignored", "state", n.state.String())
		return ErrInvalidTransition
	}

	n.sched.stop()

	if n.state == ConnectedBorn {
		if err := n.deathLocked(); err != nil {
			n.logger.Warn("death on disconnect failed", "error", err)
		}
	}

	n.teardownTransportLocked()
	n.state = Disconnected

	n.logger.Info("disconnected", "group_id", n.cfg.GroupID, "node_id", n.cfg.ID)
	n.emitLocked(events.Disconnected, nil)
	return nil
}

// teardownTransportLocked detaches transport callbacks and closes the
// client. Callers hold the mutex.
func (n *Node) teardownTransportLocked() {
	if n.transport == nil {
		return
	}
	n.transport.SetOnDisconnect(nil)
	if err := n.transport.Close(); err != nil {
		n.logger.Warn("transport close failed", "error", err)
	}
	n.transport = nil
}

// handleTransportLoss reacts to an unexpected broker disconnect: the
// session is gone, so the node falls back to disconnected with its
// timers stopped. Reconnection is the application's decision.
func (n *Node) handleTransportLoss(err error) {
	n.mu.Lock()

	if n.state == Disconnected {
		n.mu.Unlock()
		return
	}

	n.sched.stop()
	for _, d := range n.devices {
		d.born = false
	}
	n.transport = nil
	n.state = Disconnected

	n.logger.Error("broker connection lost", "error", err)
	n.emitLocked(events.Error, err)
	n.emitLocked(events.Closed, nil)

	evs := n.flushLocked()
	n.mu.Unlock()
	n.deliver(evs)
}

// sortedDeviceIDs returns device IDs in stable order. Callers hold the
// mutex.
func (n *Node) sortedDeviceIDs() []string {
	ids := make([]string, 0, len(n.devices))
	for id := range n.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
