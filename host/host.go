package host

import (
	"sync"

	"github.com/nerrad567/sparkplug-core/events"
	"github.com/nerrad567/sparkplug-core/mqtt"
	"github.com/nerrad567/sparkplug-core/payload"
	"github.com/nerrad567/sparkplug-core/sequence"
	"github.com/nerrad567/sparkplug-core/topic"
)

// STATE payload literals.
const (
	stateOnline  = "ONLINE"
	stateOffline = "OFFLINE"
)

// Transport is the broker surface the host needs. *mqtt.Client
// satisfies it; tests substitute their own recorder.
type Transport interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	PublishString(topic string, payload string, qos byte, retained bool) error
	Subscribe(filter string, qos byte, handler mqtt.MessageHandler) error
	SubscribeShared(group, filter string, qos byte, handler mqtt.MessageHandler) error
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

// Host is a Sparkplug B host application.
//
// All state transitions and mirror mutations are serialised on an
// internal mutex.
type Host struct {
	cfg    Config
	state  State
	groups map[string]*GroupView

	seq    *sequence.Accountant // numbers outbound NCMD/DCMD
	codec  *payload.Codec
	topics topic.Topics
	bus    *events.Bus
	logger Logger

	transport Transport
	dial      Dialer

	// pending holds events queued under the mutex for delivery after
	// the transition completes.
	pending []events.Event

	mu sync.Mutex
}

// emitLocked queues an event for delivery once the current transition
// completes. Callers hold the mutex.
func (h *Host) emitLocked(t events.Type, payload any) {
	h.pending = append(h.pending, events.Event{Type: t, Payload: payload})
}

// flushLocked takes the queued events. Callers hold the mutex.
func (h *Host) flushLocked() []events.Event {
	out := h.pending
	h.pending = nil
	return out
}

// deliver emits queued events in order, outside the lock.
func (h *Host) deliver(evs []events.Event) {
	for _, ev := range evs {
		h.bus.Emit(ev.Type, ev.Payload)
	}
}

// New creates a host application from its configuration.
//
// The host starts disconnected; Connect opens the session, announces
// ONLINE, and subscribes to the namespace. Construction fails only on
// misconfiguration.
func New(cfg Config) (*Host, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Host{
		cfg:    cfg,
		state:  Disconnected,
		groups: make(map[string]*GroupView),
		seq:    sequence.New(),
		codec:  payload.NewCodec(payload.Options{}),
		bus:    events.NewBus(),
		logger: noopLogger{},
		dial:   dialBroker,
	}, nil
}

// SetLogger sets the logger for the host.
func (h *Host) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	h.mu.Lock()
	h.logger = logger
	h.mu.Unlock()
}

// Events returns the host's event bus for listener registration.
func (h *Host) Events() *events.Bus {
	return h.bus
}

// State returns the current lifecycle state.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Connect opens the broker session and announces this host.
//
// The sequence:
//  1. Open MQTT with a retained OFFLINE will on STATE/<primaryHostId>
//  2. Publish retained ONLINE to the same topic
//  3. Subscribe to the namespace, one filter per message type, with
//     NDATA/DDATA optionally on a shared subscription group
func (h *Host) Connect() error {
	h.mu.Lock()
	err := h.connectLocked()
	evs := h.flushLocked()
	h.mu.Unlock()

	h.deliver(evs)
	return err
}

// connectLocked implements Connect. Callers hold the mutex.
func (h *Host) connectLocked() error {
	if h.state != Disconnected {
		h.logger.Info("connect ignored", "state", h.state.String())
		return ErrInvalidTransition
	}

	stateTopic := h.topics.State(h.cfg.PrimaryHostID)

	client, err := h.dial(mqtt.Options{
		BrokerURL:      h.cfg.BrokerURL,
		ClientID:       h.cfg.ClientID,
		Username:       h.cfg.Username,
		Password:       h.cfg.Password,
		KeepAlive:      h.cfg.KeepAlive,
		ConnectTimeout: h.cfg.ConnectTimeout,
		Will: &mqtt.Will{
			Topic:   stateTopic,
			Payload: []byte(stateOffline),
			QoS:     0,
			Retain:  true,
		},
	})
	if err != nil {
		h.emitLocked(events.Error, err)
		return err
	}

	h.transport = client
	client.SetOnDisconnect(h.handleTransportLoss)

	if err := client.PublishString(stateTopic, stateOnline, 0, true); err != nil {
		h.teardownTransportLocked()
		h.emitLocked(events.Error, err)
		return err
	}

	if err := h.subscribeNamespaceLocked(); err != nil {
		h.teardownTransportLocked()
		h.emitLocked(events.Error, err)
		return err
	}

	h.state = Connected
	h.logger.Info("host online", "primary_host_id", h.cfg.PrimaryHostID)
	h.emitLocked(events.Connected, nil)
	return nil
}

// subscribeNamespaceLocked issues the namespace subscriptions: STATE
// on QoS 1, lifecycle topics on exclusive filters, and the high-volume
// data topics on the shared group when configured. Callers hold the
// mutex.
func (h *Host) subscribeNamespaceLocked() error {
	version := h.cfg.version()
	qos := h.cfg.DataQoS

	if err := h.transport.Subscribe(h.topics.AllStates(), 1, h.handleMessage); err != nil {
		return err
	}

	exclusive := []string{
		h.topics.AllOfType(version, topic.NBIRTH),
		h.topics.AllOfType(version, topic.NCMD),
		h.topics.AllOfType(version, topic.NDEATH),
		h.topics.AllOfTypeDeep(version, topic.DBIRTH),
		h.topics.AllOfTypeDeep(version, topic.DCMD),
		h.topics.AllOfTypeDeep(version, topic.DDEATH),
	}
	for _, filter := range exclusive {
		if err := h.transport.Subscribe(filter, qos, h.handleMessage); err != nil {
			return err
		}
	}

	data := []string{
		h.topics.AllOfTypeDeep(version, topic.NDATA),
		h.topics.AllOfTypeDeep(version, topic.DDATA),
	}
	for _, filter := range data {
		var err error
		if group := h.cfg.SharedSubscriptionGroup; group != "" {
			err = h.transport.SubscribeShared(group, filter, qos, h.handleMessage)
		} else {
			err = h.transport.Subscribe(filter, qos, h.handleMessage)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// Disconnect announces OFFLINE and tears the session down.
func (h *Host) Disconnect() error {
	h.mu.Lock()
	err := h.disconnectLocked()
	evs := h.flushLocked()
	h.mu.Unlock()

	h.deliver(evs)
	return err
}

// disconnectLocked implements Disconnect. Callers hold the mutex.
func (h *Host) disconnectLocked() error {
	if h.state != Connected {
		h.logger.Info("disconnect ignored", "state", h.state.String())
		return ErrInvalidTransition
	}

	// Graceful path: publish the retained OFFLINE ourselves; the will
	// only covers ungraceful drops.
	stateTopic := h.topics.State(h.cfg.PrimaryHostID)
	if err := h.transport.PublishString(stateTopic, stateOffline, 0, true); err != nil {
		h.logger.Warn("offline publish failed", "error", err)
	}

	h.teardownTransportLocked()
	h.state = Disconnected

	h.logger.Info("host offline", "primary_host_id", h.cfg.PrimaryHostID)
	h.emitLocked(events.Disconnected, nil)
	return nil
}

// teardownTransportLocked detaches transport callbacks and closes the
// client. Callers hold the mutex.
func (h *Host) teardownTransportLocked() {
	if h.transport == nil {
		return
	}
	h.transport.SetOnDisconnect(nil)
	if err := h.transport.Close(); err != nil {
		h.logger.Warn("transport close failed", "error", err)
	}
	h.transport = nil
}

// handleTransportLoss reacts to an unexpected broker disconnect. The
// broker delivers the retained OFFLINE will on our behalf.
func (h *Host) handleTransportLoss(err error) {
	h.mu.Lock()

	if h.state == Disconnected {
		h.mu.Unlock()
		return
	}

	h.transport = nil
	h.state = Disconnected

	h.logger.Error("broker connection lost", "error", err)
	h.emitLocked(events.Error, err)
	h.emitLocked(events.Closed, nil)

	evs := h.flushLocked()
	h.mu.Unlock()
	h.deliver(evs)
}
