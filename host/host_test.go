package host

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/sparkplug-core/config"
	"github.com/nerrad567/sparkplug-core/events"
	"github.com/nerrad567/sparkplug-core/mqtt"
	"github.com/nerrad567/sparkplug-core/payload"
)

// ─── Mock Transport ─────────────────────────────────────────────────────────

type publishRecord struct {
	Topic    string
	Body     []byte
	QoS      byte
	Retained bool
}

type mockTransport struct {
	mu           sync.Mutex
	published    []publishRecord
	subs         map[string]mqtt.MessageHandler
	onDisconnect func(err error)
	closed       bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{subs: make(map[string]mqtt.MessageHandler)}
}

func (m *mockTransport) Publish(topicStr string, body []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishRecord{Topic: topicStr, Body: body, QoS: qos, Retained: retained})
	return nil
}

func (m *mockTransport) PublishString(topicStr string, body string, qos byte, retained bool) error {
	return m.Publish(topicStr, []byte(body), qos, retained)
}

func (m *mockTransport) Subscribe(filter string, _ byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[filter] = handler
	return nil
}

func (m *mockTransport) SubscribeShared(group, filter string, qos byte, handler mqtt.MessageHandler) error {
	return m.Subscribe("$share/"+group+"/"+filter, qos, handler)
}

func (m *mockTransport) SetOnDisconnect(callback func(err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnect = callback
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

func (m *mockTransport) records() []publishRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	cpy := make([]publishRecord, len(m.published))
	copy(cpy, m.published)
	return cpy
}

func (m *mockTransport) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = nil
}

func (m *mockTransport) filters() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.subs))
	for f := range m.subs {
		out = append(out, f)
	}
	return out
}

type mockDialer struct {
	mu         sync.Mutex
	dials      []mqtt.Options
	transports []*mockTransport
}

func (d *mockDialer) dial(o mqtt.Options) (Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials = append(d.dials, o)
	t := newMockTransport()
	d.transports = append(d.transports, t)
	return t, nil
}

func (d *mockDialer) current() *mockTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.transports) == 0 {
		return nil
	}
	return d.transports[len(d.transports)-1]
}

// ─── Fixtures ───────────────────────────────────────────────────────────────

func testConfig() Config {
	return Config{
		BrokerURL:     "tcp://localhost:1883",
		PrimaryHostID: "scada-primary",
	}
}

func newTestHost(t *testing.T, cfg Config) (*Host, *mockDialer) {
	t.Helper()

	h, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	dialer := &mockDialer{}
	h.dial = dialer.dial
	return h, dialer
}

func connectedHost(t *testing.T) (*Host, *mockTransport) {
	t.Helper()

	h, dialer := newTestHost(t, testConfig())
	if err := h.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	transport := dialer.current()
	transport.reset()
	return h, transport
}

func encode(t *testing.T, p *payload.Payload) []byte {
	t.Helper()

	data, err := payload.NewCodec(payload.Options{}).Encode(p)
	if err != nil {
		t.Fatalf("encoding payload: %v", err)
	}
	return data
}

func nbirthPayload(t *testing.T, bdSeq uint64, metrics ...payload.Metric) []byte {
	t.Helper()

	all := append([]payload.Metric{
		{Name: payload.BdSeqMetric, Type: payload.UInt64, Value: bdSeq},
		{Name: payload.RebirthMetric, Type: payload.Boolean, Value: false},
	}, metrics...)
	return encode(t, &payload.Payload{
		Timestamp: time.Now().UnixMilli(),
		Seq:       payload.SeqValue(0),
		Metrics:   all,
	})
}

// ─── Construction ───────────────────────────────────────────────────────────

func TestNew_ConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing broker", Config{PrimaryHostID: "h"}},
		{"missing host id", Config{BrokerURL: "tcp://b:1883"}},
		{"bad qos", Config{BrokerURL: "tcp://b:1883", PrimaryHostID: "h", DataQoS: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if !errors.Is(err, ErrConfig) {
				t.Errorf("New() error = %v, want ErrConfig", err)
			}
		})
	}
}

// ─── STATE Semantics (Scenario 6) ───────────────────────────────────────────

func TestConnect_StateSemantics(t *testing.T) {
	h, dialer := newTestHost(t, testConfig())
	if err := h.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	// The will announces OFFLINE, retained.
	will := dialer.dials[0].Will
	if will == nil {
		t.Fatal("dial options missing will")
	}
	if will.Topic != "STATE/scada-primary" {
		t.Errorf("will topic = %q, want STATE/scada-primary", will.Topic)
	}
	if string(will.Payload) != "OFFLINE" {
		t.Errorf("will payload = %q, want OFFLINE", will.Payload)
	}
	if !will.Retain {
		t.Error("will not retained")
	}

	// Connect publishes ONLINE, retained.
	records := dialer.current().records()
	if len(records) == 0 {
		t.Fatal("no publishes after connect")
	}
	online := records[0]
	if online.Topic != "STATE/scada-primary" || string(online.Body) != "ONLINE" || !online.Retained {
		t.Errorf("first publish = %+v, want retained ONLINE on STATE/scada-primary", online)
	}

	if h.State() != Connected {
		t.Errorf("State() = %v, want connected", h.State())
	}
}

func TestDisconnect_PublishesOffline(t *testing.T) {
	h, transport := connectedHost(t)

	if err := h.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}

	records := transport.records()
	if len(records) != 1 {
		t.Fatalf("got %d publishes on disconnect, want 1", len(records))
	}
	offline := records[0]
	if string(offline.Body) != "OFFLINE" || !offline.Retained {
		t.Errorf("disconnect publish = %+v, want retained OFFLINE", offline)
	}
	if !transport.closed {
		t.Error("transport not closed")
	}
	if h.State() != Disconnected {
		t.Errorf("State() = %v, want disconnected", h.State())
	}
}

// ─── Namespace Subscriptions ────────────────────────────────────────────────

func TestConnect_NamespaceSubscriptions(t *testing.T) {
	h, dialer := newTestHost(t, testConfig())
	if err := h.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	want := []string{
		"STATE/#",
		"spBv1.0/+/NBIRTH/+",
		"spBv1.0/+/NCMD/+",
		"spBv1.0/+/NDEATH/+",
		"spBv1.0/+/DBIRTH/#",
		"spBv1.0/+/DCMD/#",
		"spBv1.0/+/DDEATH/#",
		"spBv1.0/+/NDATA/#",
		"spBv1.0/+/DDATA/#",
	}

	filters := dialer.current().filters()
	set := make(map[string]bool, len(filters))
	for _, f := range filters {
		set[f] = true
	}
	for _, f := range want {
		if !set[f] {
			t.Errorf("missing subscription %q", f)
		}
	}
	if len(filters) != len(want) {
		t.Errorf("got %d subscriptions %v, want %d", len(filters), filters, len(want))
	}
}

func TestConnect_SharedDataSubscriptions(t *testing.T) {
	cfg := testConfig()
	cfg.SharedSubscriptionGroup = "hosts"

	h, dialer := newTestHost(t, cfg)
	if err := h.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	filters := dialer.current().filters()
	var sharedData, plainData int
	for _, f := range filters {
		switch {
		case strings.HasPrefix(f, "$share/hosts/") &&
			(strings.Contains(f, "/NDATA/") || strings.Contains(f, "/DDATA/")):
			sharedData++
		case strings.Contains(f, "/NDATA/") || strings.Contains(f, "/DDATA/"):
			plainData++
		}
	}
	if sharedData != 2 || plainData != 0 {
		t.Errorf("data filters shared=%d plain=%d %v, want 2 shared, 0 plain", sharedData, plainData, filters)
	}

	// Lifecycle filters stay exclusive.
	for _, f := range filters {
		if strings.HasPrefix(f, "$share/") &&
			(strings.Contains(f, "NBIRTH") || strings.Contains(f, "NDEATH")) {
			t.Errorf("lifecycle filter %q should not be shared", f)
		}
	}
}

// ─── Lifecycle Guards ───────────────────────────────────────────────────────

func TestInvalidTransitions(t *testing.T) {
	h, _ := newTestHost(t, testConfig())

	if err := h.Disconnect(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Disconnect() while disconnected = %v, want ErrInvalidTransition", err)
	}

	if err := h.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := h.Connect(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Connect() while connected = %v, want ErrInvalidTransition", err)
	}
}

func TestTransportLoss(t *testing.T) {
	h, transport := connectedHost(t)

	var gotError, gotClosed bool
	var mu sync.Mutex
	h.Events().
		On(events.Error, func(events.Event) { mu.Lock(); gotError = true; mu.Unlock() }).
		On(events.Closed, func(events.Event) { mu.Lock(); gotClosed = true; mu.Unlock() })

	transport.mu.Lock()
	cb := transport.onDisconnect
	transport.mu.Unlock()
	cb(errors.New("socket closed"))

	if h.State() != Disconnected {
		t.Errorf("State() = %v, want disconnected", h.State())
	}

	mu.Lock()
	defer mu.Unlock()
	if !gotError || !gotClosed {
		t.Errorf("events error=%v closed=%v, want both", gotError, gotClosed)
	}
}

// ─── Config Bridge ──────────────────────────────────────────────────────────

func TestFromConfig(t *testing.T) {
	fileCfg := &config.Config{
		MQTT: config.MQTTConfig{
			Broker: config.MQTTBrokerConfig{Host: "broker.local", Port: 8883, TLS: true, ClientID: "scada"},
			QoS:    1,
		},
		Sparkplug: config.SparkplugConfig{
			Version:                 "spBv1.0",
			PrimaryHostID:           "scada-primary",
			SharedSubscriptionGroup: "hosts",
		},
	}

	cfg := FromConfig(fileCfg)
	if cfg.BrokerURL != "ssl://broker.local:8883" {
		t.Errorf("BrokerURL = %q", cfg.BrokerURL)
	}
	if cfg.PrimaryHostID != "scada-primary" || cfg.SharedSubscriptionGroup != "hosts" {
		t.Errorf("identity = %+v", cfg)
	}
	if cfg.DataQoS != 1 {
		t.Errorf("DataQoS = %d, want 1", cfg.DataQoS)
	}

	if _, err := New(cfg); err != nil {
		t.Errorf("New(FromConfig(...)) error = %v", err)
	}
}

// ─── STATE Observation ──────────────────────────────────────────────────────

func TestStateObservation(t *testing.T) {
	h, _ := connectedHost(t)

	var changes []*events.StateChange
	h.Events().On(events.State, func(ev events.Event) {
		if sc, ok := ev.Payload.(*events.StateChange); ok {
			changes = append(changes, sc)
		}
	})

	if err := h.handleMessage("STATE/other-host", []byte("ONLINE")); err != nil {
		t.Fatalf("handleMessage() error = %v", err)
	}
	if err := h.handleMessage("STATE/other-host", []byte("OFFLINE")); err != nil {
		t.Fatalf("handleMessage() error = %v", err)
	}

	if len(changes) != 2 {
		t.Fatalf("got %d state changes, want 2", len(changes))
	}
	if changes[0].PrimaryHostID != "other-host" || !changes[0].Online {
		t.Errorf("first change = %+v, want other-host online", changes[0])
	}
	if changes[1].Online {
		t.Error("second change online = true, want false")
	}
}
