package mqtt

import (
	"errors"
	"testing"
	"time"
)

// =============================================================================
// Option Validation Tests
// =============================================================================

func TestConnectMissingBroker(t *testing.T) {
	_, err := Connect(Options{})
	if !errors.Is(err, ErrMissingBroker) {
		t.Errorf("Connect() error = %v, want ErrMissingBroker", err)
	}
}

func TestBuildClientOptionsDefaults(t *testing.T) {
	opts := buildClientOptions(Options{BrokerURL: "tcp://localhost:1883"})

	if opts.ClientID == "" {
		t.Error("ClientID should be generated when empty")
	}
	if !opts.CleanSession {
		t.Error("CleanSession should be enabled")
	}
	if opts.AutoReconnect {
		t.Error("AutoReconnect should be disabled")
	}
	if opts.KeepAlive != int64(defaultKeepAlive.Seconds()) {
		t.Errorf("KeepAlive = %v, want %v", opts.KeepAlive, defaultKeepAlive)
	}
}

func TestBuildClientOptionsWill(t *testing.T) {
	will := &Will{
		Topic:   "spBv1.0/G/NDEATH/N",
		Payload: []byte{0x01, 0x02},
		QoS:     0,
		Retain:  false,
	}
	opts := buildClientOptions(Options{
		BrokerURL: "tcp://localhost:1883",
		ClientID:  "edge-n",
		Will:      will,
	})

	if !opts.WillEnabled {
		t.Fatal("will should be enabled")
	}
	if opts.WillTopic != will.Topic {
		t.Errorf("WillTopic = %q, want %q", opts.WillTopic, will.Topic)
	}
	if string(opts.WillPayload) != string(will.Payload) {
		t.Errorf("WillPayload = %v, want %v", opts.WillPayload, will.Payload)
	}
	if opts.WillRetained {
		t.Error("WillRetained = true, want false")
	}
}

func TestConnectTimeoutDefault(t *testing.T) {
	o := Options{}
	if got := o.connectTimeout(); got != defaultConnectTimeout {
		t.Errorf("connectTimeout() = %v, want %v", got, defaultConnectTimeout)
	}

	o.ConnectTimeout = 5 * time.Second
	if got := o.connectTimeout(); got != 5*time.Second {
		t.Errorf("connectTimeout() = %v, want 5s", got)
	}
}

// =============================================================================
// Disconnected Client Tests
// =============================================================================

func TestPublishValidation(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", nil, 0, ErrInvalidTopic},
		{"invalid qos", "t", nil, 3, ErrInvalidQoS},
		{"oversized payload", "t", make([]byte, maxPayloadSize+1), 0, ErrPublishFailed},
		{"not connected", "t", []byte("x"), 0, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}
	handler := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		filter  string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{"empty filter", "", 0, handler, ErrInvalidTopic},
		{"invalid qos", "f", 3, handler, ErrInvalidQoS},
		{"nil handler", "f", 0, nil, ErrSubscribeFailed},
		{"not connected", "f", 0, handler, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Subscribe(tt.filter, tt.qos, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeSharedValidation(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}
	handler := func(string, []byte) error { return nil }

	err := client.SubscribeShared("", "f", 0, handler)
	if !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("SubscribeShared() error = %v, want ErrSubscribeFailed", err)
	}

	// A valid group reaches the connection check.
	err = client.SubscribeShared("hosts", "f", 0, handler)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("SubscribeShared() error = %v, want ErrNotConnected", err)
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v, want nil", err)
	}
}

func TestSubscriptionBookkeeping(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}

	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
	if client.HasSubscription("f") {
		t.Error("HasSubscription() = true for untracked filter")
	}
}
