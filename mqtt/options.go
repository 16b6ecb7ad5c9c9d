package mqtt

import (
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time to wait for initial connection.
	defaultConnectTimeout = 30 * time.Second

	// defaultOperationTimeout is the maximum time to wait for publish,
	// subscribe, and unsubscribe acknowledgments.
	defaultOperationTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2
)

// Will describes the last-will message registered with the broker at
// connect time. For an edge node this is the NDEATH certificate; for a
// host it is the retained OFFLINE state.
type Will struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// Options carries everything needed to open a session.
type Options struct {
	// BrokerURL is the broker endpoint, e.g. tcp://localhost:1883.
	BrokerURL string

	// ClientID identifies this session to the broker. A random ID is
	// generated when empty.
	ClientID string

	// Username and Password are optional broker credentials.
	Username string
	Password string

	// KeepAlive is the MQTT keepalive interval. Defaults to 60s.
	KeepAlive time.Duration

	// ConnectTimeout bounds the initial connection attempt. Defaults to 30s.
	ConnectTimeout time.Duration

	// Will is the optional last-will registration.
	Will *Will
}

// buildClientOptions creates paho MQTT options from adapter options.
//
// This configures:
//   - Broker URL and client ID (generated when absent)
//   - Authentication credentials (if provided)
//   - Clean session (Sparkplug sessions always start fresh)
//   - The last-will registration
//
// Auto-reconnect is disabled: session recovery is owned by the
// Sparkplug state machines, not the transport.
func buildClientOptions(o Options) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(o.BrokerURL)

	clientID := o.ClientID
	if clientID == "" {
		clientID = "sparkplug-" + uuid.NewString()
	}
	opts.SetClientID(clientID)

	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	// Clean session - a Sparkplug session is defined by its birth and
	// death certificates, never by broker-persisted state.
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetResumeSubs(false)

	keepAlive := o.KeepAlive
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	opts.SetKeepAlive(keepAlive)

	connectTimeout := o.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	opts.SetConnectTimeout(connectTimeout)

	if o.Will != nil {
		opts.SetBinaryWill(o.Will.Topic, o.Will.Payload, o.Will.QoS, o.Will.Retain)
	}

	return opts
}

// connectTimeout returns the effective connect timeout for an Options value.
func (o Options) connectTimeout() time.Duration {
	if o.ConnectTimeout > 0 {
		return o.ConnectTimeout
	}
	return defaultConnectTimeout
}
