package node

import (
	"fmt"
	"time"

	"github.com/nerrad567/sparkplug-core/config"
	"github.com/nerrad567/sparkplug-core/payload"
	"github.com/nerrad567/sparkplug-core/topic"
)

// DeviceConfig declares one device and its metrics at construction.
type DeviceConfig struct {
	ID      string
	Metrics []Metric
}

// Config carries everything needed to construct an edge node.
type Config struct {
	// BrokerURL is the MQTT endpoint, e.g. tcp://localhost:1883.
	BrokerURL string

	// ClientID identifies the MQTT session. Generated when empty.
	ClientID string

	// Username and Password are optional broker credentials.
	Username string
	Password string

	// KeepAlive is the MQTT keepalive interval. Defaults to 60s.
	KeepAlive time.Duration

	// ConnectTimeout bounds each connection attempt. Defaults to 30s.
	ConnectTimeout time.Duration

	// Version is the Sparkplug namespace version. Defaults to spBv1.0.
	Version string

	// GroupID and ID form the node's Sparkplug identity. Both are
	// required.
	GroupID string
	ID      string

	// QoS applies to every publish and subscription. Sparkplug
	// traffic conventionally rides QoS 0.
	QoS byte

	// Payload controls outbound encoding (compression).
	Payload payload.Options

	// Metrics is the node-owned metric set.
	Metrics []Metric

	// Devices declares the attached devices.
	Devices []DeviceConfig
}

// FromConfig maps a loaded configuration file onto a node Config.
//
// Metrics and devices are code-level concerns (their values may be
// producer functions); callers attach them to the returned Config
// before passing it to New.
func FromConfig(c *config.Config) Config {
	return Config{
		BrokerURL:      c.BrokerURL(),
		ClientID:       c.MQTT.Broker.ClientID,
		Username:       c.MQTT.Auth.Username,
		Password:       c.MQTT.Auth.Password,
		KeepAlive:      c.GetKeepAlive(),
		ConnectTimeout: c.GetConnectTimeout(),
		Version:        c.Sparkplug.Version,
		GroupID:        c.Sparkplug.GroupID,
		ID:             c.Sparkplug.EdgeNodeID,
		QoS:            byte(c.MQTT.QoS),
		Payload: payload.Options{
			Compress:  c.Payload.Compress,
			Algorithm: c.Payload.Algorithm,
		},
	}
}

// validate checks construction-time configuration. Misconfiguration is
// the only fatal error class in the library.
func (c *Config) validate() error {
	if c.BrokerURL == "" {
		return fmt.Errorf("%w: broker URL is required", ErrConfig)
	}
	if c.GroupID == "" || c.ID == "" {
		return fmt.Errorf("%w: group ID and node ID are required", ErrConfig)
	}
	if c.QoS > 2 {
		return fmt.Errorf("%w: qos must be 0, 1, or 2", ErrConfig)
	}
	if c.Payload.Compress {
		switch {
		case c.Payload.Algorithm == "",
			equalFoldASCII(c.Payload.Algorithm, payload.AlgorithmGZIP),
			equalFoldASCII(c.Payload.Algorithm, payload.AlgorithmDEFLATE):
		default:
			return fmt.Errorf("%w: unsupported compression algorithm %q", ErrConfig, c.Payload.Algorithm)
		}
	}
	return nil
}

// version returns the effective namespace version.
func (c *Config) version() string {
	if c.Version != "" {
		return c.Version
	}
	return topic.DefaultVersion
}

// equalFoldASCII compares two ASCII strings case-insensitively.
func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
