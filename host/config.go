package host

import (
	"fmt"
	"time"

	"github.com/nerrad567/sparkplug-core/config"
	"github.com/nerrad567/sparkplug-core/topic"
)

// Config carries everything needed to construct a host application.
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

	// Version is the Sparkplug namespace version to consume. Defaults
	// to spBv1.0.
	Version string

	// PrimaryHostID names this host on the STATE topic. Required.
	PrimaryHostID string

	// SharedSubscriptionGroup, when set, wraps the high-volume
	// NDATA/DDATA filters as $share/<group>/<filter> so a fleet of
	// hosts splits the load.
	SharedSubscriptionGroup string

	// DataQoS applies to the namespace subscriptions. STATE rides
	// QoS 1 regardless.
	DataQoS byte
}

// FromConfig maps a loaded configuration file onto a host Config.
func FromConfig(c *config.Config) Config {
	return Config{
		BrokerURL:               c.BrokerURL(),
		ClientID:                c.MQTT.Broker.ClientID,
		Username:                c.MQTT.Auth.Username,
		Password:                c.MQTT.Auth.Password,
		KeepAlive:               c.GetKeepAlive(),
		ConnectTimeout:          c.GetConnectTimeout(),
		Version:                 c.Sparkplug.Version,
		PrimaryHostID:           c.Sparkplug.PrimaryHostID,
		SharedSubscriptionGroup: c.Sparkplug.SharedSubscriptionGroup,
		DataQoS:                 byte(c.MQTT.QoS),
	}
}

// validate checks construction-time configuration.
func (c *Config) validate() error {
	if c.BrokerURL == "" {
		return fmt.Errorf("%w: broker URL is required", ErrConfig)
	}
	if c.PrimaryHostID == "" {
		return fmt.Errorf("%w: primary host ID is required", ErrConfig)
	}
	if c.DataQoS > 2 {
		return fmt.Errorf("%w: qos must be 0, 1, or 2", ErrConfig)
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
