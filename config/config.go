package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Sparkplug core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Sparkplug SparkplugConfig `yaml:"sparkplug"`
	Payload   PayloadConfig   `yaml:"payload"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker         MQTTBrokerConfig `yaml:"broker"`
	Auth           MQTTAuthConfig   `yaml:"auth"`
	QoS            int              `yaml:"qos"`
	KeepAlive      int              `yaml:"keep_alive"`      // seconds
	ConnectTimeout int              `yaml:"connect_timeout"` // seconds
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SparkplugConfig contains the Sparkplug identity for either role.
//
// An edge node sets GroupID and EdgeNodeID; a host application sets
// PrimaryHostID. SharedSubscriptionGroup is host-only and enables
// $share/<group>/ wrapping on the high-volume NDATA/DDATA filters.
type SparkplugConfig struct {
	Version                 string `yaml:"version"`
	GroupID                 string `yaml:"group_id"`
	EdgeNodeID              string `yaml:"edge_node_id"`
	PrimaryHostID           string `yaml:"primary_host_id"`
	SharedSubscriptionGroup string `yaml:"shared_subscription_group"`
}

// PayloadConfig contains outbound payload encoding settings.
type PayloadConfig struct {
	Compress  bool   `yaml:"compress"`
	Algorithm string `yaml:"algorithm"` // GZIP or DEFLATE
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SPARKPLUG_SECTION_KEY
// For example: SPARKPLUG_MQTT_HOST, SPARKPLUG_MQTT_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS:            0,
			KeepAlive:      60,
			ConnectTimeout: 30,
		},
		Sparkplug: SparkplugConfig{
			Version: "spBv1.0",
		},
		Payload: PayloadConfig{
			Compress:  false,
			Algorithm: "GZIP",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SPARKPLUG_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("SPARKPLUG_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SPARKPLUG_MQTT_CLIENT_ID"); v != "" {
		cfg.MQTT.Broker.ClientID = v
	}
	if v := os.Getenv("SPARKPLUG_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SPARKPLUG_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Sparkplug identity
	if v := os.Getenv("SPARKPLUG_GROUP_ID"); v != "" {
		cfg.Sparkplug.GroupID = v
	}
	if v := os.Getenv("SPARKPLUG_EDGE_NODE_ID"); v != "" {
		cfg.Sparkplug.EdgeNodeID = v
	}
	if v := os.Getenv("SPARKPLUG_PRIMARY_HOST_ID"); v != "" {
		cfg.Sparkplug.PrimaryHostID = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Describing the first invalid field found, or nil
func (c *Config) Validate() error {
	if c.MQTT.Broker.Host == "" {
		return fmt.Errorf("mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port <= 0 || c.MQTT.Broker.Port > 65535 {
		return fmt.Errorf("mqtt.broker.port must be 1-65535, got %d", c.MQTT.Broker.Port)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1, or 2, got %d", c.MQTT.QoS)
	}

	if c.Sparkplug.Version == "" {
		return fmt.Errorf("sparkplug.version is required")
	}

	// A configuration must identify either an edge node or a host.
	edge := c.Sparkplug.GroupID != "" && c.Sparkplug.EdgeNodeID != ""
	hostRole := c.Sparkplug.PrimaryHostID != ""
	if !edge && !hostRole {
		return fmt.Errorf("sparkplug: either group_id+edge_node_id (edge role) or primary_host_id (host role) is required")
	}

	if c.Payload.Compress {
		switch strings.ToUpper(c.Payload.Algorithm) {
		case "GZIP", "DEFLATE":
		default:
			return fmt.Errorf("payload.algorithm must be GZIP or DEFLATE, got %q", c.Payload.Algorithm)
		}
	}

	return nil
}

// BrokerURL returns the broker URL in the form paho expects,
// e.g. tcp://localhost:1883 or ssl://broker:8883 when TLS is enabled.
func (c *Config) BrokerURL() string {
	scheme := "tcp"
	if c.MQTT.Broker.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.MQTT.Broker.Host, c.MQTT.Broker.Port)
}

// GetKeepAlive returns the keepalive interval as a duration.
func (c *Config) GetKeepAlive() time.Duration {
	return time.Duration(c.MQTT.KeepAlive) * time.Second
}

// GetConnectTimeout returns the connect timeout as a duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.MQTT.ConnectTimeout) * time.Second
}
