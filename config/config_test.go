package config

import (
	"os"
	"path/filepath"
	"testing"
)

// writeConfig writes a temporary config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoad_EdgeRole(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker:
    host: "broker.local"
    port: 8883
    tls: true
    client_id: "edge-line1"
  auth:
    username: "edge"
    password: "secret"
  qos: 1
sparkplug:
  group_id: "FactoryA"
  edge_node_id: "Line1"
payload:
  compress: true
  algorithm: "DEFLATE"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.local" || cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("broker = %+v, want broker.local:8883", cfg.MQTT.Broker)
	}
	if got := cfg.BrokerURL(); got != "ssl://broker.local:8883" {
		t.Errorf("BrokerURL() = %q, want ssl://broker.local:8883", got)
	}
	if cfg.Sparkplug.Version != "spBv1.0" {
		t.Errorf("version default = %q, want spBv1.0", cfg.Sparkplug.Version)
	}
	if !cfg.Payload.Compress || cfg.Payload.Algorithm != "DEFLATE" {
		t.Errorf("payload = %+v, want DEFLATE compression", cfg.Payload)
	}
}

func TestLoad_HostRole(t *testing.T) {
	path := writeConfig(t, `
sparkplug:
  primary_host_id: "scada-primary"
  shared_subscription_group: "hosts"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sparkplug.PrimaryHostID != "scada-primary" {
		t.Errorf("primary_host_id = %q", cfg.Sparkplug.PrimaryHostID)
	}
	// Broker defaults apply.
	if got := cfg.BrokerURL(); got != "tcp://localhost:1883" {
		t.Errorf("BrokerURL() = %q, want tcp://localhost:1883", got)
	}
}

func TestLoad_MissingIdentity(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker:
    host: "localhost"
    port: 1883
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Load() without edge or host identity should fail")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load() of missing file should fail")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := defaultConfig()
		cfg.Sparkplug.GroupID = "G"
		cfg.Sparkplug.EdgeNodeID = "N"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid edge", func(*Config) {}, false},
		{"valid host", func(c *Config) {
			c.Sparkplug.GroupID = ""
			c.Sparkplug.EdgeNodeID = ""
			c.Sparkplug.PrimaryHostID = "h"
		}, false},
		{"no identity", func(c *Config) {
			c.Sparkplug.GroupID = ""
			c.Sparkplug.EdgeNodeID = ""
		}, true},
		{"bad port", func(c *Config) { c.MQTT.Broker.Port = 70000 }, true},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 5 }, true},
		{"bad algorithm", func(c *Config) {
			c.Payload.Compress = true
			c.Payload.Algorithm = "LZ4"
		}, true},
		{"lowercase algorithm accepted", func(c *Config) {
			c.Payload.Compress = true
			c.Payload.Algorithm = "gzip"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
sparkplug:
  group_id: "FactoryA"
  edge_node_id: "Line1"
`)

	t.Setenv("SPARKPLUG_MQTT_HOST", "env-broker")
	t.Setenv("SPARKPLUG_MQTT_USERNAME", "env-user")
	t.Setenv("SPARKPLUG_MQTT_PASSWORD", "env-pass")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("host = %q, want env-broker", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.Auth.Username != "env-user" || cfg.MQTT.Auth.Password != "env-pass" {
		t.Errorf("auth = %+v, want env credentials", cfg.MQTT.Auth)
	}
}
