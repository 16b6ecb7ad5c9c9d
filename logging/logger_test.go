package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/nerrad567/sparkplug-core/config"
)

// decodeRecord parses one JSON log line.
func decodeRecord(t *testing.T, line []byte) map[string]any {
	t.Helper()

	var record map[string]any
	if err := json.Unmarshal(line, &record); err != nil {
		t.Fatalf("unmarshalling log record %q: %v", line, err)
	}
	return record
}

func TestNewWriter_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(config.LoggingConfig{Level: "info", Format: "json"}, "1.0.0", &buf)

	logger.Info("node born", "group_id", "FactoryA")

	record := decodeRecord(t, buf.Bytes())
	if record["msg"] != "node born" {
		t.Errorf("msg = %v, want node born", record["msg"])
	}
	if record["service"] != "sparkplug" {
		t.Errorf("service = %v, want sparkplug", record["service"])
	}
	if record["version"] != "1.0.0" {
		t.Errorf("version = %v, want 1.0.0", record["version"])
	}
	if record["group_id"] != "FactoryA" {
		t.Errorf("group_id = %v, want FactoryA", record["group_id"])
	}
}

func TestNewWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(config.LoggingConfig{Level: "info", Format: "text"}, "1.0.0", &buf)

	logger.Warn("sequence gap", "expected", 3)

	out := buf.String()
	if !strings.Contains(out, "sequence gap") || !strings.Contains(out, "expected=3") {
		t.Errorf("text output %q missing message or field", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(config.LoggingConfig{Level: "warn", Format: "json"}, "dev", &buf)

	logger.Debug("suppressed")
	logger.Info("suppressed")
	logger.Warn("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d records, want 1: %q", len(lines), buf.String())
	}
	if record := decodeRecord(t, []byte(lines[0])); record["msg"] != "kept" {
		t.Errorf("surviving record = %v, want the warn", record["msg"])
	}
}

func TestSetLevel_RelevelsChildren(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(config.LoggingConfig{Level: "info", Format: "json"}, "dev", &buf)
	child := logger.ForNode("G", "N")

	child.Debug("before")
	logger.SetLevel("debug")
	child.Debug("after")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d records, want 1: %q", len(lines), buf.String())
	}
	if record := decodeRecord(t, []byte(lines[0])); record["msg"] != "after" {
		t.Errorf("surviving record = %v, want the post-relevel debug", record["msg"])
	}
}

func TestForNode_IdentityFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(config.LoggingConfig{Level: "info", Format: "json"}, "dev", &buf)

	logger.ForNode("FactoryA", "Line1").Info("born")

	record := decodeRecord(t, buf.Bytes())
	if record["component"] != "node" || record["group_id"] != "FactoryA" || record["node_id"] != "Line1" {
		t.Errorf("record = %v, want node identity fields", record)
	}
}

func TestForHost_IdentityFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(config.LoggingConfig{Level: "info", Format: "json"}, "dev", &buf)

	logger.ForHost("scada-primary").Info("online")

	record := decodeRecord(t, buf.Bytes())
	if record["component"] != "host" || record["primary_host_id"] != "scada-primary" {
		t.Errorf("record = %v, want host identity fields", record)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()

	// Must absorb every level without output or panic; the interface
	// shape matches the component Logger interfaces.
	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("dropped")
	logger.Error("dropped", "error", "boom")
	logger.ForNode("G", "N").Info("dropped")
}
