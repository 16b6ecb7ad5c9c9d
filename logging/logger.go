package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/sparkplug-core/config"
)

// Logger emits structured records through log/slog.
//
// It exposes exactly the four leveled methods the library's consumer
// interfaces require (node.Logger and host.Logger ask for
// Debug/Info/Warn/Error with key-value args, mqtt.Logger for Error and
// Warn only), so one Logger can be
// handed to every component without adapters. The slog handler behind
// it is an implementation detail and is not exported.
//
// The level is a live slog.LevelVar: SetLevel re-levels a running
// logger and every child derived from it, which matters for field
// debugging — scan-rate ticks log at debug, and flipping a node's
// logger to debug mid-session must not require rebuilding the node.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	s     *slog.Logger
	level *slog.LevelVar
}

// New creates a Logger from the logging section of a configuration
// file, writing to the configured destination (stdout or stderr).
//
// Parameters:
//   - cfg: Logging configuration from config.yaml
//   - version: Library version stamped on every record
//
// Returns:
//   - *Logger: Configured logger ready to hand to nodes and hosts
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		output = os.Stderr
	}
	return NewWriter(cfg, version, output)
}

// NewWriter is New with an explicit destination. Tests use it to
// capture records in a buffer and assert on the emitted fields.
func NewWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	level := &slog.LevelVar{}
	level.Set(parseLevel(cfg.Level))

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "sparkplug"),
		slog.String("version", version),
	})

	return &Logger{
		s:     slog.New(handler),
		level: level,
	}
}

// Discard returns a logger that drops every record. It satisfies the
// same consumer interfaces as a real logger, so tests can silence a
// component without special-casing nil.
func Discard() *Logger {
	level := &slog.LevelVar{}
	return &Logger{
		s:     slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})),
		level: level,
	}
}

// Debug logs at debug level. Scan ticks, RBE suppressions, and other
// per-message noise belong here.
func (l *Logger) Debug(msg string, args ...any) {
	l.s.Debug(msg, args...)
}

// Info logs at info level: lifecycle transitions (connected, born,
// dead), ignored node/host lifecycle calls, subscriptions, rebirth
// requests.
func (l *Logger) Info(msg string, args ...any) {
	l.s.Info(msg, args...)
}

// Warn logs at warn level: refused device transitions and device data,
// undecodable inbound payloads, sequence gaps.
func (l *Logger) Warn(msg string, args ...any) {
	l.s.Warn(msg, args...)
}

// Error logs at error level: transport loss, publish failures.
func (l *Logger) Error(msg string, args ...any) {
	l.s.Error(msg, args...)
}

// With returns a child logger carrying additional default attributes.
// The child shares the parent's level variable.
//
// Example:
//
//	mqttLogger := logger.With("component", "mqtt")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		s:     l.s.With(args...),
		level: l.level,
	}
}

// ForNode returns a child logger stamped with an edge node's Sparkplug
// identity, so the per-call sites do not have to repeat it.
//
// Example:
//
//	n.SetLogger(logger.ForNode("FactoryA", "Line1"))
func (l *Logger) ForNode(groupID, nodeID string) *Logger {
	return l.With(
		"component", "node",
		"group_id", groupID,
		"node_id", nodeID,
	)
}

// ForHost returns a child logger stamped with a host application's
// identity.
func (l *Logger) ForHost(primaryHostID string) *Logger {
	return l.With(
		"component", "host",
		"primary_host_id", primaryHostID,
	)
}

// SetLevel re-levels the logger and every child derived from it.
// Unrecognised names fall back to info.
func (l *Logger) SetLevel(level string) {
	l.level.Set(parseLevel(level))
}

// parseLevel converts a configured level name to its slog.Level.
// Unrecognised names default to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
