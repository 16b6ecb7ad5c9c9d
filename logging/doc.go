// Package logging provides structured logging for the Sparkplug core.
//
// Every stateful component in this module (node.Node, host.Host,
// mqtt.Client) accepts a small leveled-logger interface rather than a
// concrete type. This package supplies the one implementation meant
// for production use: a log/slog-backed Logger whose method set is
// exactly that interface, plus identity-scoped children so call sites
// do not repeat their Sparkplug coordinates on every record.
//
// # Wiring
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//
//	n.SetLogger(logger.ForNode(cfg.Sparkplug.GroupID, cfg.Sparkplug.EdgeNodeID))
//	h.SetLogger(logger.ForHost(cfg.Sparkplug.PrimaryHostID))
//	client.SetLogger(logger.With("component", "mqtt"))
//
// # Levels
//
// The level is shared by a logger and all children derived from it and
// can be changed at runtime:
//
//	logger.SetLevel("debug") // scan ticks and RBE decisions become visible
//
// Lifecycle transitions and ignored node/host lifecycle calls log at
// info; refused device transitions, refused device data and malformed
// traffic at warn; transport failures at error; per-tick
// report-by-exception decisions at debug.
//
// # Output
//
// Records are JSON by default (text for development via
// logging.format: "text") and carry service and version fields.
// NewWriter accepts an explicit io.Writer so tests can capture and
// assert on emitted records; Discard returns a silent logger for
// tests that only need the interface satisfied.
//
// # Security
//
// Never log broker credentials. Metric values are application data and
// may be logged at debug level only.
package logging
