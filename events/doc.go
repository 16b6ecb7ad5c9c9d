// Package events provides the typed event surface for nodes and hosts.
//
// Application code observes protocol activity (connections, births,
// deaths, data, commands) by registering handlers on a Bus. The core
// emits; applications listen. Registration returns the bus so wiring
// reads as a chain:
//
//	node.Events().
//	    On(events.Connected, onConnect).
//	    On(events.NCmd, onCommand).
//	    Once(events.Birth, onFirstBirth)
//
// Once handlers detach themselves after their first delivery; use them
// for one-shot waits like "the next birth".
//
// # Delivery
//
// Handlers run synchronously on the emitting goroutine, in registration
// order. The protocol layers queue their emissions during a state
// transition and deliver them after it completes, so handlers observe
// finished transitions and may call back into the node or host.
// Handlers should still not block; long work belongs on the
// application's own goroutines.
//
// # Teardown
//
// RemoveAll detaches every handler. The core registers no handlers of
// its own on a Bus and does not call RemoveAll; on disconnect the node
// and host detach the transport callbacks they installed, and handlers
// registered by the application stay attached.
package events
