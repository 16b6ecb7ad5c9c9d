package mqtt

import (
	"fmt"
)

// Subscribe registers a handler for messages matching the filter.
//
// Filters can include MQTT wildcards:
//   - + (single-level): "spBv1.0/+/NBIRTH/+" matches any group and node
//   - # (multi-level): "STATE/#" matches all host state topics
//
// Received messages are handed to handlers one at a time, in arrival
// order, on paho's delivery goroutine. A handler that blocks delays every
// later message on the client.
//
// Parameters:
//   - filter: The topic pattern to subscribe to
//   - qos: Maximum QoS level for received messages (0, 1, or 2)
//   - handler: Callback function invoked for each message
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Subscribe(filter string, qos byte, handler MessageHandler) error {
	// Validate inputs
	if filter == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}

	// Check connection state
	if !c.IsConnected() {
		return ErrNotConnected
	}

	// Track subscription for teardown bookkeeping
	c.subMu.Lock()
	c.subscriptions[filter] = subscription{
		filter:  filter,
		qos:     qos,
		handler: handler,
	}
	c.subMu.Unlock()

	// Subscribe with wrapped handler (includes panic recovery)
	token := c.client.Subscribe(filter, qos, c.wrapHandler(handler))
	if !token.WaitTimeout(defaultOperationTimeout) {
		// Remove from tracking since subscription failed
		c.subMu.Lock()
		delete(c.subscriptions, filter)
		c.subMu.Unlock()
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultOperationTimeout)
	}
	if err := token.Error(); err != nil {
		// Remove from tracking since subscription failed
		c.subMu.Lock()
		delete(c.subscriptions, filter)
		c.subMu.Unlock()
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	return nil
}

// SubscribeShared subscribes through an MQTT5 shared subscription
// group. The broker distributes matching messages across the group's
// members instead of duplicating them, which hosts use for the
// high-volume NDATA/DDATA filters.
//
// The filter is wrapped as $share/<group>/<filter> before subscribing.
//
// Parameters:
//   - group: The shared subscription group name
//   - filter: The topic pattern to subscribe to
//   - qos: Maximum QoS level for received messages
//   - handler: Callback function invoked for each message
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) SubscribeShared(group, filter string, qos byte, handler MessageHandler) error {
	if group == "" {
		return fmt.Errorf("%w: shared group cannot be empty", ErrSubscribeFailed)
	}
	return c.Subscribe(fmt.Sprintf("$share/%s/%s", group, filter), qos, handler)
}

// Unsubscribe removes a subscription and stops receiving messages for a filter.
//
// After unsubscribing, the handler will no longer be called for new messages
// on this filter. Any messages in flight may still be delivered.
//
// Parameters:
//   - filter: The exact filter that was subscribed to (including any
//     $share prefix)
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Unsubscribe(filter string) error {
	// Validate inputs
	if filter == "" {
		return ErrInvalidTopic
	}

	// Check connection state
	if !c.IsConnected() {
		return ErrNotConnected
	}

	// Remove from tracking
	c.subMu.Lock()
	delete(c.subscriptions, filter)
	c.subMu.Unlock()

	// Unsubscribe from broker
	token := c.client.Unsubscribe(filter)
	if !token.WaitTimeout(defaultOperationTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrUnsubscribeFailed, defaultOperationTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsubscribeFailed, err)
	}

	return nil
}

// SubscriptionCount returns the number of active subscriptions.
//
// This can be useful for monitoring and for asserting clean teardown
// in tests.
func (c *Client) SubscriptionCount() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subscriptions)
}

// HasSubscription checks if a subscription exists for the given filter.
//
// Note: This checks only the exact filter string, not pattern matching.
func (c *Client) HasSubscription(filter string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	_, exists := c.subscriptions[filter]
	return exists
}
