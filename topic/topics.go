package topic

import "fmt"

// Topics provides builders for Sparkplug B topics and subscription
// filters. Using these helpers ensures consistent topic naming across
// the codebase.
//
//	topics := topic.Topics{}
//	nbirth := topics.Node("spBv1.0", "FactoryA", topic.NBIRTH, "Line1")
//	// Returns: "spBv1.0/FactoryA/NBIRTH/Line1"
type Topics struct{}

// =============================================================================
// Outbound Topics
// =============================================================================

// Node returns a node-level topic.
//
// Example: spBv1.0/FactoryA/NBIRTH/Line1
func (Topics) Node(version, groupID string, msgType MessageType, edgeNodeID string) string {
	return fmt.Sprintf("%s/%s/%s/%s", version, groupID, msgType, edgeNodeID)
}

// Device returns a device-level topic.
//
// Example: spBv1.0/FactoryA/DBIRTH/Line1/Press01
func (Topics) Device(version, groupID string, msgType MessageType, edgeNodeID, deviceID string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", version, groupID, msgType, edgeNodeID, deviceID)
}

// State returns the reserved primary host state topic.
//
// Example: STATE/scada-primary
func (Topics) State(primaryHostID string) string {
	return fmt.Sprintf("%s/%s", StatePrefix, primaryHostID)
}

// =============================================================================
// Subscription Filters
// =============================================================================

// NodeCommands returns the filter for commands addressed to one node.
//
// Pattern: spBv1.0/FactoryA/NCMD/Line1
func (Topics) NodeCommands(version, groupID, edgeNodeID string) string {
	return fmt.Sprintf("%s/%s/%s/%s", version, groupID, NCMD, edgeNodeID)
}

// DeviceCommands returns the filter for commands addressed to any
// device under one node.
//
// Pattern: spBv1.0/FactoryA/DCMD/Line1/+
func (Topics) DeviceCommands(version, groupID, edgeNodeID string) string {
	return fmt.Sprintf("%s/%s/%s/%s/+", version, groupID, DCMD, edgeNodeID)
}

// AllStates returns the filter matching every primary host state topic.
//
// Pattern: STATE/#
func (Topics) AllStates() string {
	return StatePrefix + "/#"
}

// AllOfType returns the filter matching a node-level message type from
// every group and node.
//
// Pattern: spBv1.0/+/NBIRTH/+
func (Topics) AllOfType(version string, msgType MessageType) string {
	return fmt.Sprintf("%s/+/%s/+", version, msgType)
}

// AllOfTypeDeep returns the filter matching a message type from every
// group, node, and device. Used for the high-volume data types where
// the trailing segments vary.
//
// Pattern: spBv1.0/+/NDATA/#
func (Topics) AllOfTypeDeep(version string, msgType MessageType) string {
	return fmt.Sprintf("%s/+/%s/#", version, msgType)
}

// Shared wraps a filter as an MQTT5 shared subscription for the given
// group. Brokers that support $share distribute matching messages
// across the members of the group instead of duplicating them.
//
// Pattern: $share/<group>/<filter>
func (Topics) Shared(group, filter string) string {
	return fmt.Sprintf("$share/%s/%s", group, filter)
}
