// Package topic implements the Sparkplug B topic namespace.
//
// This package manages:
//   - Parsing inbound topic strings into structured Topic values
//   - Building outbound node, device, and STATE topics
//   - Subscription filter construction, including MQTT5 shared
//     subscriptions ($share/<group>/<filter>)
//
// # Topic Grammar
//
// Sparkplug B topics follow a fixed slash-separated grammar:
//
//	<version>/<groupId>/<messageType>/<edgeNodeId>[/<deviceId>]
//
// for example:
//
//	spBv1.0/FactoryA/NBIRTH/Line1
//	spBv1.0/FactoryA/DDATA/Line1/Press01
//
// The reserved STATE topic sits outside the versioned namespace:
//
//	STATE/<primaryHostId>
//
// # Usage
//
//	t := topic.Topics{}
//	nbirth := t.Node("spBv1.0", "FactoryA", topic.NBIRTH, "Line1")
//	state := t.State("scada-primary")
//
//	parsed, err := topic.Parse("spBv1.0/FactoryA/DDATA/Line1/Press01")
//	// parsed.Type == topic.DDATA, parsed.DeviceID == "Press01"
package topic
