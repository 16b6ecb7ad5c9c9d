// Package mqtt provides the MQTT transport adapter for the Sparkplug core.
//
// This package manages:
//   - Connection to the broker with a caller-supplied last will
//   - Message publishing with QoS and retain control
//   - Topic subscriptions, including MQTT5 shared subscriptions
//   - Connection event callbacks (connect, disconnect)
//
// # Architecture
//
// The adapter wraps paho.mqtt.golang behind a small surface so the
// protocol layers (node, host) never touch paho types directly. The
// last will is central to Sparkplug: an edge node registers its NDEATH
// certificate as the will so the broker announces the death when the
// session drops; a host registers its retained OFFLINE state.
//
// # Reconnection
//
// Auto-reconnect is deliberately disabled. Sparkplug sessions are
// stateful (bdSeq, sequence numbers, birth certificates), so a dropped
// connection must surface to the owning state machine, which decides
// whether and when to establish a fresh session. A paho-level silent
// reconnect would resume the old session with stale counters.
//
// # Usage
//
//	client, err := mqtt.Connect(mqtt.Options{
//	    BrokerURL: "tcp://localhost:1883",
//	    ClientID:  "edge-line1",
//	    Will: &mqtt.Will{
//	        Topic:   "spBv1.0/FactoryA/NDEATH/Line1",
//	        Payload: deathBytes,
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe("spBv1.0/FactoryA/NCMD/Line1", 0,
//	    func(topic string, payload []byte) error {
//	        return handleCommand(topic, payload)
//	    })
package mqtt
