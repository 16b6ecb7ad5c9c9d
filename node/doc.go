// Package node implements the Sparkplug B edge node.
//
// An edge node owns a set of metrics and zero or more devices, streams
// their values to the broker under report-by-exception rules, and obeys
// the Sparkplug session lifecycle: every connection opens with an
// NBIRTH certificate, closes with an NDEATH certificate (registered as
// the MQTT will), and numbers every message in between.
//
// # Lifecycle
//
// A node moves through three states:
//
//	disconnected ──Connect()──▶ connected (dead) ──birth──▶ connected (born)
//	     ▲                            │  ▲                        │
//	     └────────Disconnect()────────┘  └────────death───────────┘
//
// Connect bumps the bdSeq, registers the NDEATH will, opens the broker
// session, subscribes to inbound commands, and births the node
// automatically. A host can force a fresh session at any time with an
// NCMD Node Control/Rebirth.
//
// # Scheduling
//
// Each distinct metric scan rate gets one recurring timer. On every
// tick the scheduler evaluates the metrics at that rate (invoking
// producer functions), applies the report-by-exception gate, and
// publishes one NDATA and/or one DDATA per device with whatever
// qualified.
//
// # Concurrency
//
// All state transitions for one node are serialised on an internal
// mutex: MQTT callbacks, timer ticks, and API calls mutate state one at
// a time, and transitions are never observable half-applied.
//
// # Usage
//
//	n, err := node.New(node.Config{
//	    BrokerURL: "tcp://localhost:1883",
//	    GroupID:   "FactoryA",
//	    ID:        "Line1",
//	    Metrics: []node.Metric{
//	        {Name: "Temperature", Type: payload.Double, Value: readTemp,
//	            ScanRate: time.Second, Deadband: &node.Deadband{Value: 0.5}},
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	n.Events().On(events.NCmd, onCommand)
//	if err := n.Connect(); err != nil {
//	    return err
//	}
//	defer n.Disconnect()
package node
