// Package host implements the Sparkplug B host application.
//
// A host subscribes to a Sparkplug namespace, assembles a live mirror
// of every observed edge node and device, and announces its own
// availability on the retained STATE topic so edge nodes can implement
// store-and-forward against it.
//
// # State Topic
//
// On connect the host registers a retained OFFLINE will and publishes
// a retained ONLINE. An ungraceful drop makes the broker deliver the
// will; a graceful Disconnect publishes OFFLINE itself before closing.
//
// # Topology Mirror
//
// NBIRTH and DBIRTH messages build the group → node → device → metric
// tree; NDATA and DDATA merge value updates into it; NDEATH and DDEATH
// prune it. When the host observes traffic for a node it has no birth
// certificate for, or a sequence gap, its view has desynchronised: it
// publishes an NCMD Node Control/Rebirth so the node re-announces
// everything.
//
// # Shared Subscriptions
//
// The high-volume NDATA/DDATA filters can ride an MQTT5 shared
// subscription group ($share/<group>/...) so a fleet of hosts splits
// the load, while the low-volume lifecycle topics stay on exclusive
// subscriptions.
//
// # Usage
//
//	h, err := host.New(host.Config{
//	    BrokerURL:     "tcp://localhost:1883",
//	    PrimaryHostID: "scada-primary",
//	})
//	if err != nil {
//	    return err
//	}
//	h.Events().On(events.NBirth, onNodeBirth)
//	if err := h.Connect(); err != nil {
//	    return err
//	}
//	defer h.Disconnect()
//
//	view := h.Snapshot() // flattened groups/nodes/devices/metrics
package host
