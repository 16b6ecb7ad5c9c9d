package node

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/sparkplug-core/events"
	"github.com/nerrad567/sparkplug-core/payload"
	"github.com/nerrad567/sparkplug-core/topic"
)

// BirthDevice publishes a DBIRTH for the device.
//
// The transition is guarded: the device must be dead and the node
// born. A failed guard is a no-op plus a warning; the device's
// observable state does not change.
func (n *Node) BirthDevice(deviceID string) error {
	n.mu.Lock()
	err := n.birthDeviceLocked(deviceID)
	evs := n.flushLocked()
	n.mu.Unlock()

	n.deliver(evs)
	return err
}

func (n *Node) birthDeviceLocked(deviceID string) error {
	d, ok := n.devices[deviceID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDevice, deviceID)
	}
	if d.born || n.state != ConnectedBorn {
		n.logger.Warn("device birth ignored",
			"device_id", deviceID,
			"device_born", d.born,
			"node_state", n.state.String(),
		)
		return ErrInvalidTransition
	}

	ctx, cancel := context.WithTimeout(context.Background(), evaluateTimeout)
	defer cancel()
	return n.deviceBirthLocked(ctx, d)
}

// DeathDevice publishes a DDEATH for the device.
//
// The transition is guarded: the device must be born. A failed guard
// is a no-op plus a warning.
func (n *Node) DeathDevice(deviceID string) error {
	n.mu.Lock()
	err := n.deathDeviceLocked(deviceID)
	evs := n.flushLocked()
	n.mu.Unlock()

	n.deliver(evs)
	return err
}

func (n *Node) deathDeviceLocked(deviceID string) error {
	d, ok := n.devices[deviceID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDevice, deviceID)
	}
	if !d.born {
		n.logger.Warn("device death ignored", "device_id", deviceID)
		return ErrInvalidTransition
	}
	return n.deviceDeathLocked(d)
}

// PublishDeviceData sends an application-assembled DDATA for a device.
//
// Refused with a warning unless both the node and the device are born.
// The payload is stamped with the next sequence number and the current
// timestamp.
func (n *Node) PublishDeviceData(deviceID string, metrics []payload.Metric) error {
	n.mu.Lock()
	err := n.publishDeviceDataLocked(deviceID, metrics)
	evs := n.flushLocked()
	n.mu.Unlock()

	n.deliver(evs)
	return err
}

func (n *Node) publishDeviceDataLocked(deviceID string, metrics []payload.Metric) error {
	d, ok := n.devices[deviceID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDevice, deviceID)
	}
	if n.state != ConnectedBorn || !d.born {
		n.logger.Warn("device data refused",
			"device_id", deviceID,
			"device_born", d.born,
			"node_state", n.state.String(),
		)
		return ErrNotBorn
	}

	now := time.Now()
	dataTopic := n.topics.Device(n.cfg.version(), n.cfg.GroupID, topic.DDATA, n.cfg.ID, d.ID)
	return n.publishLocked(dataTopic, &payload.Payload{
		Timestamp: now.UnixMilli(),
		Seq:       payload.SeqValue(n.seq.NextSeq()),
		Metrics:   metrics,
	}, n.codec)
}

// deviceBirthLocked publishes the DBIRTH certificate with the
// evaluated current metric snapshot. Callers hold the mutex and have
// verified the guards.
func (n *Node) deviceBirthLocked(ctx context.Context, d *Device) error {
	now := time.Now()
	snapshot, err := n.snapshotLocked(ctx, d.Metrics, now)
	if err != nil {
		return err
	}

	birthTopic := n.topics.Device(n.cfg.version(), n.cfg.GroupID, topic.DBIRTH, n.cfg.ID, d.ID)
	if err := n.publishLocked(birthTopic, &payload.Payload{
		Timestamp: now.UnixMilli(),
		Seq:       payload.SeqValue(n.seq.NextSeq()),
		Metrics:   snapshot,
	}, n.codec); err != nil {
		return err
	}

	d.born = true
	n.logger.Info("device born", "device_id", d.ID)
	n.emitLocked(events.DBirth, d.ID)
	return nil
}

// deviceDeathLocked publishes the DDEATH certificate with the final
// metric snapshot. Callers hold the mutex and have verified the
// guards.
func (n *Node) deviceDeathLocked(d *Device) error {
	ctx, cancel := context.WithTimeout(context.Background(), evaluateTimeout)
	defer cancel()

	now := time.Now()
	snapshot, err := n.snapshotLocked(ctx, d.Metrics, now)
	if err != nil {
		return err
	}

	deathTopic := n.topics.Device(n.cfg.version(), n.cfg.GroupID, topic.DDEATH, n.cfg.ID, d.ID)
	if err := n.publishLocked(deathTopic, &payload.Payload{
		Timestamp: now.UnixMilli(),
		Seq:       payload.SeqValue(n.seq.NextSeq()),
		Metrics:   snapshot,
	}, n.codec); err != nil {
		return err
	}

	d.born = false
	n.logger.Info("device dead", "device_id", d.ID)
	n.emitLocked(events.DDeath, d.ID)
	return nil
}
