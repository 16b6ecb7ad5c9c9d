package node

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nerrad567/sparkplug-core/events"
	"github.com/nerrad567/sparkplug-core/payload"
	"github.com/nerrad567/sparkplug-core/topic"
)

// pending pairs a metric with its evaluated wire form for one payload
// assembly. The metric's lastPublished is committed only after the
// publish succeeds, so it always reflects what actually went out.
type pending struct {
	metric *Metric
	value  any
	wire   payload.Metric
}

// evaluateLocked resolves one metric to its pending wire form.
func (n *Node) evaluateLocked(ctx context.Context, m *Metric, now time.Time) (pending, error) {
	value, err := m.evaluate(ctx)
	if err != nil {
		return pending{}, fmt.Errorf("node: evaluating metric %q: %w", m.Name, err)
	}

	return pending{
		metric: m,
		value:  value,
		wire: payload.Metric{
			Name:       m.Name,
			Alias:      m.Alias,
			Type:       m.Type,
			Timestamp:  now.UnixMilli(),
			IsNull:     value == nil,
			Value:      value,
			Properties: m.Properties,
		},
	}, nil
}

// snapshotLocked evaluates every metric in the set, in name order.
// Births use this: the certificate announces all metrics regardless of
// the report-by-exception gate. Callers hold the mutex.
func (n *Node) snapshotLocked(ctx context.Context, metrics map[string]*Metric, now time.Time) ([]payload.Metric, error) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]payload.Metric, 0, len(names))
	for _, name := range names {
		p, err := n.evaluateLocked(ctx, metrics[name], now)
		if err != nil {
			return nil, err
		}
		p.metric.last = &lastPublished{timestamp: now, value: p.value}
		out = append(out, p.wire)
	}
	return out, nil
}

// collectDueLocked evaluates the metrics scheduled at the given rate
// and keeps those that pass the report-by-exception gate. Callers hold
// the mutex.
func (n *Node) collectDueLocked(ctx context.Context, metrics map[string]*Metric, rate time.Duration, now time.Time) []pending {
	names := make([]string, 0, len(metrics))
	for name, m := range metrics {
		if m.ScanRate == rate {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var due []pending
	for _, name := range names {
		m := metrics[name]
		p, err := n.evaluateLocked(ctx, m, now)
		if err != nil {
			n.logger.Warn("metric evaluation failed", "metric", name, "error", err)
			continue
		}
		publish := shouldPublish(m, p.value, now)
		n.logger.Debug("report-by-exception decision", "metric", name, "scan_rate", rate, "publish", publish)
		if publish {
			due = append(due, p)
		}
	}
	return due
}

// commit records the published value on every metric that went out.
func commit(due []pending, now time.Time) {
	for _, p := range due {
		p.metric.last = &lastPublished{timestamp: now, value: p.value}
	}
}

// wireMetrics strips the pending bookkeeping down to payload metrics.
func wireMetrics(due []pending) []payload.Metric {
	out := make([]payload.Metric, 0, len(due))
	for _, p := range due {
		out = append(out, p.wire)
	}
	return out
}

// publishLocked encodes and sends one payload, emitting the publish
// event on success. Callers hold the mutex.
func (n *Node) publishLocked(topicStr string, p *payload.Payload, codec *payload.Codec) error {
	if n.transport == nil {
		return ErrInvalidTransition
	}

	data, err := codec.Encode(p)
	if err != nil {
		return fmt.Errorf("node: encoding payload for %s: %w", topicStr, err)
	}

	if err := n.transport.Publish(topicStr, data, n.cfg.QoS, false); err != nil {
		n.emitLocked(events.Error, err)
		return err
	}

	t, parseErr := topic.Parse(topicStr)
	if parseErr == nil {
		n.emitLocked(events.Publish, &events.Envelope{Topic: t, Payload: p})
	}
	return nil
}

// tick runs one scheduler pass for all metrics at the given scan rate.
//
// Node metrics that qualify go out in a single NDATA; each device's
// qualifying metrics go out in one DDATA. Evaluations for a tick are
// collected before publishing so one payload reflects one consistent
// snapshot.
func (n *Node) tick(rate time.Duration) {
	n.mu.Lock()
	n.tickLocked(rate)
	evs := n.flushLocked()
	n.mu.Unlock()

	n.deliver(evs)
}

// tickLocked implements tick. Callers hold the mutex.
func (n *Node) tickLocked(rate time.Duration) {
	if n.state != ConnectedBorn {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), evaluateTimeout)
	defer cancel()

	now := time.Now()
	version := n.cfg.version()

	// Node-owned metrics.
	if due := n.collectDueLocked(ctx, n.metrics, rate, now); len(due) > 0 {
		dataTopic := n.topics.Node(version, n.cfg.GroupID, topic.NDATA, n.cfg.ID)
		err := n.publishLocked(dataTopic, &payload.Payload{
			Timestamp: now.UnixMilli(),
			Seq:       payload.SeqValue(n.seq.NextSeq()),
			Metrics:   wireMetrics(due),
		}, n.codec)
		if err != nil {
			n.logger.Warn("NDATA publish failed", "error", err)
		} else {
			commit(due, now)
		}
	}

	// Device-owned metrics, one DDATA per device.
	for _, id := range n.sortedDeviceIDs() {
		d := n.devices[id]
		if !d.born {
			continue
		}
		due := n.collectDueLocked(ctx, d.Metrics, rate, now)
		if len(due) == 0 {
			continue
		}
		dataTopic := n.topics.Device(version, n.cfg.GroupID, topic.DDATA, n.cfg.ID, d.ID)
		err := n.publishLocked(dataTopic, &payload.Payload{
			Timestamp: now.UnixMilli(),
			Seq:       payload.SeqValue(n.seq.NextSeq()),
			Metrics:   wireMetrics(due),
		}, n.codec)
		if err != nil {
			n.logger.Warn("DDATA publish failed", "device_id", id, "error", err)
		} else {
			commit(due, now)
		}
	}
}

// scanRatesLocked computes the distinct scan rates across node and
// device metrics. Callers hold the mutex.
func (n *Node) scanRatesLocked() []time.Duration {
	seen := make(map[time.Duration]struct{})
	add := func(metrics map[string]*Metric) {
		for _, m := range metrics {
			if m.ScanRate > 0 {
				seen[m.ScanRate] = struct{}{}
			}
		}
	}
	add(n.metrics)
	for _, d := range n.devices {
		add(d.Metrics)
	}

	rates := make([]time.Duration, 0, len(seen))
	for r := range seen {
		rates = append(rates, r)
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i] < rates[j] })
	return rates
}
