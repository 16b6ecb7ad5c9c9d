package payload

import (
	"fmt"
	"sort"

	"github.com/weekaung/sparkplugb-client/sproto"
)

// toProto converts the domain payload to its protobuf form.
//
// Metrics are emitted in sorted name order so repeated births of the
// same node are byte-comparable. Reserved metrics (bdSeq, rebirth) are
// sorted by name along with the rest; the stable sort only preserves
// the input order of metrics that share a name.
func toProto(p *Payload) (*sproto.Payload, error) {
	out := &sproto.Payload{}

	if p.Timestamp != 0 {
		ts := uint64(p.Timestamp)
		out.Timestamp = &ts
	}
	if p.Seq != nil {
		seq := *p.Seq
		out.Seq = &seq
	}
	if p.UUID != "" {
		uuid := p.UUID
		out.Uuid = &uuid
	}
	if len(p.Body) > 0 {
		out.Body = p.Body
	}

	metrics := make([]Metric, len(p.Metrics))
	copy(metrics, p.Metrics)
	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].Name < metrics[j].Name
	})

	for i := range metrics {
		pm, err := metricToProto(&metrics[i])
		if err != nil {
			return nil, err
		}
		out.Metrics = append(out.Metrics, pm)
	}

	return out, nil
}

// metricToProto converts one domain metric to its protobuf form.
func metricToProto(m *Metric) (*sproto.Payload_Metric, error) {
	pm := &sproto.Payload_Metric{}

	if m.Name != "" {
		name := m.Name
		pm.Name = &name
	}
	if m.Alias != 0 {
		alias := m.Alias
		pm.Alias = &alias
	}
	if m.Type != Unknown {
		dt := uint32(m.Type)
		pm.Datatype = &dt
	}
	if m.Timestamp != 0 {
		ts := uint64(m.Timestamp)
		pm.Timestamp = &ts
	}

	if m.IsNull || m.Value == nil {
		isNull := true
		pm.IsNull = &isNull
		return pm, nil
	}

	if err := setProtoValue(pm, m.Type, m.Value); err != nil {
		return nil, fmt.Errorf("metric %q: %w", m.Name, err)
	}
	return pm, nil
}

// setProtoValue stores a scalar into the protobuf value oneof according
// to the declared data type.
//
// Widths 8-32 ride in the 32-bit int slot (two's complement for signed
// types); UInt32 and the 64-bit widths ride in the long slot so no
// value is ever truncated.
func setProtoValue(pm *sproto.Payload_Metric, dt DataType, value any) error {
	switch dt {
	case Int8, Int16, Int32:
		v, ok := toInt64(value)
		if !ok {
			return fmt.Errorf("%w: %T as %s", ErrUnsupportedValue, value, dt)
		}
		pm.Value = &sproto.Payload_Metric_IntValue{IntValue: uint32(int32(v))}

	case UInt8, UInt16:
		v, ok := toUint64(value)
		if !ok {
			return fmt.Errorf("%w: %T as %s", ErrUnsupportedValue, value, dt)
		}
		pm.Value = &sproto.Payload_Metric_IntValue{IntValue: uint32(v)}

	case UInt32, UInt64:
		v, ok := toUint64(value)
		if !ok {
			return fmt.Errorf("%w: %T as %s", ErrUnsupportedValue, value, dt)
		}
		pm.Value = &sproto.Payload_Metric_LongValue{LongValue: v}

	case Int64, DateTime:
		v, ok := toInt64(value)
		if !ok {
			return fmt.Errorf("%w: %T as %s", ErrUnsupportedValue, value, dt)
		}
		pm.Value = &sproto.Payload_Metric_LongValue{LongValue: uint64(v)}

	case Float:
		v, ok := toFloat64(value)
		if !ok {
			return fmt.Errorf("%w: %T as %s", ErrUnsupportedValue, value, dt)
		}
		pm.Value = &sproto.Payload_Metric_FloatValue{FloatValue: float32(v)}

	case Double:
		v, ok := toFloat64(value)
		if !ok {
			return fmt.Errorf("%w: %T as %s", ErrUnsupportedValue, value, dt)
		}
		pm.Value = &sproto.Payload_Metric_DoubleValue{DoubleValue: v}

	case Boolean:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %T as Boolean", ErrUnsupportedValue, value)
		}
		pm.Value = &sproto.Payload_Metric_BooleanValue{BooleanValue: v}

	case String, Text:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %T as %s", ErrUnsupportedValue, value, dt)
		}
		pm.Value = &sproto.Payload_Metric_StringValue{StringValue: v}

	default:
		return fmt.Errorf("%w: no value slot for type %s", ErrUnsupportedValue, dt)
	}
	return nil
}

// fromProto converts the protobuf payload to its domain form.
func fromProto(pp *sproto.Payload) *Payload {
	p := &Payload{}

	if pp.Timestamp != nil {
		p.Timestamp = int64(*pp.Timestamp)
	}
	if pp.Seq != nil {
		seq := *pp.Seq
		p.Seq = &seq
	}
	if pp.Uuid != nil {
		p.UUID = *pp.Uuid
	}
	if len(pp.Body) > 0 {
		p.Body = pp.Body
	}

	for _, pm := range pp.Metrics {
		if pm == nil {
			continue
		}
		p.Metrics = append(p.Metrics, metricFromProto(pm))
	}

	return p
}

// metricFromProto converts one protobuf metric to its domain form,
// narrowing the wire value back to the native Go type declared by the
// data type code. 64-bit integers stay 64-bit integers.
func metricFromProto(pm *sproto.Payload_Metric) Metric {
	m := Metric{}

	if pm.Name != nil {
		m.Name = *pm.Name
	}
	if pm.Alias != nil {
		m.Alias = *pm.Alias
	}
	if pm.Datatype != nil {
		m.Type = DataType(*pm.Datatype)
	}
	if pm.Timestamp != nil {
		m.Timestamp = int64(*pm.Timestamp)
	}
	if pm.IsNull != nil && *pm.IsNull {
		m.IsNull = true
		return m
	}

	switch m.Type {
	case Int8:
		m.Value = int8(int32(pm.GetIntValue()))
	case Int16:
		m.Value = int16(int32(pm.GetIntValue()))
	case Int32:
		m.Value = int32(pm.GetIntValue())
	case UInt8:
		m.Value = uint8(pm.GetIntValue())
	case UInt16:
		m.Value = uint16(pm.GetIntValue())
	case UInt32:
		// Tolerate senders that used the 32-bit slot.
		if pm.GetLongValue() != 0 || pm.GetIntValue() == 0 {
			m.Value = uint32(pm.GetLongValue())
		} else {
			m.Value = pm.GetIntValue()
		}
	case UInt64:
		m.Value = pm.GetLongValue()
	case Int64, DateTime:
		m.Value = int64(pm.GetLongValue())
	case Float:
		m.Value = pm.GetFloatValue()
	case Double:
		m.Value = pm.GetDoubleValue()
	case Boolean:
		m.Value = pm.GetBooleanValue()
	case String, Text:
		m.Value = pm.GetStringValue()
	default:
		// No declared type: take whichever slot is populated.
		m.Value = rawProtoValue(pm)
	}

	return m
}

// rawProtoValue extracts whichever value slot is set, used when the
// sender omitted the data type code.
func rawProtoValue(pm *sproto.Payload_Metric) any {
	switch v := pm.Value.(type) {
	case *sproto.Payload_Metric_IntValue:
		return v.IntValue
	case *sproto.Payload_Metric_LongValue:
		return v.LongValue
	case *sproto.Payload_Metric_FloatValue:
		return v.FloatValue
	case *sproto.Payload_Metric_DoubleValue:
		return v.DoubleValue
	case *sproto.Payload_Metric_BooleanValue:
		return v.BooleanValue
	case *sproto.Payload_Metric_StringValue:
		return v.StringValue
	case *sproto.Payload_Metric_BytesValue:
		return v.BytesValue
	default:
		return nil
	}
}

// toInt64 widens any signed or unsigned integer scalar to int64.
func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// toUint64 widens any non-negative integer scalar to uint64.
func toUint64(value any) (uint64, bool) {
	switch v := value.(type) {
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int8:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int16:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int32:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	case float64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// toFloat64 widens any numeric scalar to float64.
func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
