package node

import (
	"time"

	"github.com/nerrad567/sparkplug-core/payload"
)

// shouldPublish is the report-by-exception gate.
//
// A metric qualifies iff any of:
//  1. It has never been published, or its last published value was null
//  2. It is non-numeric or has no deadband, and the current value
//     differs from the last published value
//  3. It is numeric with a deadband, and the absolute change exceeds
//     the deadband value
//  4. It is numeric with a deadband max time, and that much time has
//     passed since the last publish
//
// A metric whose value matches its last publish and has neither
// crossed the deadband nor exceeded the max time is suppressed.
func shouldPublish(m *Metric, current any, now time.Time) bool {
	// Rule 1: nothing on the wire yet.
	if m.last == nil || m.last.value == nil {
		return true
	}

	// Rules 3 and 4 apply only to numeric metrics with a deadband
	// configured; everything else change-detects by inequality.
	if !m.Type.IsNumeric() || m.Deadband == nil {
		return !valuesEqual(m.Type, current, m.last.value)
	}

	cur, okCur := numericValue(current)
	last, okLast := numericValue(m.last.value)
	if !okCur || !okLast {
		// A numeric metric producing a non-numeric value is already
		// exceptional; let it through rather than hide it.
		return true
	}

	delta := cur - last
	if delta < 0 {
		delta = -delta
	}
	if delta > m.Deadband.Value {
		return true
	}

	if m.Deadband.MaxTime > 0 && now.Sub(m.last.timestamp) > m.Deadband.MaxTime {
		return true
	}

	return false
}

// valuesEqual compares two scalars of the same declared type. Numeric
// values compare by magnitude so an int32(1) matches an int64(1)
// produced by a widening round trip.
func valuesEqual(dt payload.DataType, a, b any) bool {
	if dt.IsNumeric() {
		fa, okA := numericValue(a)
		fb, okB := numericValue(b)
		if okA && okB {
			return fa == fb
		}
	}
	return a == b
}

// numericValue widens any numeric scalar to float64 for deadband math.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
