package model

import "reflect"

// Match reports whether e holds exactly the given value for every filter key.
// An empty filter set matches everything. Keys the entity does not know
// never match.
func Match(e Entity, filters Filters) bool {
	for k, want := range filters {
		got, ok := e.Get(k)
		if !ok || !Equal(got, want) {
			return false
		}
	}
	return true
}

// Equal compares two attribute values. Numbers compare by value across
// integer and float types, since decoded JSON yields float64 and YAML yields int.
func Equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	if ba, ok := a.([]byte); ok {
		a = string(ba)
	}
	if bb, ok := b.([]byte); ok {
		b = string(bb)
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
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
