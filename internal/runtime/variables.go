package runtime

import (
	"math"

	"github.com/spf13/cast"
)

// increment adds delta (default 1) to a numeric variable. Missing or
// non-numeric current values count as zero.
func increment(current, delta any) any {
	base, err := cast.ToFloat64E(current)
	if err != nil {
		base = 0
	}
	step := 1.0
	if delta != nil {
		if v, err := cast.ToFloat64E(delta); err == nil {
			step = v
		}
	}
	sum := base + step
	if sum == math.Trunc(sum) && math.Abs(sum) < 1<<53 {
		return int64(sum)
	}
	return sum
}

// appendValue appends to a list variable, promoting scalars to a list.
func appendValue(current, value any) any {
	var list []any
	switch v := current.(type) {
	case nil:
	case []any:
		list = append(list, v...)
	case []string:
		for _, s := range v {
			list = append(list, s)
		}
	default:
		list = append(list, v)
	}
	return append(list, value)
}
