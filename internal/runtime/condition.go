package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/spf13/cast"
)

// Evaluate returns the target of the first condition that holds against vars,
// falling back to defaultNext. ok is false when nothing matched and there is
// no default.
func Evaluate(conditions []domain.Condition, defaultNext string, vars map[string]any) (next string, ok bool) {
	next, _, ok = evaluate(conditions, defaultNext, vars)
	return next, ok
}

func evaluate(conditions []domain.Condition, defaultNext string, vars map[string]any) (string, string, bool) {
	for _, c := range conditions {
		if Match(c, vars[c.Variable]) {
			return c.NextBlockID, "condition", true
		}
	}
	if defaultNext != "" {
		return defaultNext, "default", true
	}
	return "", "", false
}

// Match tests one condition against the actual variable value.
func Match(c domain.Condition, actual any) bool {
	switch c.Operator {
	case domain.OpEqual:
		return looseEqual(actual, c.Value)
	case domain.OpNotEqual:
		return !looseEqual(actual, c.Value)
	case domain.OpGreater, domain.OpLess:
		a, okA := toNumber(actual)
		b, okB := toNumber(c.Value)
		if !okA || !okB {
			return false
		}
		if c.Operator == domain.OpGreater {
			return a > b
		}
		return a < b
	case domain.OpContains:
		return contains(actual, c.Value)
	case domain.OpNotContains:
		return !contains(actual, c.Value)
	}
	return false
}

// looseEqual compares numerically when both sides are numbers, as booleans
// when either side is a bool, and as strings otherwise.
// nil, an unset variable included, only equals nil.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := toNumber(a); ok {
		if y, ok := toNumber(b); ok {
			return x == y
		}
	}
	_, aBool := a.(bool)
	_, bBool := b.(bool)
	if aBool || bBool {
		x, errA := cast.ToBoolE(a)
		y, errB := cast.ToBoolE(b)
		if errA == nil && errB == nil {
			return x == y
		}
	}
	return toString(a) == toString(b)
}

// contains is a substring test on the string forms of both sides.
// Lists read as their items joined by commas.
func contains(haystack, needle any) bool {
	return strings.Contains(toString(haystack), toString(needle))
}

func toNumber(v any) (float64, bool) {
	switch s := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		if strings.TrimSpace(s) == "" {
			return 0, false
		}
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

func toString(v any) string {
	switch list := v.(type) {
	case nil:
		return ""
	case []any, []string:
		return strings.Join(cast.ToStringSlice(list), ",")
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
