package runtime_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/fluxo/internal/runtime"
	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate_FirstMatchWins(t *testing.T) {
	conditions := []domain.Condition{
		{Variable: "plan", Operator: domain.OpEqual, Value: "vip", NextBlockID: "A"},
		{Variable: "plan", Operator: domain.OpEqual, Value: "vip", NextBlockID: "B"},
	}
	next, ok := runtime.Evaluate(conditions, "", map[string]any{"plan": "vip"})
	assert.True(t, ok)
	assert.Equal(t, "A", next)
}

func TestEvaluate_DefaultFallback(t *testing.T) {
	conditions := []domain.Condition{
		{Variable: "plan", Operator: domain.OpEqual, Value: "vip", NextBlockID: "A"},
		{Variable: "age", Operator: domain.OpGreater, Value: 18, NextBlockID: "B"},
	}
	vars := map[string]any{"plan": "basic", "age": 10}

	next, ok := runtime.Evaluate(conditions, "C", vars)
	assert.True(t, ok)
	assert.Equal(t, "C", next)

	next, ok = runtime.Evaluate(conditions, "", vars)
	assert.False(t, ok)
	assert.Empty(t, next)
}

func TestMatch_Operators(t *testing.T) {
	tests := []struct {
		name   string
		op     domain.Operator
		actual any
		value  any
		want   bool
	}{
		{"equal strings", domain.OpEqual, "vip", "vip", true},
		{"equal is case sensitive", domain.OpEqual, "VIP", "vip", false},
		{"loose numeric equality", domain.OpEqual, "42", 42, true},
		{"float and int", domain.OpEqual, 3.0, 3, true},
		{"json number", domain.OpEqual, json.Number("7"), "7", true},
		{"bool and string", domain.OpEqual, true, "true", true},
		{"bool and number", domain.OpEqual, false, 0, true},
		{"unset differs from empty", domain.OpEqual, nil, "", false},
		{"unset is not equal to empty", domain.OpNotEqual, nil, "", true},
		{"nil equals nil", domain.OpEqual, nil, nil, true},
		{"nil differs from value", domain.OpEqual, nil, "x", false},
		{"not equal", domain.OpNotEqual, "a", "b", true},
		{"not equal same", domain.OpNotEqual, 1, "1", false},
		{"greater numeric strings", domain.OpGreater, "10", "9", true},
		{"greater is numeric not lexical", domain.OpGreater, "10", 9, true},
		{"greater non numeric", domain.OpGreater, "abc", 1, false},
		{"greater missing", domain.OpGreater, nil, 1, false},
		{"less", domain.OpLess, 2.5, 3, true},
		{"less equal values", domain.OpLess, 3, 3, false},
		{"contains substring", domain.OpContains, "hello world", "world", true},
		{"contains number", domain.OpContains, 12345, 234, true},
		{"contains list member", domain.OpContains, []any{"a", "b"}, "b", true},
		{"contains list substring", domain.OpContains, []any{"apple", "banana"}, "app", true},
		{"contains across list items", domain.OpContains, []string{"a", "b"}, "a,b", true},
		{"contains missing", domain.OpContains, nil, "x", false},
		{"not contains", domain.OpNotContains, "hello", "bye", true},
		{"not contains present", domain.OpNotContains, "hello", "ell", false},
		{"unknown operator", domain.Operator("~="), "a", "a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := domain.Condition{Variable: "x", Operator: tt.op, Value: tt.value}
			assert.Equal(t, tt.want, runtime.Match(c, tt.actual))
		})
	}
}
