package runtime_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/aretw0/fluxo/internal/runtime"
	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestFormatContext_Summary(t *testing.T) {
	exec := &domain.FlowExecution{
		Variables: map[string]any{"plan": "vip", "age": 30},
		History: []domain.FlowStep{
			{BlockID: "ask", BlockType: domain.KindInteractiveButtons, InteractiveResponseID: "yes"},
			{BlockID: "msg", BlockType: domain.KindMessage},
		},
	}
	out := runtime.FormatContext(exec, domain.ContextSummary)
	assert.Equal(t, "Flow context:\nVariables:\nage: 30\nplan: vip\nLast response: yes", out)
}

func TestFormatContext_Full(t *testing.T) {
	exec := &domain.FlowExecution{
		Variables: map[string]any{"plan": "vip"},
		History: []domain.FlowStep{
			{BlockType: domain.KindStart},
			{BlockType: domain.KindInteractiveList, UserResponse: "Billing", InteractiveResponseID: "billing"},
		},
	}
	out := runtime.FormatContext(exec, domain.ContextFull)
	assert.Equal(t, "Flow history:\n1. [start] \n2. [interactive_list] Billing\nVariables:\nplan: vip\n", out)
}

func TestFormatContext_Truncation(t *testing.T) {
	exec := &domain.FlowExecution{Variables: map[string]any{}}
	for i := 0; i < 200; i++ {
		exec.History = append(exec.History, domain.FlowStep{
			BlockType:    domain.KindInteractiveButtons,
			UserResponse: strings.Repeat("ç", 20),
		})
	}

	full := runtime.FormatContext(exec, domain.ContextFull)
	assert.True(t, strings.HasSuffix(full, runtime.TruncationMarker))
	body := strings.TrimSuffix(full, runtime.TruncationMarker)
	assert.Equal(t, runtime.FullContextLimit, utf8.RuneCountInString(body))

	exec.Variables["notes"] = strings.Repeat("x", 5000)
	summary := runtime.FormatContext(exec, domain.ContextSummary)
	assert.True(t, strings.HasSuffix(summary, runtime.TruncationMarker))
	assert.Equal(t, runtime.SummaryContextLimit, utf8.RuneCountInString(strings.TrimSuffix(summary, runtime.TruncationMarker)))

	short := runtime.FormatContext(&domain.FlowExecution{Variables: map[string]any{"a": 1}}, domain.ContextSummary)
	assert.False(t, strings.HasSuffix(short, runtime.TruncationMarker))
}
