package runtime

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/fluxo/pkg/domain"
)

// Context bounds, in characters, for the AI handoff prompt budget.
const (
	SummaryContextLimit = 1000
	FullContextLimit    = 2000
)

// TruncationMarker is appended to a context cut at its limit.
const TruncationMarker = "\n[...truncated]"

// FormatContext projects an execution into text for the receiving AI agent.
// Summary mode renders the variables and the last response; full mode renders
// the numbered history followed by the variables.
func FormatContext(exec *domain.FlowExecution, mode domain.ContextMode) string {
	if exec == nil {
		return ""
	}
	var b strings.Builder
	if mode == domain.ContextFull {
		b.WriteString("Flow history:\n")
		for i, step := range exec.History {
			fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, step.BlockType, step.Response())
		}
		b.WriteString("Variables:\n")
		writeVariables(&b, exec.Variables)
		return truncate(b.String(), FullContextLimit)
	}

	b.WriteString("Flow context:\n")
	b.WriteString("Variables:\n")
	writeVariables(&b, exec.Variables)
	fmt.Fprintf(&b, "Last response: %s", exec.LastResponse())
	return truncate(b.String(), SummaryContextLimit)
}

func writeVariables(b *strings.Builder, vars map[string]any) {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s: %s\n", k, toString(vars[k]))
	}
}

// truncate is a hard cut at limit runes.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + TruncationMarker
}
