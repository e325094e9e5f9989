package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/fluxo/internal/compiler"
	"github.com/aretw0/fluxo/pkg/domain"
)

// Severity of a lint finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding of ValidateFlow.
type Issue struct {
	Severity Severity
	BlockID  string
	Message  string
}

func (i Issue) String() string {
	if i.BlockID == "" {
		return fmt.Sprintf("[%s] %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.BlockID, i.Message)
}

// ValidateFlow lints a flow at design time. Structural errors and malformed
// block payloads are errors; unreachable blocks, ignored exits and options
// without a route are warnings.
func ValidateFlow(flow *domain.FlowDefinition) []Issue {
	var issues []Issue
	if err := compiler.Check(flow); err != nil {
		issues = append(issues, Issue{Severity: SeverityError, Message: err.Error()})
	}

	for i := range flow.Blocks {
		b := &flow.Blocks[i]
		if err := b.Validate(flow.ID); err != nil {
			var cfg *domain.BlockConfigurationError
			msg := err.Error()
			if errors.As(err, &cfg) {
				msg = cfg.Reason
			}
			issues = append(issues, Issue{Severity: SeverityError, BlockID: b.ID, Message: msg})
		}

		out := flow.OutgoingEdges(b.ID)
		switch {
		case b.Kind.Terminal() && len(out) > 0:
			issues = append(issues, Issue{Severity: SeverityWarning, BlockID: b.ID, Message: fmt.Sprintf("%s block has %d outgoing edges that are never followed", b.Kind, len(out))})
		case b.Kind.AutoAdvances() && len(out) > 1:
			issues = append(issues, Issue{Severity: SeverityWarning, BlockID: b.ID, Message: fmt.Sprintf("only the first of %d outgoing edges is followed", len(out))})
		case b.Kind.AwaitsResponse():
			for _, id := range unroutedOptions(b, out) {
				issues = append(issues, Issue{Severity: SeverityWarning, BlockID: b.ID, Message: fmt.Sprintf("option %q has no inline target and no edge", id)})
			}
		}
	}

	for _, id := range unreachable(flow) {
		issues = append(issues, Issue{Severity: SeverityWarning, BlockID: id, Message: "block is unreachable from the start block"})
	}
	return issues
}

// Err folds the error-severity issues into a single error, or nil.
func Err(issues []Issue) error {
	var lines []string
	for _, i := range issues {
		if i.Severity == SeverityError {
			lines = append(lines, i.String())
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(lines), strings.Join(lines, "\n- "))
}

func unroutedOptions(b *domain.Block, out []domain.Edge) []string {
	handles := make(map[string]bool, len(out))
	for _, e := range out {
		handles[e.SourceHandle] = true
	}
	var missing []string
	check := func(id, next string) {
		if next == "" && !handles[id] {
			missing = append(missing, id)
		}
	}
	switch d := b.Data.(type) {
	case *domain.ButtonsData:
		for _, btn := range d.Buttons {
			check(btn.ID, btn.NextBlockID)
		}
	case *domain.ListData:
		for _, row := range d.Rows() {
			check(row.ID, row.NextBlockID)
		}
	}
	return missing
}

// unreachable walks edges and inline references from the start block.
func unreachable(flow *domain.FlowDefinition) []string {
	if _, ok := flow.Block(flow.StartBlockID); !ok {
		return nil
	}
	visited := map[string]bool{}
	queue := []string{flow.StartBlockID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		block, ok := flow.Block(current)
		if !ok {
			continue
		}
		for _, e := range flow.OutgoingEdges(current) {
			queue = append(queue, e.Target)
		}
		queue = append(queue, block.References()...)
	}

	var out []string
	for _, b := range flow.Blocks {
		if !visited[b.ID] {
			out = append(out, b.ID)
		}
	}
	return out
}
