package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/fluxo/pkg/domain"
)

// GraphOverlay contains execution state to visualize on the graph.
type GraphOverlay struct {
	VisitedBlocks []string
	CurrentBlock  string
}

// OverlayFor builds an overlay from an execution's history and cursor.
// Terminal executions have no current block.
func OverlayFor(exec *domain.FlowExecution) *GraphOverlay {
	if exec == nil {
		return nil
	}
	o := &GraphOverlay{}
	for _, s := range exec.History {
		o.VisitedBlocks = append(o.VisitedBlocks, s.BlockID)
	}
	if !exec.Status.Terminal() {
		o.CurrentBlock = exec.CurrentBlockID
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart for a flow.
// Shapes follow the block kind:
//   - start: ((Circle))
//   - interactive_buttons / interactive_list: [/Parallelogram/]
//   - condition: {Rhombus}
//   - webhook: [[Subroutine]]
//   - delay: ([Stadium])
//   - end and handoffs: [(Cylinder)]
//   - anything else: [Rectangle]
//
// Inline targets are drawn with solid arrows labelled by option title or
// condition; edges use dotted arrows labelled by their source handle.
func GenerateMermaid(flow *domain.FlowDefinition, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, block := range flow.Blocks {
		safeID := sanitizeMermaidID(block.ID)
		opener, closer := shape(block.Kind)
		fmt.Fprintf(&sb, "    %s%s\"%s<br/><i>%s</i>\"%s\n", safeID, opener, escapeLabel(block.ID), block.Kind, closer)

		for _, link := range inlineLinks(&block) {
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escapeLabel(link.label), sanitizeMermaidID(link.target))
		}
	}

	for _, e := range flow.Edges {
		arrow := "-.->"
		if e.SourceHandle != "" {
			arrow = fmt.Sprintf("-. \"%s\" .->", escapeLabel(e.SourceHandle))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.Source), arrow, sanitizeMermaidID(e.Target))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on both light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedBlocks {
			safeID := sanitizeMermaidID(id)
			if safeID == "" || seen[safeID] {
				continue
			}
			if _, ok := flow.Block(id); !ok {
				continue
			}
			seen[safeID] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}
		if overlay.CurrentBlock != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentBlock))
		}
	}

	return sb.String()
}

type link struct {
	label  string
	target string
}

func inlineLinks(b *domain.Block) []link {
	var out []link
	switch d := b.Data.(type) {
	case *domain.ButtonsData:
		for _, btn := range d.Buttons {
			if btn.NextBlockID != "" {
				out = append(out, link{btn.Title, btn.NextBlockID})
			}
		}
	case *domain.ListData:
		for _, row := range d.Rows() {
			if row.NextBlockID != "" {
				out = append(out, link{row.Title, row.NextBlockID})
			}
		}
	case *domain.ConditionData:
		for _, c := range d.Conditions {
			if c.NextBlockID != "" {
				out = append(out, link{fmt.Sprintf("%s %s %v", c.Variable, c.Operator, c.Value), c.NextBlockID})
			}
		}
		if d.DefaultNextBlockID != "" {
			out = append(out, link{"default", d.DefaultNextBlockID})
		}
	}
	return out
}

func shape(kind domain.BlockKind) (string, string) {
	switch kind {
	case domain.KindStart:
		return "((", "))"
	case domain.KindInteractiveButtons, domain.KindInteractiveList:
		return "[/", "/]"
	case domain.KindCondition:
		return "{", "}"
	case domain.KindWebhook:
		return "[[", "]]"
	case domain.KindDelay:
		return "([", "])"
	case domain.KindEnd, domain.KindAIHandoff, domain.KindHumanHandoff:
		return "[(", ")]"
	}
	return "[", "]"
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
