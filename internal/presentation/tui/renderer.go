package tui

import (
	"github.com/charmbracelet/glamour"
)

// RenderFunc turns markdown into terminal output.
type RenderFunc func(string) (string, error)

// NewRenderer returns a glamour renderer that adapts to the terminal
// background. A width of 0 keeps glamour's default word wrap.
func NewRenderer(width int) RenderFunc {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return Plain
	}
	return r.Render
}

// Plain returns markdown untouched. Used when output is not a terminal.
func Plain(markdown string) (string, error) {
	return markdown, nil
}
