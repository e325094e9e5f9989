// Package console implements a terminal messaging gateway for local simulation.
package console

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/fluxo/internal/presentation/tui"
	"github.com/aretw0/fluxo/pkg/ports"
	"github.com/muesli/termenv"
)

// Choice is an option the user can pick by number.
type Choice struct {
	Number int
	ID     string
	Title  string
}

// Gateway prints every outbound message to a terminal and remembers the last
// set of options so numeric answers can be mapped back to interactive ids.
type Gateway struct {
	mu      sync.Mutex
	out     *termenv.Output
	render  tui.RenderFunc
	choices []Choice
	seq     int
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithRenderer renders message bodies as markdown.
func WithRenderer(r tui.RenderFunc) Option {
	return func(g *Gateway) {
		g.render = r
	}
}

// WithProfile forces a color profile, e.g. termenv.Ascii for plain output.
func WithProfile(p termenv.Profile) Option {
	return func(g *Gateway) {
		g.out = termenv.NewOutput(g.out.Writer(), termenv.WithProfile(p))
	}
}

// NewGateway creates a gateway writing to w.
func NewGateway(w io.Writer, opts ...Option) *Gateway {
	g := &Gateway{
		out:    termenv.NewOutput(w),
		render: tui.Plain,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) SendText(ctx context.Context, tenantID, contact, text string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.choices = nil
	return g.print(text, nil, "")
}

func (g *Gateway) SendButtons(ctx context.Context, tenantID, contact, body string, buttons []ports.ButtonOption) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.choices = g.choices[:0]
	for i, b := range buttons {
		g.choices = append(g.choices, Choice{Number: i + 1, ID: b.ID, Title: b.Title})
	}
	return g.print(body, g.choices, "")
}

func (g *Gateway) SendList(ctx context.Context, tenantID, contact, body, buttonText string, sections []ports.ListSectionOption) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.choices = g.choices[:0]
	n := 0
	for _, s := range sections {
		for _, r := range s.Rows {
			n++
			title := r.Title
			if r.Description != "" {
				title += " - " + r.Description
			}
			g.choices = append(g.choices, Choice{Number: n, ID: r.ID, Title: title})
		}
	}
	return g.print(body, g.choices, buttonText)
}

// print must be called with the mutex held.
func (g *Gateway) print(body string, choices []Choice, heading string) (string, error) {
	g.seq++
	rendered, err := g.render(body)
	if err != nil {
		rendered = body
	}

	var sb strings.Builder
	sb.WriteString(g.out.String("bot ›").Bold().Foreground(g.out.Color("#34d399")).String())
	sb.WriteString(" ")
	sb.WriteString(strings.TrimSpace(rendered))
	sb.WriteString("\n")
	if heading != "" && len(choices) > 0 {
		sb.WriteString("  " + g.out.String(heading).Italic().String() + "\n")
	}
	for _, c := range choices {
		num := g.out.String(fmt.Sprintf("[%d]", c.Number)).Foreground(g.out.Color("#60a5fa")).String()
		fmt.Fprintf(&sb, "  %s %s\n", num, c.Title)
	}
	if _, err := io.WriteString(g.out, sb.String()); err != nil {
		return "", err
	}
	return "console-" + strconv.Itoa(g.seq), nil
}

// Choices returns the options of the last interactive message.
func (g *Gateway) Choices() []Choice {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Choice(nil), g.choices...)
}

// Resolve maps a typed answer to the reply the engine expects: a number
// picks the matching option, anything else is free text.
func (g *Gateway) Resolve(input string) (text, interactiveID string) {
	input = strings.TrimSpace(input)
	n, err := strconv.Atoi(input)
	if err != nil {
		return input, ""
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.choices {
		if c.Number == n {
			return c.Title, c.ID
		}
	}
	return input, ""
}
