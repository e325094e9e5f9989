package runtime

import (
	"strings"

	"github.com/aretw0/fluxo/pkg/domain"
)

// Route is the resolved exit of an interactive block.
type Route struct {
	Target string
	// Source is "inline" for a nextBlockId stored on the option, "edge" for a graph edge.
	Source      string
	OptionID    string
	OptionTitle string
}

type option struct {
	id, title, next string
}

func optionsOf(block *domain.Block) []option {
	var opts []option
	switch d := block.Data.(type) {
	case *domain.ButtonsData:
		for _, b := range d.Buttons {
			opts = append(opts, option{id: b.ID, title: b.Title, next: b.NextBlockID})
		}
	case *domain.ListData:
		for _, row := range d.Rows() {
			opts = append(opts, option{id: row.ID, title: row.Title, next: row.NextBlockID})
		}
	}
	return opts
}

// ResolveNext finds the block a reply leads to.
// The inline nextBlockId of the selected option wins over an edge whose
// sourceHandle is the option id. Free text without an interactive id is
// matched against option titles, ignoring case.
func ResolveNext(block *domain.Block, userText, interactiveID string, edges []domain.Edge) (Route, bool) {
	opts := optionsOf(block)

	var selected *option
	if interactiveID != "" {
		for i := range opts {
			if opts[i].id == interactiveID {
				selected = &opts[i]
				break
			}
		}
	} else if text := strings.TrimSpace(userText); text != "" {
		for i := range opts {
			if strings.EqualFold(strings.TrimSpace(opts[i].title), text) {
				selected = &opts[i]
				interactiveID = opts[i].id
				break
			}
		}
	}
	if interactiveID == "" {
		return Route{}, false
	}

	route := Route{OptionID: interactiveID}
	if selected != nil {
		route.OptionTitle = selected.title
		if selected.next != "" {
			route.Target = selected.next
			route.Source = "inline"
			return route, true
		}
	}

	for _, edge := range edges {
		if edge.Source == block.ID && edge.SourceHandle == interactiveID {
			route.Target = edge.Target
			route.Source = "edge"
			return route, true
		}
	}
	return Route{}, false
}
