package runtime_test

import (
	"testing"

	"github.com/aretw0/fluxo/internal/runtime"
	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listBlock(inline string) *domain.Block {
	return &domain.Block{
		ID:   "menu",
		Kind: domain.KindInteractiveList,
		Data: &domain.ListData{
			Body:       "Pick",
			ButtonText: "Open",
			Sections: []domain.ListSection{{Rows: []domain.ListRow{
				{ID: "r1", Title: "First", NextBlockID: inline},
				{ID: "r2", Title: "Second"},
			}}},
		},
	}
}

func TestResolveNext_InlineWinsOverEdge(t *testing.T) {
	edges := []domain.Edge{
		{Source: "other", Target: "Z", SourceHandle: "r1"},
		{Source: "menu", Target: "Y", SourceHandle: "r1"},
	}

	route, ok := runtime.ResolveNext(listBlock("X"), "", "r1", edges)
	require.True(t, ok)
	assert.Equal(t, "X", route.Target)
	assert.Equal(t, "inline", route.Source)
	assert.Equal(t, "First", route.OptionTitle)

	route, ok = runtime.ResolveNext(listBlock(""), "", "r1", edges)
	require.True(t, ok)
	assert.Equal(t, "Y", route.Target, "without inline data the edge decides")
	assert.Equal(t, "edge", route.Source)
}

func TestResolveNext_Misses(t *testing.T) {
	edges := []domain.Edge{{Source: "menu", Target: "Y", SourceHandle: "r1"}}

	_, ok := runtime.ResolveNext(listBlock(""), "", "r2", edges)
	assert.False(t, ok, "option without inline target or edge")

	_, ok = runtime.ResolveNext(listBlock(""), "nonsense", "", edges)
	assert.False(t, ok)

	_, ok = runtime.ResolveNext(listBlock(""), "", "", edges)
	assert.False(t, ok)
}

func TestResolveNext_FreeText(t *testing.T) {
	edges := []domain.Edge{{Source: "menu", Target: "Y", SourceHandle: "r1"}}

	route, ok := runtime.ResolveNext(listBlock(""), " first ", "", edges)
	require.True(t, ok)
	assert.Equal(t, "Y", route.Target)
	assert.Equal(t, "r1", route.OptionID)
}

func TestResolveNext_HandleWithoutOption(t *testing.T) {
	block := &domain.Block{ID: "ask", Kind: domain.KindInteractiveButtons, Data: &domain.ButtonsData{
		Body: "?", Buttons: []domain.Button{{ID: "ok", Title: "OK"}},
	}}
	edges := []domain.Edge{{Source: "ask", Target: "fallback", SourceHandle: "timeout"}}

	route, ok := runtime.ResolveNext(block, "", "timeout", edges)
	require.True(t, ok)
	assert.Equal(t, "fallback", route.Target)
	assert.Empty(t, route.OptionTitle)
}
