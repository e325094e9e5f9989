package dsl

import (
	"testing"

	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	b := New("welcome").Tenant("acme").Name("Welcome")

	b.Start("start").Go("greet")
	b.Message("greet", "Hi {{name}}!").Go("menu")
	b.Buttons("menu", "Need help?",
		domain.Button{ID: "yes", Title: "Yes"},
		domain.Button{ID: "no", Title: "No", NextBlockID: "bye"},
	).On("yes", "human").SaveAs("wants_help").Footer("Reply anytime")
	b.HumanHandoff("human", domain.HumanHandoffData{NotifyAgent: true})
	b.End("bye", "Bye")

	flow, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "welcome", flow.ID)
	assert.Equal(t, "acme", flow.TenantID)
	assert.True(t, flow.Active)
	assert.Equal(t, "start", flow.StartBlockID)
	assert.Len(t, flow.Blocks, 5)
	require.Len(t, flow.Edges, 3)
	assert.Equal(t, domain.Edge{ID: "e3", Source: "menu", Target: "human", SourceHandle: "yes"}, flow.Edges[2])

	menu, ok := flow.Block("menu")
	require.True(t, ok)
	data := menu.Data.(*domain.ButtonsData)
	assert.Equal(t, "wants_help", data.SaveAs)
	assert.Equal(t, "Reply anytime", data.Footer)
}

func TestBuilder_BrokenReference(t *testing.T) {
	b := New("broken")
	b.Start("start").Go("ghost")

	_, err := b.Build()
	assert.ErrorContains(t, err, `target block "ghost" not found`)
	assert.Panics(t, func() { b.MustBuild() })
}

func TestBuilder_StartAtAndInactive(t *testing.T) {
	b := New("draft").Inactive().StartAt("ask")
	b.Start("start").Go("ask")
	b.Message("ask", "hello")

	flow, err := b.Build()
	require.NoError(t, err)
	assert.False(t, flow.Active)
	assert.Equal(t, "ask", flow.StartBlockID)
}
