package loam_test

import (
	"context"
	"sort"
	"testing"

	"github.com/aretw0/fluxo/internal/testutils"
	"github.com/aretw0/fluxo/pkg/adapters/loam"
	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sharedFlow = `{
  "id": "welcome",
  "name": "Welcome",
  "blocks": [
    {"id": "start", "type": "start", "data": {}},
    {"id": "hello", "type": "message", "data": {"text": "Hello {{name}}"}},
    {"id": "end", "type": "end", "data": {"message": "Bye"}}
  ],
  "edges": [
    {"id": "e1", "source": "start", "target": "hello"},
    {"id": "e2", "source": "hello", "target": "end"}
  ]
}`

const tenantFlow = `{
  "name": "Acme welcome",
  "blocks": [
    {"id": "start", "type": "start", "data": {}},
    {"id": "menu", "type": "interactive_buttons", "data": {
      "body": "Sales or support?",
      "buttons": [
        {"id": "sales", "title": "Sales", "nextBlockId": "bye"},
        {"id": "support", "title": "Support", "nextBlockId": "bye"}
      ]
    }},
    {"id": "bye", "type": "end", "data": {}}
  ],
  "edges": [{"source": "start", "target": "menu"}]
}`

const inactiveFlow = `{
  "id": "legacy",
  "active": false,
  "blocks": [{"id": "start", "type": "start", "data": {}}],
  "edges": []
}`

func TestFlowRepository_GetFlow(t *testing.T) {
	dir := testutils.WriteFlows(t, map[string]string{
		"welcome.json":      sharedFlow,
		"acme/welcome.json": tenantFlow,
		"legacy.json":       inactiveFlow,
	})
	repo, err := loam.Open(dir)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("SharedFlow", func(t *testing.T) {
		flow, err := repo.GetFlow(ctx, "globex", "welcome")
		require.NoError(t, err)
		assert.Equal(t, "Welcome", flow.Name)
		assert.Equal(t, "start", flow.StartBlockID)
		assert.True(t, flow.Active)
		hello, ok := flow.Block("hello")
		require.True(t, ok)
		assert.Equal(t, "Hello {{name}}", hello.Data.(*domain.MessageData).Text)
	})

	t.Run("TenantFlowWins", func(t *testing.T) {
		flow, err := repo.GetFlow(ctx, "acme", "welcome")
		require.NoError(t, err)
		assert.Equal(t, "Acme welcome", flow.Name)
		assert.Equal(t, "welcome", flow.ID)
		assert.Equal(t, "acme", flow.TenantID)
		menu, ok := flow.Block("menu")
		require.True(t, ok)
		assert.Len(t, menu.Data.(*domain.ButtonsData).Buttons, 2)
	})

	t.Run("Inactive", func(t *testing.T) {
		_, err := repo.GetFlow(ctx, "acme", "legacy")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := repo.GetFlow(ctx, "acme", "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestFlowRepository_List(t *testing.T) {
	dir := testutils.WriteFlows(t, map[string]string{
		"welcome.json":      sharedFlow,
		"acme/welcome.json": tenantFlow,
	})
	repo, err := loam.Open(dir)
	require.NoError(t, err)

	flows, err := repo.List(context.Background())
	require.NoError(t, err)

	var keys []string
	for _, f := range flows {
		keys = append(keys, f.TenantID+"/"+f.ID)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"/welcome", "acme/welcome"}, keys)
}

func TestFlowRepository_BrokenDocument(t *testing.T) {
	dir := testutils.WriteFlows(t, map[string]string{
		"broken.json": `{"id": "broken", "blocks": [{"id": "x", "type": "teleport", "data": {}}]}`,
	})
	repo, err := loam.Open(dir)
	require.NoError(t, err)

	_, err = repo.GetFlow(context.Background(), "", "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
