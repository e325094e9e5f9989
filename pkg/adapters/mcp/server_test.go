package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/fluxo"
	"github.com/aretw0/fluxo/pkg/adapters/memory"
	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/aretw0/fluxo/pkg/dsl"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	b := dsl.New("survey")
	b.Start("start").Go("ask")
	b.Buttons("ask", "Did we help?",
		domain.Button{ID: "yes", Title: "Yes"},
		domain.Button{ID: "no", Title: "No"},
	).On("yes", "thanks").On("no", "thanks").SaveAs("helped")
	b.End("thanks", "Thanks!")

	flows, err := memory.NewFlowRepository(b.MustBuild())
	require.NoError(t, err)
	engine, err := fluxo.New(fluxo.Dependencies{
		Flows:      flows,
		Executions: memory.NewExecutionRepository(),
		Contacts:   memory.NewContactStore(),
		Gateway:    memory.NewGateway(),
	})
	require.NoError(t, err)
	return NewServer(engine, nil)
}

func TestServer_Conversation(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	started, err := s.handleStartFlow(ctx, mcp.CallToolRequest{}, startArgs{TenantID: "acme", FlowID: "survey", Contact: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, "ask", started.Execution.CurrentBlockID)

	exec, err := s.handleGetExecution(ctx, mcp.CallToolRequest{}, contactArgs{TenantID: "acme", Contact: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, started.Execution.ID, exec.ID)

	res, err := s.handleGraph(ctx, graphArgs{TenantID: "acme", FlowID: "survey", Contact: "c-1"})
	require.NoError(t, err)
	assert.Contains(t, res, "class ask current;")

	done, err := s.handleContinueFlow(ctx, mcp.CallToolRequest{}, replyArgs{TenantID: "acme", Contact: "c-1", InteractiveID: "no"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Execution.Status)
	assert.Equal(t, "No", done.Execution.Variables["helped"])

	_, err = s.handleGetExecution(ctx, mcp.CallToolRequest{}, contactArgs{TenantID: "acme", Contact: "c-1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServer_Rejections(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleStartFlow(ctx, mcp.CallToolRequest{}, startArgs{TenantID: "acme", FlowID: "survey", Contact: "has space"})
	assert.ErrorContains(t, err, "contact rejected")

	_, err = s.handleContinueFlow(ctx, mcp.CallToolRequest{}, replyArgs{TenantID: "acme", Contact: "c-1"})
	assert.ErrorContains(t, err, "is required")

	_, err = s.handleContinueFlow(ctx, mcp.CallToolRequest{}, replyArgs{TenantID: "acme", Contact: "c\t1", Text: "hi"})
	assert.ErrorContains(t, err, "contact rejected")

	_, err = s.handleGetExecution(ctx, mcp.CallToolRequest{}, contactArgs{TenantID: "acme", Contact: "has space"})
	assert.ErrorContains(t, err, "contact rejected")

	_, err = s.handleContinueFlow(ctx, mcp.CallToolRequest{}, replyArgs{TenantID: "acme", Contact: "c-1", Text: "hi"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	result, err := s.handleGetFlowGraph(ctx, mcp.CallToolRequest{}, graphArgs{TenantID: "acme", FlowID: "nope"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// handleGraph returns the text content of a get_flow_graph call.
func (s *Server) handleGraph(ctx context.Context, args graphArgs) (string, error) {
	result, err := s.handleGetFlowGraph(ctx, mcp.CallToolRequest{}, args)
	if err != nil {
		return "", err
	}
	text, _ := result.Content[0].(mcp.TextContent)
	return text.Text, nil
}
