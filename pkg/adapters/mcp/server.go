// Package mcp exposes the flow engine as Model Context Protocol tools, so an
// agent can drive a conversation as if it were the contact.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/fluxo"
	"github.com/aretw0/fluxo/internal/logging"
	"github.com/aretw0/fluxo/internal/presentation/graph"
	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/aretw0/fluxo/pkg/sanitize"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const maxIDLength = 128

// DispatchResponse is the structured result of start_flow and continue_flow.
type DispatchResponse struct {
	Execution *domain.FlowExecution `json:"execution" jsonschema_description:"The execution after the dispatch"`
	Warnings  []string              `json:"warnings,omitempty" jsonschema_description:"Non-fatal problems such as unrouted replies"`
}

// Engine is the part of *fluxo.Engine the MCP server drives.
type Engine interface {
	StartFlow(ctx context.Context, flowID, tenantID, contact string) (*fluxo.Result, error)
	ContinueFlow(ctx context.Context, tenantID, contact string, reply fluxo.Reply) (*fluxo.Result, error)
	ActiveExecution(ctx context.Context, tenantID, contact string) (*domain.FlowExecution, error)
	Flow(ctx context.Context, tenantID, flowID string) (*domain.FlowDefinition, error)
}

// Server wraps the Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("fluxo-mcp", fluxo.Version),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

type startArgs struct {
	TenantID string `json:"tenant_id"`
	FlowID   string `json:"flow_id"`
	Contact  string `json:"contact"`
}

type replyArgs struct {
	TenantID      string `json:"tenant_id"`
	Contact       string `json:"contact"`
	Text          string `json:"text"`
	InteractiveID string `json:"interactive_response_id"`
}

type contactArgs struct {
	TenantID string `json:"tenant_id"`
	Contact  string `json:"contact"`
}

type graphArgs struct {
	TenantID string `json:"tenant_id"`
	FlowID   string `json:"flow_id"`
	Contact  string `json:"contact"`
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_flow",
		mcp.WithDescription("Start a flow for a contact. Fails if the contact already has an active execution."),
		mcp.WithString("tenant_id", mcp.Required(), mcp.Description("Tenant that owns the flow")),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Flow to start")),
		mcp.WithString("contact", mcp.Required(), mcp.Description("Contact address, e.g. a phone number")),
		mcp.WithOutputSchema[DispatchResponse](),
	), mcp.NewStructuredToolHandler(s.handleStartFlow))

	s.mcpServer.AddTool(mcp.NewTool("continue_flow",
		mcp.WithDescription("Send a reply from the contact. Use interactive_response_id for a button or list row id."),
		mcp.WithString("tenant_id", mcp.Required(), mcp.Description("Tenant of the contact")),
		mcp.WithString("contact", mcp.Required(), mcp.Description("Contact address")),
		mcp.WithString("text", mcp.Description("Free text typed by the contact")),
		mcp.WithString("interactive_response_id", mcp.Description("Id of the tapped button or list row")),
		mcp.WithOutputSchema[DispatchResponse](),
	), mcp.NewStructuredToolHandler(s.handleContinueFlow))

	s.mcpServer.AddTool(mcp.NewTool("get_execution",
		mcp.WithDescription("Get the active execution of a contact."),
		mcp.WithString("tenant_id", mcp.Required(), mcp.Description("Tenant of the contact")),
		mcp.WithString("contact", mcp.Required(), mcp.Description("Contact address")),
		mcp.WithOutputSchema[domain.FlowExecution](),
	), mcp.NewStructuredToolHandler(s.handleGetExecution))

	s.mcpServer.AddTool(mcp.NewTool("get_flow_graph",
		mcp.WithDescription("Render a flow as a Mermaid diagram, optionally highlighting a contact's position."),
		mcp.WithString("tenant_id", mcp.Required(), mcp.Description("Tenant that owns the flow")),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Flow to render")),
		mcp.WithString("contact", mcp.Description("Contact whose active execution is highlighted")),
	), mcp.NewTypedToolHandler(s.handleGetFlowGraph))
}

func newDispatchResponse(res *fluxo.Result) DispatchResponse {
	resp := DispatchResponse{Execution: res.Execution}
	for _, w := range res.Warnings {
		resp.Warnings = append(resp.Warnings, w.Error())
	}
	return resp
}

func (s *Server) handleStartFlow(ctx context.Context, request mcp.CallToolRequest, args startArgs) (DispatchResponse, error) {
	contact, err := sanitize.ID(args.Contact, maxIDLength)
	if err != nil {
		return DispatchResponse{}, fmt.Errorf("contact rejected: %w", err)
	}
	res, err := s.engine.StartFlow(ctx, args.FlowID, args.TenantID, contact)
	if err != nil {
		return DispatchResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return newDispatchResponse(res), nil
}

func (s *Server) handleContinueFlow(ctx context.Context, request mcp.CallToolRequest, args replyArgs) (DispatchResponse, error) {
	if args.Text == "" && args.InteractiveID == "" {
		return DispatchResponse{}, errors.New("text or interactive_response_id is required")
	}
	contact, err := sanitize.ID(args.Contact, maxIDLength)
	if err != nil {
		return DispatchResponse{}, fmt.Errorf("contact rejected: %w", err)
	}
	text, err := sanitize.Input(args.Text)
	if err != nil {
		s.logger.Warn("MCP continue_flow: input rejected", "err", err, "size", len(args.Text))
		return DispatchResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	res, err := s.engine.ContinueFlow(ctx, args.TenantID, contact, fluxo.Reply{Text: text, InteractiveID: args.InteractiveID})
	if err != nil {
		return DispatchResponse{}, fmt.Errorf("continue failed: %w", err)
	}
	return newDispatchResponse(res), nil
}

func (s *Server) handleGetExecution(ctx context.Context, request mcp.CallToolRequest, args contactArgs) (domain.FlowExecution, error) {
	contact, err := sanitize.ID(args.Contact, maxIDLength)
	if err != nil {
		return domain.FlowExecution{}, fmt.Errorf("contact rejected: %w", err)
	}
	exec, err := s.engine.ActiveExecution(ctx, args.TenantID, contact)
	if err != nil {
		return domain.FlowExecution{}, err
	}
	return *exec, nil
}

func (s *Server) handleGetFlowGraph(ctx context.Context, request mcp.CallToolRequest, args graphArgs) (*mcp.CallToolResult, error) {
	flow, err := s.engine.Flow(ctx, args.TenantID, args.FlowID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("flow lookup failed: %v", err)), nil
	}
	var overlay *graph.GraphOverlay
	if args.Contact != "" {
		if exec, err := s.engine.ActiveExecution(ctx, args.TenantID, args.Contact); err == nil && exec.FlowID == flow.ID {
			overlay = graph.OverlayFor(exec)
		}
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(flow, overlay)), nil
}
