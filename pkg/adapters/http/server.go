// Package http exposes the flow engine as a JSON API.
//
// Requests are validated against the embedded OpenAPI document before they
// reach a handler.
package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/fluxo"
	"github.com/aretw0/fluxo/internal/logging"
	"github.com/aretw0/fluxo/internal/presentation/graph"
	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/aretw0/fluxo/pkg/sanitize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var rawSpec []byte

// Engine is the part of *fluxo.Engine the API needs.
type Engine interface {
	StartFlow(ctx context.Context, flowID, tenantID, contact string) (*fluxo.Result, error)
	ContinueFlow(ctx context.Context, tenantID, contact string, reply fluxo.Reply) (*fluxo.Result, error)
	ActiveExecution(ctx context.Context, tenantID, contact string) (*domain.FlowExecution, error)
	Flow(ctx context.Context, tenantID, flowID string) (*domain.FlowDefinition, error)
}

// Server holds the handlers of the API.
type Server struct {
	Engine Engine

	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics serves the gatherer on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	server := &Server{
		Engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	validator, err := newRequestValidator(rawSpec)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(server.logRequests)

	r.Get("/health", server.GetHealth)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	if server.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1/tenants/{tenantID}", func(r chi.Router) {
		r.Use(validator.middleware(server.writeError))
		r.Post("/flows/{flowID}/executions", server.StartFlow)
		r.Get("/flows/{flowID}/graph", server.GetFlowGraph)
		r.Post("/contacts/{contact}/replies", server.ContinueFlow)
		r.Get("/contacts/{contact}/execution", server.GetActiveExecution)
	})
	return r, nil
}

type startRequest struct {
	Contact string `json:"contact"`
}

type replyRequest struct {
	Text          string `json:"text"`
	InteractiveID string `json:"interactiveResponseId"`
}

type dispatchResponse struct {
	Execution *domain.FlowExecution `json:"execution"`
	Warnings  []string              `json:"warnings,omitempty"`
}

func newDispatchResponse(res *fluxo.Result) dispatchResponse {
	resp := dispatchResponse{Execution: res.Execution}
	for _, w := range res.Warnings {
		resp.Warnings = append(resp.Warnings, w.Error())
	}
	return resp
}

// StartFlow handles POST /v1/tenants/{tenantID}/flows/{flowID}/executions.
func (s *Server) StartFlow(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	contact, err := cleanContact(body.Contact)
	if err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}

	res, err := s.Engine.StartFlow(r.Context(), chi.URLParam(r, "flowID"), chi.URLParam(r, "tenantID"), contact)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newDispatchResponse(res))
}

// ContinueFlow handles POST /v1/tenants/{tenantID}/contacts/{contact}/replies.
func (s *Server) ContinueFlow(w http.ResponseWriter, r *http.Request) {
	var body replyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}

	contact, err := cleanContact(chi.URLParam(r, "contact"))
	if err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	reply, err := cleanReply(body)
	if err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}

	res, err := s.Engine.ContinueFlow(r.Context(), chi.URLParam(r, "tenantID"), contact, reply)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDispatchResponse(res))
}

func cleanContact(contact string) (string, error) {
	contact, err := sanitize.ID(contact, maxIDLength)
	if err != nil {
		return "", err
	}
	if contact == "" {
		return "", errors.New("contact is required")
	}
	return contact, nil
}

func cleanReply(body replyRequest) (fluxo.Reply, error) {
	var reply fluxo.Reply
	if body.Text == "" && body.InteractiveID == "" {
		return reply, errors.New("text or interactiveResponseId is required")
	}
	text, err := sanitize.Input(body.Text)
	if err != nil {
		return reply, err
	}
	reply.Text = text
	if body.InteractiveID != "" {
		if reply.InteractiveID, err = sanitize.ID(body.InteractiveID, maxIDLength*2); err != nil {
			return reply, err
		}
	}
	return reply, nil
}

// GetActiveExecution handles GET /v1/tenants/{tenantID}/contacts/{contact}/execution.
func (s *Server) GetActiveExecution(w http.ResponseWriter, r *http.Request) {
	contact, err := cleanContact(chi.URLParam(r, "contact"))
	if err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	exec, err := s.Engine.ActiveExecution(r.Context(), chi.URLParam(r, "tenantID"), contact)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exec)
}

// GetFlowGraph handles GET /v1/tenants/{tenantID}/flows/{flowID}/graph.
// With ?contact= the contact's active execution is highlighted.
func (s *Server) GetFlowGraph(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	flow, err := s.Engine.Flow(r.Context(), tenantID, chi.URLParam(r, "flowID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var overlay *graph.GraphOverlay
	if raw := r.URL.Query().Get("contact"); raw != "" {
		contact, err := cleanContact(raw)
		if err != nil {
			s.writeError(w, r, badRequest(err))
			return
		}
		exec, err := s.Engine.ActiveExecution(r.Context(), tenantID, contact)
		switch {
		case err == nil && exec.FlowID == flow.ID:
			overlay = graph.OverlayFor(exec)
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			s.writeError(w, r, err)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(graph.GenerateMermaid(flow, overlay)))
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": fluxo.Version})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.DebugContext(r.Context(), "request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
