package observability

import (
	"context"

	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	BlockVisits         *prometheus.CounterVec
	EdgesResolved       *prometheus.CounterVec
	Handoffs            *prometheus.CounterVec
	RoutingMisses       *prometheus.CounterVec
	CollaboratorErrors  *prometheus.CounterVec
	ExecutionsFinalized prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
// Pass nil to skip registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BlockVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxo_block_visits_total",
				Help: "Total number of blocks entered by the dispatcher",
			},
			[]string{"tenant_id", "flow_id", "block_kind"},
		),
		EdgesResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxo_edges_resolved_total",
				Help: "Total number of resolved transitions by resolution source",
			},
			[]string{"tenant_id", "flow_id", "source"},
		),
		Handoffs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxo_handoffs_total",
				Help: "Total number of finalized executions by terminal status",
			},
			[]string{"tenant_id", "flow_id", "status"},
		),
		RoutingMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxo_routing_misses_total",
				Help: "Total number of replies that matched no route",
			},
			[]string{"tenant_id", "flow_id"},
		),
		CollaboratorErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxo_collaborator_errors_total",
				Help: "Total number of non-fatal collaborator failures",
			},
			[]string{"collaborator", "operation"},
		),
		ExecutionsFinalized: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fluxo_executions_finalized_total",
				Help: "Total number of executions that reached a terminal status",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.BlockVisits,
			m.EdgesResolved,
			m.Handoffs,
			m.RoutingMisses,
			m.CollaboratorErrors,
			m.ExecutionsFinalized,
		)
	}
	return m
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnBlockEnter: func(ctx context.Context, e *domain.BlockEvent) {
			m.BlockVisits.WithLabelValues(e.TenantID, e.FlowID, string(e.BlockKind)).Inc()
		},
		OnEdgeResolved: func(ctx context.Context, e *domain.EdgeEvent) {
			m.EdgesResolved.WithLabelValues(e.TenantID, e.FlowID, e.Source).Inc()
		},
		OnHandoff: func(ctx context.Context, e *domain.HandoffEvent) {
			m.Handoffs.WithLabelValues(e.TenantID, e.FlowID, string(e.Status)).Inc()
			m.ExecutionsFinalized.Inc()
		},
		OnRoutingMiss: func(ctx context.Context, e *domain.RoutingMissEvent) {
			m.RoutingMisses.WithLabelValues(e.TenantID, e.FlowID).Inc()
		},
		OnCollaboratorError: func(ctx context.Context, e *domain.CollaboratorEvent) {
			m.CollaboratorErrors.WithLabelValues(e.Collaborator, e.Operation).Inc()
		},
	}
}
