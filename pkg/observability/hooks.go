package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/fluxo/pkg/domain"
)

// Audit returns hooks that write one structured log line per engine event.
func Audit(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnBlockEnter: func(ctx context.Context, e *domain.BlockEvent) {
			logger.DebugContext(ctx, "block_enter",
				"execution_id", e.ExecutionID,
				"flow_id", e.FlowID,
				"block_id", e.BlockID,
				"block_kind", e.BlockKind,
			)
		},
		OnEdgeResolved: func(ctx context.Context, e *domain.EdgeEvent) {
			logger.DebugContext(ctx, "edge_resolved",
				"execution_id", e.ExecutionID,
				"from", e.FromBlockID,
				"to", e.ToBlockID,
				"source", e.Source,
			)
		},
		OnHandoff: func(ctx context.Context, e *domain.HandoffEvent) {
			logger.InfoContext(ctx, "handoff",
				"execution_id", e.ExecutionID,
				"tenant_id", e.TenantID,
				"flow_id", e.FlowID,
				"block_id", e.BlockID,
				"status", e.Status,
				"contact_status", e.ContactStatus,
			)
		},
		OnRoutingMiss: func(ctx context.Context, e *domain.RoutingMissEvent) {
			logger.WarnContext(ctx, "routing_miss",
				"execution_id", e.ExecutionID,
				"block_id", e.BlockID,
				"interactive_id", e.InteractiveID,
			)
		},
		OnCollaboratorError: func(ctx context.Context, e *domain.CollaboratorEvent) {
			logger.WarnContext(ctx, "collaborator_error",
				"execution_id", e.ExecutionID,
				"collaborator", e.Collaborator,
				"operation", e.Operation,
				"err", e.Err,
			)
		},
	}
}

// Combine returns hooks that invoke every non-nil callback of each set, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, s := range sets {
		out.OnBlockEnter = chain(out.OnBlockEnter, s.OnBlockEnter)
		out.OnEdgeResolved = chain(out.OnEdgeResolved, s.OnEdgeResolved)
		out.OnHandoff = chain(out.OnHandoff, s.OnHandoff)
		out.OnRoutingMiss = chain(out.OnRoutingMiss, s.OnRoutingMiss)
		out.OnCollaboratorError = chain(out.OnCollaboratorError, s.OnCollaboratorError)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
