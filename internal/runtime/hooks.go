package runtime

import (
	"context"

	"github.com/aretw0/fluxo/pkg/domain"
)

func (e *Engine) base(r *run, t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp:   e.now(),
		Type:        t,
		ExecutionID: r.exec.ID,
		FlowID:      r.flow.ID,
		TenantID:    r.exec.TenantID,
	}
}

func (e *Engine) emitBlockEnter(ctx context.Context, r *run, block *domain.Block) {
	e.logger.DebugContext(ctx, "entering block",
		"execution_id", r.exec.ID,
		"block_id", block.ID,
		"kind", block.Kind,
	)
	if e.hooks.OnBlockEnter != nil {
		e.hooks.OnBlockEnter(ctx, &domain.BlockEvent{
			EventBase: e.base(r, domain.EventBlockEnter),
			BlockID:   block.ID,
			BlockKind: block.Kind,
		})
	}
}

func (e *Engine) emitEdgeResolved(ctx context.Context, r *run, from, to, source string) {
	if e.hooks.OnEdgeResolved != nil {
		e.hooks.OnEdgeResolved(ctx, &domain.EdgeEvent{
			EventBase:   e.base(r, domain.EventEdgeResolved),
			FromBlockID: from,
			ToBlockID:   to,
			Source:      source,
		})
	}
}

func (e *Engine) emitHandoff(ctx context.Context, r *run, blockID string, contactStatus domain.ContactStatus) {
	if e.hooks.OnHandoff != nil {
		e.hooks.OnHandoff(ctx, &domain.HandoffEvent{
			EventBase:     e.base(r, domain.EventHandoff),
			BlockID:       blockID,
			Status:        r.exec.Status,
			ContactStatus: contactStatus,
		})
	}
}

func (e *Engine) emitRoutingMiss(ctx context.Context, r *run, blockID, interactiveID string) {
	if e.hooks.OnRoutingMiss != nil {
		e.hooks.OnRoutingMiss(ctx, &domain.RoutingMissEvent{
			EventBase:     e.base(r, domain.EventRoutingMiss),
			BlockID:       blockID,
			InteractiveID: interactiveID,
		})
	}
}

func (e *Engine) emitCollaboratorError(ctx context.Context, r *run, err *domain.CollaboratorError) {
	if e.hooks.OnCollaboratorError != nil {
		e.hooks.OnCollaboratorError(ctx, &domain.CollaboratorEvent{
			EventBase:    e.base(r, domain.EventCollaboratorError),
			Collaborator: err.Collaborator,
			Operation:    err.Operation,
			Err:          err.Err,
		})
	}
}
