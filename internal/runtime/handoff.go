package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/aretw0/fluxo/pkg/ports"
)

// handoff runs the terminal block: transition message, contact status,
// finalize, then best-effort side effects.
func (e *Engine) handoff(ctx context.Context, r *run, block *domain.Block) error {
	switch d := block.Data.(type) {
	case *domain.EndData:
		_, err := e.finish(ctx, r, block.ID, d.Message, domain.StatusCompleted, domain.ContactBot)
		return err

	case *domain.HumanHandoffData:
		changed, err := e.finish(ctx, r, block.ID, d.Message, domain.StatusTransferredHuman, domain.ContactHuman)
		if err != nil || !changed {
			return err
		}
		if d.NotifyAgent {
			e.notifyAgent(ctx, r, d)
		}
		return nil

	case *domain.AIHandoffData:
		changed, err := e.finish(ctx, r, block.ID, d.Message, domain.StatusTransferredAI, domain.ContactBot)
		if err != nil || !changed {
			return err
		}
		if d.AutoRespond {
			e.triggerAI(ctx, r, d)
		}
		return nil
	}
	return fmt.Errorf("block %s: %s is not a terminal kind", block.ID, block.Kind)
}

// complete is the implicit end of a flow: no exit, or no condition matched.
func (e *Engine) complete(ctx context.Context, r *run, block *domain.Block) error {
	_, err := e.finish(ctx, r, block.ID, "", domain.StatusCompleted, domain.ContactBot)
	return err
}

// finish commits the ownership transition. It reports whether this call moved
// the execution into its terminal state; a redelivered terminal event sees
// false and must not repeat side effects.
func (e *Engine) finish(ctx context.Context, r *run, blockID, message string, status domain.ExecutionStatus, contactStatus domain.ContactStatus) (bool, error) {
	current, err := e.executions.Get(ctx, r.exec.ID)
	if err != nil {
		return false, err
	}
	if current.Status.Terminal() {
		r.exec = current
		return false, nil
	}

	if message != "" {
		if err := e.sendText(ctx, r, e.render(ctx, r, message)); err != nil {
			return false, err
		}
	}

	if err := e.contacts.Upsert(ctx, r.exec.TenantID, r.exec.ContactAddress, contactStatus); err != nil {
		return false, fmt.Errorf("failed to set contact status %s: %w", contactStatus, err)
	}

	final, changed, err := e.executions.Finalize(ctx, r.exec.ID, status)
	if err != nil {
		return false, fmt.Errorf("failed to finalize execution %s: %w", r.exec.ID, err)
	}
	r.exec = final
	if !changed {
		return false, nil
	}

	e.logger.InfoContext(ctx, "execution finished",
		"execution_id", final.ID,
		"block_id", blockID,
		"status", final.Status,
		"contact_status", contactStatus,
	)
	e.emitHandoff(ctx, r, blockID, contactStatus)
	return true, nil
}

func (e *Engine) notifyAgent(ctx context.Context, r *run, d *domain.HumanHandoffData) {
	if e.notifier == nil {
		e.logger.WarnContext(ctx, "notifyAgent set but no agent notifier configured", "execution_id", r.exec.ID)
		return
	}
	n := ports.AgentNotification{
		TenantID:    r.exec.TenantID,
		Contact:     r.exec.ContactAddress,
		ExecutionID: r.exec.ID,
		FlowID:      r.exec.FlowID,
		Department:  d.Department,
		Summary:     FormatContext(r.exec, domain.ContextSummary),
	}
	if err := e.notifier.Notify(ctx, n); err != nil {
		e.warn(ctx, r, &domain.CollaboratorError{Collaborator: "agent_notifier", Operation: "notify", Err: err})
	}
}

func (e *Engine) triggerAI(ctx context.Context, r *run, d *domain.AIHandoffData) {
	if e.ai == nil {
		e.logger.WarnContext(ctx, "autoRespond set but no AI trigger configured", "execution_id", r.exec.ID)
		return
	}
	req := ports.AITriggerRequest{
		TenantID:      r.exec.TenantID,
		Contact:       r.exec.ContactAddress,
		ExecutionID:   r.exec.ID,
		LastUtterance: r.exec.LastUtterance(),
	}
	if d.IncludeContext {
		mode := d.ContextMode
		if mode == "" {
			mode = domain.ContextSummary
		}
		req.FlowContext = FormatContext(r.exec, mode)
	}
	if err := e.ai.Trigger(ctx, req); err != nil {
		e.warn(ctx, r, &domain.CollaboratorError{Collaborator: "ai_trigger", Operation: "trigger", Err: err})
	}
}
