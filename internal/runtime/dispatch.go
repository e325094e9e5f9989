package runtime

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/aretw0/fluxo/pkg/ports"
)

// advance dispatches blocks from the execution cursor until the flow waits
// for a reply, parks on a delay or terminates.
func (e *Engine) advance(ctx context.Context, r *run) error {
	for {
		if r.exec.Status.Terminal() {
			return nil
		}

		blockID := r.exec.CurrentBlockID
		block, ok := r.flow.Block(blockID)
		if !ok {
			return &domain.NotFoundError{Resource: "block", ID: blockID}
		}

		r.visited++
		if r.visited > e.maxAutoSteps {
			return &domain.BlockConfigurationError{
				FlowID:  r.flow.ID,
				BlockID: block.ID,
				Kind:    block.Kind,
				Reason:  fmt.Sprintf("dispatch exceeded %d blocks without waiting for a reply", e.maxAutoSteps),
			}
		}

		if err := block.Validate(r.flow.ID); err != nil {
			return err
		}
		e.emitBlockEnter(ctx, r, block)

		switch {
		case block.Kind.AwaitsResponse():
			return e.present(ctx, r, block)

		case block.Kind.Terminal():
			return e.handoff(ctx, r, block)

		case block.Kind == domain.KindCondition:
			data := block.Data.(*domain.ConditionData)
			next, source, ok := evaluate(data.Conditions, data.DefaultNextBlockID, r.exec.Variables)
			if !ok {
				e.logger.DebugContext(ctx, "no condition matched",
					"execution_id", r.exec.ID,
					"block_id", block.ID,
				)
				return e.complete(ctx, r, block)
			}
			step := domain.FlowStep{BlockID: block.ID, BlockType: block.Kind, ExecutedAt: e.now(), NextBlockID: next}
			if err := e.commit(ctx, r, block, step, nil, next); err != nil {
				return err
			}
			e.emitEdgeResolved(ctx, r, block.ID, next, source)

		case block.Kind.AutoAdvances():
			vars, parked, err := e.perform(ctx, r, block)
			if err != nil {
				return err
			}
			if parked {
				return nil
			}
			if err := e.leave(ctx, r, block, vars); err != nil {
				return err
			}

		default:
			return &domain.BlockConfigurationError{FlowID: r.flow.ID, BlockID: block.ID, Kind: block.Kind, Reason: "unsupported block type"}
		}
	}
}

// leave persists the step of an auto-advancing block and follows its single exit.
// A block without an outgoing edge completes the flow.
func (e *Engine) leave(ctx context.Context, r *run, block *domain.Block, vars map[string]any) error {
	next := ""
	if edges := r.flow.OutgoingEdges(block.ID); len(edges) > 0 {
		next = edges[0].Target
	}

	target := next
	if target == "" {
		target = block.ID
	}
	step := domain.FlowStep{BlockID: block.ID, BlockType: block.Kind, ExecutedAt: e.now(), NextBlockID: next}
	if err := e.commit(ctx, r, block, step, vars, target); err != nil {
		return err
	}

	if next == "" {
		return e.complete(ctx, r, block)
	}
	e.emitEdgeResolved(ctx, r, block.ID, next, "edge")
	return nil
}

// perform runs the side effect of an auto-advancing block.
// The flag reports that the execution is parked until an external wake-up.
func (e *Engine) perform(ctx context.Context, r *run, block *domain.Block) (map[string]any, bool, error) {
	switch d := block.Data.(type) {
	case *domain.StartData:
		return nil, false, nil

	case *domain.MessageData:
		return nil, false, e.sendText(ctx, r, e.render(ctx, r, d.Text))

	case *domain.ActionData:
		return applyOperations(r.exec.Variables, d.Operations, func(s string) string { return e.render(ctx, r, s) }), false, nil

	case *domain.DelayData:
		parked, err := e.delay(ctx, r, block, d)
		return nil, parked, err

	case *domain.WebhookData:
		return e.callWebhook(ctx, r, block, d), false, nil
	}
	return nil, false, fmt.Errorf("block %s: no effect for kind %s", block.ID, block.Kind)
}

func (e *Engine) delay(ctx context.Context, r *run, block *domain.Block, d *domain.DelayData) (bool, error) {
	if d.Seconds == 0 {
		return false, nil
	}
	if e.scheduler == nil {
		e.logger.WarnContext(ctx, "no delay scheduler configured, skipping delay",
			"execution_id", r.exec.ID,
			"block_id", block.ID,
			"seconds", d.Seconds,
		)
		return false, nil
	}

	at := e.now().Add(time.Duration(d.Seconds) * time.Second)
	updated, err := e.executions.SetResumeAt(ctx, r.exec.ID, block.ID, at)
	if err != nil {
		return false, fmt.Errorf("failed to park execution at block %s: %w", block.ID, err)
	}
	r.exec = updated

	wakeup := ports.Wakeup{
		ExecutionID: r.exec.ID,
		TenantID:    r.exec.TenantID,
		Contact:     r.exec.ContactAddress,
		BlockID:     block.ID,
	}
	if err := e.scheduler.Schedule(ctx, wakeup, at); err != nil {
		return false, &domain.CollaboratorError{Collaborator: "scheduler", Operation: "schedule", Err: err}
	}
	e.logger.InfoContext(ctx, "execution parked on delay",
		"execution_id", r.exec.ID,
		"block_id", block.ID,
		"resume_at", at,
	)
	return true, nil
}

// present sends the menu of an interactive block. The cursor already points at it.
func (e *Engine) present(ctx context.Context, r *run, block *domain.Block) error {
	switch d := block.Data.(type) {
	case *domain.ButtonsData:
		body := e.render(ctx, r, d.Body)
		if d.Footer != "" {
			body += "\n\n" + e.render(ctx, r, d.Footer)
		}
		buttons := make([]ports.ButtonOption, 0, len(d.Buttons))
		for _, b := range d.Buttons {
			buttons = append(buttons, ports.ButtonOption{ID: b.ID, Title: b.Title})
		}
		id, err := e.gateway.SendButtons(ctx, r.exec.TenantID, r.exec.ContactAddress, body, buttons)
		if err != nil {
			return &domain.CollaboratorError{Collaborator: "messaging", Operation: "send_buttons", Err: err}
		}
		e.record(ctx, r, ports.MessageRecord{Direction: ports.Outbound, Kind: "buttons", Text: body, ProviderMessageID: id})

	case *domain.ListData:
		body := e.render(ctx, r, d.Body)
		sections := make([]ports.ListSectionOption, 0, len(d.Sections))
		for _, s := range d.Sections {
			rows := make([]ports.ListRowOption, 0, len(s.Rows))
			for _, row := range s.Rows {
				rows = append(rows, ports.ListRowOption{ID: row.ID, Title: row.Title, Description: row.Description})
			}
			sections = append(sections, ports.ListSectionOption{Title: s.Title, Rows: rows})
		}
		buttonText := d.ButtonText
		if strings.TrimSpace(buttonText) == "" {
			buttonText = "Options"
		}
		id, err := e.gateway.SendList(ctx, r.exec.TenantID, r.exec.ContactAddress, body, buttonText, sections)
		if err != nil {
			return &domain.CollaboratorError{Collaborator: "messaging", Operation: "send_list", Err: err}
		}
		e.record(ctx, r, ports.MessageRecord{Direction: ports.Outbound, Kind: "list", Text: body, ProviderMessageID: id})
	}

	e.logger.DebugContext(ctx, "awaiting reply",
		"execution_id", r.exec.ID,
		"block_id", block.ID,
	)
	return nil
}

// sendText sends a text message. Failure is fatal for the dispatch.
func (e *Engine) sendText(ctx context.Context, r *run, text string) error {
	id, err := e.gateway.SendText(ctx, r.exec.TenantID, r.exec.ContactAddress, text)
	if err != nil {
		return &domain.CollaboratorError{Collaborator: "messaging", Operation: "send_text", Err: err}
	}
	e.record(ctx, r, ports.MessageRecord{Direction: ports.Outbound, Kind: "text", Text: text, ProviderMessageID: id})
	return nil
}

// record appends to the conversation log. Failures become warnings.
func (e *Engine) record(ctx context.Context, r *run, rec ports.MessageRecord) {
	if e.conversations == nil {
		return
	}
	rec.TenantID = r.exec.TenantID
	rec.Contact = r.exec.ContactAddress
	rec.ExecutionID = r.exec.ID
	rec.At = e.now()
	if err := e.conversations.Append(ctx, rec); err != nil {
		e.warn(ctx, r, &domain.CollaboratorError{Collaborator: "conversation_log", Operation: "append", Err: err})
	}
}

func (e *Engine) render(ctx context.Context, r *run, text string) string {
	out, err := e.interpolator(ctx, text, r.exec.Variables)
	if err != nil {
		e.logger.WarnContext(ctx, "interpolation failed, sending raw text",
			"execution_id", r.exec.ID,
			"err", err,
		)
		return text
	}
	return out
}

// routingMiss reports a reply that could not be routed. Nothing is persisted.
func (e *Engine) routingMiss(ctx context.Context, r *run, block *domain.Block, reply Reply) {
	miss := &domain.RoutingMissError{
		ExecutionID:   r.exec.ID,
		BlockID:       block.ID,
		InteractiveID: reply.InteractiveID,
		Text:          reply.Text,
	}
	e.logger.WarnContext(ctx, "routing miss",
		"execution_id", r.exec.ID,
		"block_id", block.ID,
		"interactive_id", reply.InteractiveID,
	)
	r.warnings = append(r.warnings, miss)
	e.emitRoutingMiss(ctx, r, block.ID, reply.InteractiveID)
}

// warn records a non-fatal collaborator failure.
func (e *Engine) warn(ctx context.Context, r *run, err *domain.CollaboratorError) {
	e.logger.WarnContext(ctx, "collaborator failed",
		"execution_id", r.exec.ID,
		"collaborator", err.Collaborator,
		"operation", err.Operation,
		"err", err.Err,
	)
	r.warnings = append(r.warnings, err)
	e.emitCollaboratorError(ctx, r, err)
}

// applyOperations returns the variables changed by an action block.
func applyOperations(current map[string]any, ops []domain.VariableOperation, render func(string) string) map[string]any {
	working := make(map[string]any, len(current))
	maps.Copy(working, current)
	changed := make(map[string]any, len(ops))

	for _, op := range ops {
		value := op.Value
		if s, ok := value.(string); ok {
			value = render(s)
		}

		var next any
		switch op.Op {
		case domain.OpSet:
			next = value
		case domain.OpClear:
			next = nil
		case domain.OpIncrement:
			next = increment(working[op.Variable], value)
		case domain.OpAppend:
			next = appendValue(working[op.Variable], value)
		}
		working[op.Variable] = next
		changed[op.Variable] = next
	}
	return changed
}
