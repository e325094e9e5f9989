package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/fluxo/internal/logging"
	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/aretw0/fluxo/pkg/ports"
	"github.com/google/uuid"
)

// DefaultMaxAutoSteps bounds the blocks visited by a single dispatch.
const DefaultMaxAutoSteps = 100

// Dependencies are the ports the engine cannot run without.
type Dependencies struct {
	Flows      ports.FlowRepository
	Executions ports.ExecutionRepository
	Contacts   ports.ContactStatusStore
	Gateway    ports.MessagingGateway
}

// Engine is the flow state machine.
// It is stateless between calls; all state lives behind the repositories.
type Engine struct {
	flows      ports.FlowRepository
	executions ports.ExecutionRepository
	contacts   ports.ContactStatusStore
	gateway    ports.MessagingGateway

	conversations ports.ConversationLog
	ai            ports.AITrigger
	notifier      ports.AgentNotifier
	webhooks      ports.WebhookCaller
	scheduler     ports.DelayScheduler

	interpolator Interpolator
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	now          func() time.Time
	newID        func() string
	maxAutoSteps int
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithConversationLog records every inbound and outbound message.
func WithConversationLog(l ports.ConversationLog) EngineOption {
	return func(e *Engine) {
		e.conversations = l
	}
}

// WithAITrigger enables autoRespond on ai_handoff blocks.
func WithAITrigger(t ports.AITrigger) EngineOption {
	return func(e *Engine) {
		e.ai = t
	}
}

// WithAgentNotifier enables notifyAgent on human_handoff blocks.
func WithAgentNotifier(n ports.AgentNotifier) EngineOption {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithWebhookCaller sets the HTTP caller used by webhook blocks.
func WithWebhookCaller(c ports.WebhookCaller) EngineOption {
	return func(e *Engine) {
		e.webhooks = c
	}
}

// WithDelayScheduler makes delay blocks park the execution until the wake-up fires.
// Without a scheduler, delays are logged and skipped.
func WithDelayScheduler(s ports.DelayScheduler) EngineOption {
	return func(e *Engine) {
		e.scheduler = s
	}
}

// WithInterpolator replaces the {{variable}} interpolator.
func WithInterpolator(i Interpolator) EngineOption {
	return func(e *Engine) {
		if i != nil {
			e.interpolator = i
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides the execution id generator.
func WithIDGenerator(gen func() string) EngineOption {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithMaxAutoSteps overrides DefaultMaxAutoSteps.
func WithMaxAutoSteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxAutoSteps = n
		}
	}
}

// NewEngine creates a new engine with dependencies.
func NewEngine(deps Dependencies, opts ...EngineOption) (*Engine, error) {
	if deps.Flows == nil || deps.Executions == nil || deps.Contacts == nil || deps.Gateway == nil {
		return nil, errors.New("runtime: flows, executions, contacts and gateway are required")
	}
	e := &Engine{
		flows:        deps.Flows,
		executions:   deps.Executions,
		contacts:     deps.Contacts,
		gateway:      deps.Gateway,
		interpolator: DefaultInterpolator,
		logger:       logging.NewNop(),
		now:          time.Now,
		newID:        uuid.NewString,
		maxAutoSteps: DefaultMaxAutoSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Reply is an inbound message from the contact.
// InteractiveID is set when the contact tapped a button or list row.
type Reply struct {
	Text          string `json:"text,omitempty"`
	InteractiveID string `json:"interactiveResponseId,omitempty"`
}

// Result is the outcome of one dispatch.
// Warnings carries non-fatal failures (*domain.CollaboratorError, *domain.RoutingMissError).
type Result struct {
	Execution *domain.FlowExecution
	Warnings  []error
}

// run is the working set of one dispatch.
type run struct {
	flow     *domain.FlowDefinition
	exec     *domain.FlowExecution
	warnings []error
	visited  int
}

func (r *run) result() *Result {
	return &Result{Execution: r.exec, Warnings: r.warnings}
}

// StartFlow creates an execution for the contact and dispatches until the flow
// waits for a reply or terminates.
func (e *Engine) StartFlow(ctx context.Context, flowID, tenantID, contact string) (*Result, error) {
	flow, err := e.flows.GetFlow(ctx, tenantID, flowID)
	if err != nil {
		return nil, err
	}
	if _, ok := flow.Block(flow.StartBlockID); !ok {
		return nil, &domain.NotFoundError{Resource: "block", ID: flow.StartBlockID}
	}

	exec := domain.NewExecution(e.newID(), flow, tenantID, contact, e.now())
	if err := e.executions.Create(ctx, exec); err != nil {
		return nil, err
	}
	if err := e.contacts.Upsert(ctx, tenantID, contact, domain.ContactInFlow); err != nil {
		return nil, fmt.Errorf("failed to set contact status: %w", err)
	}

	e.logger.InfoContext(ctx, "flow started",
		"execution_id", exec.ID,
		"flow_id", flow.ID,
		"tenant_id", tenantID,
	)

	r := &run{flow: flow, exec: exec}
	if err := e.advance(ctx, r); err != nil {
		return nil, err
	}
	return r.result(), nil
}

// ContinueFlow routes a reply against the contact's active execution.
// A reply that cannot be routed is reported as a warning and leaves the
// execution waiting at the same block. A reply reaching an execution stuck on
// a non-interactive block resumes dispatch from that block instead.
func (e *Engine) ContinueFlow(ctx context.Context, tenantID, contact string, reply Reply) (*Result, error) {
	exec, err := e.executions.LoadActive(ctx, tenantID, contact)
	if err != nil {
		return nil, err
	}
	flow, err := e.flows.GetFlow(ctx, tenantID, exec.FlowID)
	if err != nil {
		return nil, err
	}
	r := &run{flow: flow, exec: exec}

	kind := "text"
	if reply.InteractiveID != "" {
		kind = "interactive_reply"
	}
	e.record(ctx, r, ports.MessageRecord{
		Direction:     ports.Inbound,
		Kind:          kind,
		Text:          reply.Text,
		InteractiveID: reply.InteractiveID,
	})

	block, ok := flow.Block(exec.CurrentBlockID)
	if !ok {
		return nil, &domain.NotFoundError{Resource: "block", ID: exec.CurrentBlockID}
	}
	if !block.Kind.AwaitsResponse() {
		if !e.interrupted(exec) {
			e.routingMiss(ctx, r, block, reply)
			return r.result(), nil
		}
		if err := e.redispatch(ctx, r, block); err != nil {
			return nil, err
		}
		return r.result(), nil
	}
	if err := block.Validate(flow.ID); err != nil {
		return nil, err
	}

	route, ok := ResolveNext(block, reply.Text, reply.InteractiveID, flow.Edges)
	if !ok {
		e.routingMiss(ctx, r, block, reply)
		return r.result(), nil
	}

	vars := map[string]any{}
	if saveAs := saveAsOf(block); saveAs != "" {
		value := route.OptionTitle
		if value == "" {
			value = reply.Text
		}
		vars[saveAs] = value
	}
	text := reply.Text
	if text == "" {
		text = route.OptionTitle
	}
	step := domain.FlowStep{
		BlockID:               block.ID,
		BlockType:             block.Kind,
		ExecutedAt:            e.now(),
		UserResponse:          text,
		InteractiveResponseID: route.OptionID,
		NextBlockID:           route.Target,
	}
	if err := e.commit(ctx, r, block, step, vars, route.Target); err != nil {
		return nil, err
	}
	e.emitEdgeResolved(ctx, r, block.ID, route.Target, route.Source)

	if err := e.advance(ctx, r); err != nil {
		return nil, err
	}
	return r.result(), nil
}

// interrupted reports whether an active execution sits on a block nothing
// will move it from: an earlier dispatch failed after committing the step
// into it, or its delay is overdue and the wake-up never arrived.
func (e *Engine) interrupted(exec *domain.FlowExecution) bool {
	return exec.ResumeAt == nil || !exec.ResumeAt.After(e.now())
}

// redispatch re-enters dispatch at a non-interactive cursor so a redelivered
// event completes the work a failed dispatch left behind.
func (e *Engine) redispatch(ctx context.Context, r *run, block *domain.Block) error {
	e.logger.InfoContext(ctx, "resuming interrupted dispatch",
		"execution_id", r.exec.ID,
		"block_id", block.ID,
		"overdue_delay", r.exec.ResumeAt != nil,
	)
	if r.exec.ResumeAt != nil {
		if err := e.leave(ctx, r, block, nil); err != nil {
			return err
		}
	}
	return e.advance(ctx, r)
}

// ResumeFlow moves an execution past the delay block it is parked on.
// A wake-up reaching an execution stuck on a non-interactive block resumes
// dispatch from there; any other stale wake-up is ignored.
func (e *Engine) ResumeFlow(ctx context.Context, w ports.Wakeup) (*Result, error) {
	exec, err := e.executions.Get(ctx, w.ExecutionID)
	if err != nil {
		return nil, err
	}
	if exec.Status.Terminal() {
		return e.staleWakeup(ctx, exec, w), nil
	}
	flow, err := e.flows.GetFlow(ctx, exec.TenantID, exec.FlowID)
	if err != nil {
		return nil, err
	}
	block, ok := flow.Block(exec.CurrentBlockID)
	if !ok {
		return nil, &domain.NotFoundError{Resource: "block", ID: exec.CurrentBlockID}
	}

	r := &run{flow: flow, exec: exec}
	switch {
	case exec.CurrentBlockID == w.BlockID && exec.ResumeAt != nil:
		if err := e.leave(ctx, r, block, nil); err != nil {
			return nil, err
		}
		if err := e.advance(ctx, r); err != nil {
			return nil, err
		}
	case !block.Kind.AwaitsResponse() && e.interrupted(exec):
		if err := e.redispatch(ctx, r, block); err != nil {
			return nil, err
		}
	default:
		return e.staleWakeup(ctx, exec, w), nil
	}
	return r.result(), nil
}

func (e *Engine) staleWakeup(ctx context.Context, exec *domain.FlowExecution, w ports.Wakeup) *Result {
	e.logger.DebugContext(ctx, "ignoring stale wake-up",
		"execution_id", w.ExecutionID,
		"block_id", w.BlockID,
	)
	return &Result{Execution: exec}
}

// ActiveExecution returns the contact's active execution.
func (e *Engine) ActiveExecution(ctx context.Context, tenantID, contact string) (*domain.FlowExecution, error) {
	return e.executions.LoadActive(ctx, tenantID, contact)
}

// Execution returns an execution by id.
func (e *Engine) Execution(ctx context.Context, executionID string) (*domain.FlowExecution, error) {
	return e.executions.Get(ctx, executionID)
}

// Flow returns a flow definition.
func (e *Engine) Flow(ctx context.Context, tenantID, flowID string) (*domain.FlowDefinition, error) {
	return e.flows.GetFlow(ctx, tenantID, flowID)
}

// commit persists a step with a compare-and-swap on the current block.
func (e *Engine) commit(ctx context.Context, r *run, block *domain.Block, step domain.FlowStep, vars map[string]any, next string) error {
	updated, err := e.executions.AppendStep(ctx, r.exec.ID, block.ID, step, vars, next)
	if err != nil {
		return fmt.Errorf("failed to persist step at block %s: %w", block.ID, err)
	}
	r.exec = updated
	return nil
}

func saveAsOf(block *domain.Block) string {
	switch d := block.Data.(type) {
	case *domain.ButtonsData:
		return d.SaveAs
	case *domain.ListData:
		return d.SaveAs
	}
	return ""
}
