package fluxo

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/fluxo/internal/logging"
	"github.com/aretw0/fluxo/internal/runtime"
	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/aretw0/fluxo/pkg/ports"
	"github.com/aretw0/fluxo/pkg/session"
)

// Version is stamped at build time with -ldflags "-X github.com/aretw0/fluxo.Version=...".
var Version = "dev"

type (
	// Dependencies are the ports the engine cannot run without.
	Dependencies = runtime.Dependencies
	// Reply is an inbound message from the contact.
	Reply = runtime.Reply
	// Result is the outcome of one dispatch.
	Result = runtime.Result
)

// Engine is the high-level entry point of the library.
// It wraps the runtime and serializes every dispatch per (tenant, contact).
type Engine struct {
	runtime  *runtime.Engine
	sessions *session.Manager
	logger   *slog.Logger

	runtimeOpts []runtime.EngineOption
	sessionOpts []session.Option
	hooks       domain.LifecycleHooks
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithConversationLog records every inbound and outbound message.
func WithConversationLog(l ports.ConversationLog) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithConversationLog(l))
	}
}

// WithAITrigger enables autoRespond on ai_handoff blocks.
func WithAITrigger(t ports.AITrigger) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithAITrigger(t))
	}
}

// WithAgentNotifier enables notifyAgent on human_handoff blocks.
func WithAgentNotifier(n ports.AgentNotifier) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithAgentNotifier(n))
	}
}

// WithWebhookCaller sets the HTTP caller used by webhook blocks.
func WithWebhookCaller(c ports.WebhookCaller) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithWebhookCaller(c))
	}
}

// WithDelayScheduler makes delay blocks park the execution until ResumeFlow is called.
func WithDelayScheduler(s ports.DelayScheduler) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithDelayScheduler(s))
	}
}

// WithMaxAutoSteps bounds the blocks visited by one dispatch.
func WithMaxAutoSteps(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMaxAutoSteps(n))
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithClock(now))
	}
}

// WithIDGenerator overrides the execution id generator.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithIDGenerator(gen))
	}
}

// WithLocker extends per-contact serialization across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, session.WithLocker(locker))
	}
}

// WithLockTTL bounds how long a crashed replica can hold a contact lock.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, session.WithLockTTL(ttl))
	}
}

// New initializes an Engine over the given ports.
func New(deps Dependencies, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	runtimeOpts := append([]runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
	}, eng.runtimeOpts...)
	rt, err := runtime.NewEngine(deps, runtimeOpts...)
	if err != nil {
		return nil, err
	}
	eng.runtime = rt
	eng.sessions = session.NewManager(append([]session.Option{session.WithLogger(eng.logger)}, eng.sessionOpts...)...)
	return eng, nil
}

// StartFlow creates an execution of flowID for the contact and dispatches
// until the flow waits for a reply or terminates.
// Returns a *domain.ConflictError if the contact already has an active execution.
func (e *Engine) StartFlow(ctx context.Context, flowID, tenantID, contact string) (*Result, error) {
	var res *Result
	err := e.sessions.WithLock(ctx, session.Key(tenantID, contact), func(ctx context.Context) error {
		var err error
		res, err = e.runtime.StartFlow(ctx, flowID, tenantID, contact)
		return err
	})
	return res, err
}

// ContinueFlow routes the contact's reply against its active execution.
func (e *Engine) ContinueFlow(ctx context.Context, tenantID, contact string, reply Reply) (*Result, error) {
	var res *Result
	err := e.sessions.WithLock(ctx, session.Key(tenantID, contact), func(ctx context.Context) error {
		var err error
		res, err = e.runtime.ContinueFlow(ctx, tenantID, contact, reply)
		return err
	})
	return res, err
}

// ResumeFlow moves a parked execution past its delay block.
// It matches delay.ResumeFunc.
func (e *Engine) ResumeFlow(ctx context.Context, w ports.Wakeup) error {
	return e.sessions.WithLock(ctx, session.Key(w.TenantID, w.Contact), func(ctx context.Context) error {
		res, err := e.runtime.ResumeFlow(ctx, w)
		if err != nil {
			return err
		}
		for _, warning := range res.Warnings {
			e.logger.WarnContext(ctx, "resume finished with warning",
				"execution_id", w.ExecutionID,
				"err", warning,
			)
		}
		return nil
	})
}

// ActiveExecution returns the contact's active execution.
func (e *Engine) ActiveExecution(ctx context.Context, tenantID, contact string) (*domain.FlowExecution, error) {
	return e.runtime.ActiveExecution(ctx, tenantID, contact)
}

// Execution returns an execution by id.
func (e *Engine) Execution(ctx context.Context, executionID string) (*domain.FlowExecution, error) {
	return e.runtime.Execution(ctx, executionID)
}

// Flow returns the flow definition the tenant would run.
func (e *Engine) Flow(ctx context.Context, tenantID, flowID string) (*domain.FlowDefinition, error) {
	return e.runtime.Flow(ctx, tenantID, flowID)
}
