package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/fluxo"
	"github.com/aretw0/fluxo/internal/config"
	loamAdapter "github.com/aretw0/fluxo/pkg/adapters/loam"
	"github.com/aretw0/fluxo/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/fluxo/pkg/adapters/redis"
	"github.com/aretw0/fluxo/pkg/adapters/relay"
	"github.com/aretw0/fluxo/pkg/adapters/webhook"
	"github.com/aretw0/fluxo/pkg/delay"
	"github.com/aretw0/fluxo/pkg/observability"
	"github.com/aretw0/fluxo/pkg/persistence/middleware"
	"github.com/aretw0/fluxo/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	backend "github.com/redis/go-redis/v9"
)

// relayRetries is how many times a relay call is retried on 5xx or 429.
const relayRetries = 3

// Stack is a fully wired engine plus the pieces the commands drive directly.
type Stack struct {
	Engine   *fluxo.Engine
	Flows    *loamAdapter.FlowRepository
	Delays   delay.Source
	Registry *prometheus.Registry

	closers []func() error
}

// Close releases the connections opened by BuildStack.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// StackOptions adjusts BuildStack for a command.
type StackOptions struct {
	// Gateway replaces the relay messaging gateway.
	Gateway ports.MessagingGateway
	// Memory ignores the Redis settings.
	Memory bool
}

// BuildStack wires the engine described by cfg.
// Redis backs executions, contacts, the conversation log, delays and locks
// when redis.addr is set; otherwise everything lives in memory.
func BuildStack(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts StackOptions) (*Stack, error) {
	flows, err := loamAdapter.Open(cfg.Flows.Dir)
	if err != nil {
		return nil, err
	}

	stack := &Stack{Flows: flows, Registry: prometheus.NewRegistry()}
	stack.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(stack.Registry)

	deps := fluxo.Dependencies{Flows: flows}
	engineOpts := []fluxo.Option{
		fluxo.WithLogger(logger),
		fluxo.WithLifecycleHooks(observability.Combine(metrics.Hooks(), observability.Audit(logger))),
		fluxo.WithMaxAutoSteps(cfg.Engine.MaxAutoSteps),
		fluxo.WithLockTTL(cfg.Engine.LockTTL),
		fluxo.WithWebhookCaller(webhook.New(
			webhook.WithTimeout(cfg.Engine.WebhookTimeout),
			webhook.WithLogger(logger),
		)),
	}

	var conversations ports.ConversationLog
	if cfg.Redis.Addr != "" && !opts.Memory {
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		stack.closers = append(stack.closers, client.Close)

		redisOpts := []redisAdapter.Option{
			redisAdapter.WithPrefix(cfg.Redis.Prefix),
			redisAdapter.WithTTL(cfg.Redis.ExecutionTTL),
			redisAdapter.WithMaxLogLength(cfg.Redis.MaxLogLength),
		}
		deps.Executions = redisAdapter.NewExecutionRepository(client, redisOpts...)
		deps.Contacts = redisAdapter.NewContactStore(client, redisOpts...)
		conversations = redisAdapter.NewConversationLog(client, redisOpts...)
		queue := redisAdapter.NewDelayQueue(client, redisOpts...)
		stack.Delays = queue
		engineOpts = append(engineOpts,
			fluxo.WithDelayScheduler(queue),
			fluxo.WithLocker(redisAdapter.NewLocker(client, cfg.Redis.Prefix)),
		)
		logger.Info("using redis storage", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix)
	} else {
		deps.Executions = memory.NewExecutionRepository()
		deps.Contacts = memory.NewContactStore()
		conversations = memory.NewConversationLog()
		scheduler := memory.NewScheduler()
		stack.Delays = scheduler
		engineOpts = append(engineOpts, fluxo.WithDelayScheduler(scheduler))
		logger.Info("using in-memory storage")
	}

	if len(cfg.Privacy.MaskPatterns) > 0 {
		conversations = middleware.Chain(conversations, middleware.NewPIIMiddleware(cfg.Privacy.MaskPatterns))
	}
	engineOpts = append(engineOpts, fluxo.WithConversationLog(conversations))

	relayCaller := webhook.New(
		webhook.WithTimeout(cfg.Relay.Timeout),
		webhook.WithRetry(relayRetries, cfg.Relay.Timeout*relayRetries),
		webhook.WithLogger(logger),
	)
	switch {
	case opts.Gateway != nil:
		deps.Gateway = opts.Gateway
	case cfg.Relay.MessagingURL != "":
		deps.Gateway = relay.NewGateway(relayCaller, cfg.Relay.MessagingURL, cfg.Relay.Token)
	default:
		stack.Close()
		return nil, errors.New("relay.messaging_url is required to send messages")
	}
	if cfg.Relay.AIURL != "" {
		engineOpts = append(engineOpts, fluxo.WithAITrigger(relay.NewAITrigger(relayCaller, cfg.Relay.AIURL, cfg.Relay.Token)))
	}
	if cfg.Relay.AgentURL != "" {
		engineOpts = append(engineOpts, fluxo.WithAgentNotifier(relay.NewAgentNotifier(relayCaller, cfg.Relay.AgentURL, cfg.Relay.Token)))
	}

	stack.Engine, err = fluxo.New(deps, engineOpts...)
	if err != nil {
		stack.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return stack, nil
}
