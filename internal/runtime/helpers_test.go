package runtime_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/fluxo/internal/runtime"
	"github.com/aretw0/fluxo/pkg/adapters/memory"
	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/aretw0/fluxo/pkg/ports"
	"github.com/stretchr/testify/require"
)

const (
	tenant  = "acme"
	contact = "5511999990000"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// recordingContacts keeps every status written, in order.
type recordingContacts struct {
	*memory.ContactStore
	mu      sync.Mutex
	history []domain.ContactStatus
}

func (c *recordingContacts) Upsert(ctx context.Context, tenantID, contact string, status domain.ContactStatus) error {
	c.mu.Lock()
	c.history = append(c.history, status)
	c.mu.Unlock()
	return c.ContactStore.Upsert(ctx, tenantID, contact, status)
}

type fakeAI struct {
	requests []ports.AITriggerRequest
	err      error
}

func (f *fakeAI) Trigger(ctx context.Context, req ports.AITriggerRequest) error {
	f.requests = append(f.requests, req)
	return f.err
}

type fakeNotifier struct {
	notes []ports.AgentNotification
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, n ports.AgentNotification) error {
	f.notes = append(f.notes, n)
	return f.err
}

type fakeWebhook struct {
	requests []ports.WebhookRequest
	resp     *ports.WebhookResponse
	err      error
}

func (f *fakeWebhook) Call(ctx context.Context, req ports.WebhookRequest) (*ports.WebhookResponse, error) {
	f.requests = append(f.requests, req)
	return f.resp, f.err
}

type fixture struct {
	flows    *memory.FlowRepository
	execs    *memory.ExecutionRepository
	contacts *recordingContacts
	gateway  *memory.Gateway
	log      *memory.ConversationLog
	clock    time.Time
	engine   *runtime.Engine
}

func newFixture(t *testing.T, flow *domain.FlowDefinition, opts ...runtime.EngineOption) *fixture {
	t.Helper()
	flows, err := memory.NewFlowRepository(flow)
	require.NoError(t, err)

	f := &fixture{
		flows:    flows,
		contacts: &recordingContacts{ContactStore: memory.NewContactStore()},
		gateway:  memory.NewGateway(),
		log:      memory.NewConversationLog(),
		clock:    epoch,
	}
	now := func() time.Time { return f.clock }
	f.execs = memory.NewExecutionRepository().WithClock(now)

	seq := 0
	base := []runtime.EngineOption{
		runtime.WithClock(now),
		runtime.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("exec-%d", seq)
		}),
		runtime.WithConversationLog(f.log),
	}
	f.engine, err = runtime.NewEngine(runtime.Dependencies{
		Flows:      f.flows,
		Executions: f.execs,
		Contacts:   f.contacts,
		Gateway:    f.gateway,
	}, append(base, opts...)...)
	require.NoError(t, err)
	return f
}

func (f *fixture) texts() []string {
	var out []string
	for _, m := range f.gateway.Sent() {
		out = append(out, m.Text)
	}
	return out
}
