package fluxo_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/fluxo"
	"github.com/aretw0/fluxo/pkg/adapters/memory"
	"github.com/aretw0/fluxo/pkg/delay"
	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/aretw0/fluxo/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tenant  = "acme"
	contact = "5511999990000"
)

func menuFlow() *domain.FlowDefinition {
	b := dsl.New("support")
	b.Start("start").Go("menu")
	b.Buttons("menu", "How can we help?",
		domain.Button{ID: "sales", Title: "Sales"},
		domain.Button{ID: "bye", Title: "Nothing"},
	).On("sales", "human").On("bye", "end").SaveAs("topic")
	b.HumanHandoff("human", domain.HumanHandoffData{Message: "Connecting you to {{topic}}"})
	b.End("end", "See you")
	return b.MustBuild()
}

type harness struct {
	engine   *fluxo.Engine
	gateway  *memory.Gateway
	contacts *memory.ContactStore
}

func newHarness(t *testing.T, flow *domain.FlowDefinition, opts ...fluxo.Option) *harness {
	t.Helper()
	flows, err := memory.NewFlowRepository(flow)
	require.NoError(t, err)
	h := &harness{gateway: memory.NewGateway(), contacts: memory.NewContactStore()}
	h.engine, err = fluxo.New(fluxo.Dependencies{
		Flows:      flows,
		Executions: memory.NewExecutionRepository(),
		Contacts:   h.contacts,
		Gateway:    h.gateway,
	}, opts...)
	require.NoError(t, err)
	return h
}

func TestNew_MissingDependencies(t *testing.T) {
	_, err := fluxo.New(fluxo.Dependencies{})
	assert.Error(t, err)
}

func TestEngine_StartAndContinue(t *testing.T) {
	h := newHarness(t, menuFlow())
	ctx := context.Background()

	res, err := h.engine.StartFlow(ctx, "support", tenant, contact)
	require.NoError(t, err)
	assert.Equal(t, "menu", res.Execution.CurrentBlockID)
	require.Len(t, h.gateway.Sent(), 1)
	assert.Equal(t, "buttons", h.gateway.Sent()[0].Kind)

	active, err := h.engine.ActiveExecution(ctx, tenant, contact)
	require.NoError(t, err)
	assert.Equal(t, res.Execution.ID, active.ID)

	res, err = h.engine.ContinueFlow(ctx, tenant, contact, fluxo.Reply{InteractiveID: "sales"})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, domain.StatusTransferredHuman, res.Execution.Status)
	assert.Equal(t, "Sales", res.Execution.Variables["topic"])
	assert.Equal(t, domain.ContactHuman, h.contacts.Status(tenant, contact))

	sent := h.gateway.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Connecting you to Sales", sent[1].Text)

	_, err = h.engine.ActiveExecution(ctx, tenant, contact)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stored, err := h.engine.Execution(ctx, res.Execution.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTransferredHuman, stored.Status)
}

func TestEngine_ConcurrentStartsForSameContact(t *testing.T) {
	h := newHarness(t, menuFlow())
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.engine.StartFlow(ctx, "support", tenant, contact)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)
	assert.Len(t, h.gateway.Sent(), 1)
}

func TestEngine_ResumeThroughPoller(t *testing.T) {
	b := dsl.New("followup")
	b.Start("start").Go("wait")
	b.Delay("wait", 60).Go("ping")
	b.Message("ping", "Still there?").Go("end")
	b.End("end", "")

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	scheduler := memory.NewScheduler()
	h := newHarness(t, b.MustBuild(),
		fluxo.WithDelayScheduler(scheduler),
		fluxo.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	res, err := h.engine.StartFlow(ctx, "followup", tenant, contact)
	require.NoError(t, err)
	require.NotNil(t, res.Execution.ResumeAt)
	assert.Empty(t, h.gateway.Sent())

	poller := delay.NewPoller(scheduler, h.engine.ResumeFlow,
		delay.WithClock(func() time.Time { return now.Add(2 * time.Minute) }),
	)
	n, err := poller.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	exec, err := h.engine.Execution(ctx, res.Execution.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, exec.Status)
	require.Len(t, h.gateway.Sent(), 1)
	assert.Equal(t, "Still there?", h.gateway.Sent()[0].Text)
}

func TestEngine_Flow(t *testing.T) {
	h := newHarness(t, menuFlow())

	flow, err := h.engine.Flow(context.Background(), tenant, "support")
	require.NoError(t, err)
	assert.Equal(t, "start", flow.StartBlockID)

	_, err = h.engine.Flow(context.Background(), tenant, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
