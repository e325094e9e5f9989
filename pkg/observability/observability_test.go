package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/aretw0/fluxo/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()
	base := domain.EventBase{TenantID: "acme", FlowID: "welcome", ExecutionID: "exec-1"}

	hooks.OnBlockEnter(ctx, &domain.BlockEvent{EventBase: base, BlockID: "start", BlockKind: domain.KindStart})
	hooks.OnBlockEnter(ctx, &domain.BlockEvent{EventBase: base, BlockID: "hello", BlockKind: domain.KindMessage})
	hooks.OnEdgeResolved(ctx, &domain.EdgeEvent{EventBase: base, FromBlockID: "start", ToBlockID: "hello", Source: "edge"})
	hooks.OnHandoff(ctx, &domain.HandoffEvent{EventBase: base, Status: domain.StatusTransferredHuman})
	hooks.OnRoutingMiss(ctx, &domain.RoutingMissEvent{EventBase: base})
	hooks.OnCollaboratorError(ctx, &domain.CollaboratorEvent{EventBase: base, Collaborator: "webhook", Operation: "call"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BlockVisits.WithLabelValues("acme", "welcome", "start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BlockVisits.WithLabelValues("acme", "welcome", "message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EdgesResolved.WithLabelValues("acme", "welcome", "edge")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Handoffs.WithLabelValues("acme", "welcome", "transferred_human")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoutingMisses.WithLabelValues("acme", "welcome")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CollaboratorErrors.WithLabelValues("webhook", "call")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExecutionsFinalized))

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.Len(t, families, 6)
}

func TestAudit(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.Audit(logger)

	hooks.OnHandoff(context.Background(), &domain.HandoffEvent{
		EventBase:     domain.EventBase{ExecutionID: "exec-1"},
		BlockID:       "agent",
		Status:        domain.StatusTransferredHuman,
		ContactStatus: domain.ContactHuman,
	})

	out := buf.String()
	assert.Contains(t, out, "msg=handoff")
	assert.Contains(t, out, "status=transferred_human")
	assert.Contains(t, out, "contact_status=humano")
}

func TestCombine(t *testing.T) {
	var calls []string
	first := domain.LifecycleHooks{
		OnBlockEnter: func(context.Context, *domain.BlockEvent) { calls = append(calls, "first") },
	}
	second := domain.LifecycleHooks{
		OnBlockEnter:  func(context.Context, *domain.BlockEvent) { calls = append(calls, "second") },
		OnRoutingMiss: func(context.Context, *domain.RoutingMissEvent) { calls = append(calls, "miss") },
	}

	hooks := observability.Combine(first, domain.LifecycleHooks{}, second)
	hooks.OnBlockEnter(context.Background(), &domain.BlockEvent{})
	hooks.OnRoutingMiss(context.Background(), &domain.RoutingMissEvent{})

	assert.Equal(t, "first,second,miss", strings.Join(calls, ","))
	assert.Nil(t, hooks.OnHandoff)
}
