package runtime_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/aretw0/fluxo/internal/runtime"
	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/aretw0/fluxo/pkg/dsl"
	"github.com/aretw0/fluxo/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webhookFlow() *domain.FlowDefinition {
	b := dsl.New("lookup")
	b.Start("start").Go("save")
	b.Action("save", domain.VariableOperation{Variable: "order", Op: domain.OpSet, Value: "A-1"}).Go("call")
	b.Webhook("call", domain.WebhookData{
		URL:            "https://crm.example.com/orders/{{order}}",
		Headers:        map[string]string{"X-Order": "{{order}}"},
		Body:           `{"id":"{{order}}"}`,
		SaveResponse:   map[string]string{"status": "order.status", "eta": "order.eta_days", "missing": "nope"},
		StatusVariable: "http_status",
	}).Go("say")
	b.Message("say", "Order {{order}}: {{status}}").Go("end")
	b.End("end", "")
	return b.MustBuild()
}

func TestEngine_WebhookExtractsVariables(t *testing.T) {
	caller := &fakeWebhook{resp: &ports.WebhookResponse{
		StatusCode: 200,
		Body:       []byte(`{"order":{"status":"shipped","eta_days":2}}`),
	}}
	f := newFixture(t, webhookFlow(), runtime.WithWebhookCaller(caller))

	res, err := f.engine.StartFlow(context.Background(), "lookup", tenant, contact)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	require.Len(t, caller.requests, 1)
	req := caller.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "https://crm.example.com/orders/A-1", req.URL)
	assert.Equal(t, "A-1", req.Headers["X-Order"])
	assert.JSONEq(t, `{"id":"A-1"}`, req.Body)

	vars := res.Execution.Variables
	assert.Equal(t, "shipped", vars["status"])
	assert.EqualValues(t, 2, vars["eta"])
	assert.EqualValues(t, 200, vars["http_status"])
	assert.NotContains(t, vars, "missing")
	assert.Equal(t, []string{"Order A-1: shipped"}, f.texts())
}

func TestEngine_WebhookFailureIsWarning(t *testing.T) {
	caller := &fakeWebhook{err: errors.New("connection refused")}
	f := newFixture(t, webhookFlow(), runtime.WithWebhookCaller(caller))

	res, err := f.engine.StartFlow(context.Background(), "lookup", tenant, contact)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, res.Execution.Status, "webhook status is not branched on")
	require.Len(t, res.Warnings, 1)

	var collab *domain.CollaboratorError
	require.ErrorAs(t, res.Warnings[0], &collab)
	assert.Equal(t, "webhook", collab.Collaborator)
	assert.Equal(t, []string{"Order A-1: {{status}}"}, f.texts())
}
