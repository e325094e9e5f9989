package relay_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/fluxo/pkg/adapters/relay"
	"github.com/aretw0/fluxo/pkg/adapters/webhook"
	"github.com/aretw0/fluxo/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type captured struct {
	auth string
	body []byte
}

func newServer(t *testing.T, status int, response string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.auth = r.Header.Get("Authorization")
		got.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestGateway_SendButtons(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"messages":[{"id":"wamid.1"}]}`)
	gw := relay.NewGateway(webhook.New(), srv.URL, "tok")

	id, err := gw.SendButtons(context.Background(), "acme", "5511999", "Need help?", []ports.ButtonOption{
		{ID: "yes", Title: "Yes"},
		{ID: "no", Title: "No"},
	})
	require.NoError(t, err)
	assert.Equal(t, "wamid.1", id)
	assert.Equal(t, "Bearer tok", got.auth)

	body := gjson.ParseBytes(got.body)
	assert.Equal(t, "buttons", body.Get("type").String())
	assert.Equal(t, "Need help?", body.Get("text").String())
	assert.Equal(t, "no", body.Get("buttons.1.id").String())
}

func TestGateway_SendList(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"messageId":"m-7"}`)
	gw := relay.NewGateway(webhook.New(), srv.URL, "")

	id, err := gw.SendList(context.Background(), "acme", "5511999", "Pick one", "Options", []ports.ListSectionOption{
		{Title: "Topics", Rows: []ports.ListRowOption{{ID: "billing", Title: "Billing"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "m-7", id)
	assert.Empty(t, got.auth)
	assert.Equal(t, "billing", gjson.GetBytes(got.body, "sections.0.rows.0.id").String())
	assert.Equal(t, "Options", gjson.GetBytes(got.body, "buttonText").String())
}

func TestGateway_SendTextWithoutID(t *testing.T) {
	srv, _ := newServer(t, http.StatusAccepted, `not json`)
	gw := relay.NewGateway(webhook.New(), srv.URL, "")

	id, err := gw.SendText(context.Background(), "acme", "5511999", "hi")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestGateway_ErrorStatus(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadRequest, `{"error":{"message":"invalid contact"}}`)
	gw := relay.NewGateway(webhook.New(), srv.URL, "")

	_, err := gw.SendText(context.Background(), "acme", "bad", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, relay.ErrStatus)
	assert.Contains(t, err.Error(), "invalid contact")
}

func TestAITrigger(t *testing.T) {
	srv, got := newServer(t, http.StatusNoContent, "")
	trigger := relay.NewAITrigger(webhook.New(), srv.URL, "")

	err := trigger.Trigger(context.Background(), ports.AITriggerRequest{
		TenantID:      "acme",
		Contact:       "5511999",
		ExecutionID:   "exec-1",
		LastUtterance: "my router is broken",
		FlowContext:   "Flow context:",
	})
	require.NoError(t, err)

	var req ports.AITriggerRequest
	require.NoError(t, json.Unmarshal(got.body, &req))
	assert.Equal(t, "my router is broken", req.LastUtterance)
	assert.Equal(t, "Flow context:", req.FlowContext)
}

func TestAgentNotifier(t *testing.T) {
	srv, got := newServer(t, http.StatusServiceUnavailable, `{"message":"queue offline"}`)
	notifier := relay.NewAgentNotifier(webhook.New(), srv.URL, "")

	err := notifier.Notify(context.Background(), ports.AgentNotification{TenantID: "acme", Department: "billing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue offline")
	assert.Equal(t, "billing", gjson.GetBytes(got.body, "department").String())
}
