package relay

import (
	"context"

	"github.com/aretw0/fluxo/pkg/ports"
)

// AITrigger implements ports.AITrigger by posting the request as JSON.
type AITrigger struct {
	client
	url string
}

func NewAITrigger(caller ports.WebhookCaller, url, token string) *AITrigger {
	return &AITrigger{client: client{caller: caller, token: token}, url: url}
}

func (a *AITrigger) Trigger(ctx context.Context, req ports.AITriggerRequest) error {
	_, err := a.post(ctx, a.url, req)
	return err
}

// AgentNotifier implements ports.AgentNotifier by posting the notification as JSON.
type AgentNotifier struct {
	client
	url string
}

func NewAgentNotifier(caller ports.WebhookCaller, url, token string) *AgentNotifier {
	return &AgentNotifier{client: client{caller: caller, token: token}, url: url}
}

func (n *AgentNotifier) Notify(ctx context.Context, notification ports.AgentNotification) error {
	_, err := n.post(ctx, n.url, notification)
	return err
}
