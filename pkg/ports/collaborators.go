package ports

import (
	"context"
	"time"
)

// AITriggerRequest asks the AI bot to produce its next reply.
type AITriggerRequest struct {
	TenantID      string `json:"tenantId"`
	Contact       string `json:"contact"`
	ExecutionID   string `json:"executionId"`
	LastUtterance string `json:"lastUtterance"`
	// FlowContext is the formatted flow context, empty when not requested.
	FlowContext string `json:"flowContext,omitempty"`
}

// AITrigger hands a conversation to the AI bot subsystem.
type AITrigger interface {
	Trigger(ctx context.Context, req AITriggerRequest) error
}

// AgentNotification tells human staff a conversation is waiting for them.
type AgentNotification struct {
	TenantID    string `json:"tenantId"`
	Contact     string `json:"contact"`
	ExecutionID string `json:"executionId"`
	FlowID      string `json:"flowId"`
	Department  string `json:"department,omitempty"`
	Summary     string `json:"summary,omitempty"`
}

// AgentNotifier performs best-effort notifications of human agents.
type AgentNotifier interface {
	Notify(ctx context.Context, n AgentNotification) error
}

// WebhookRequest is the outbound call of a webhook block.
type WebhookRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    string
}

// WebhookResponse is what a webhook block gets back.
type WebhookResponse struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// WebhookCaller performs outbound HTTP calls for webhook blocks.
type WebhookCaller interface {
	Call(ctx context.Context, req WebhookRequest) (*WebhookResponse, error)
}

// Wakeup identifies a delay block waiting to be resumed.
type Wakeup struct {
	ExecutionID string `json:"executionId"`
	TenantID    string `json:"tenantId"`
	Contact     string `json:"contact"`
	BlockID     string `json:"blockId"`
	// Attempt counts failed resumptions of this wake-up.
	Attempt int `json:"attempt,omitempty"`
}

// DelayScheduler defers the resumption of an execution.
// When the wake-up fires, the host calls Engine.ResumeFlow with it.
type DelayScheduler interface {
	Schedule(ctx context.Context, w Wakeup, at time.Time) error
}
