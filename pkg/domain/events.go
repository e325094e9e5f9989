package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventBlockEnter        EventType = "block_enter"
	EventEdgeResolved      EventType = "edge_resolved"
	EventHandoff           EventType = "handoff"
	EventRoutingMiss       EventType = "routing_miss"
	EventCollaboratorError EventType = "collaborator_error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp   time.Time `json:"timestamp"`
	Type        EventType `json:"type"`
	ExecutionID string    `json:"execution_id"`
	FlowID      string    `json:"flow_id"`
	TenantID    string    `json:"tenant_id"`
}

// BlockEvent is emitted when dispatch enters a block.
type BlockEvent struct {
	EventBase
	BlockID   string    `json:"block_id"`
	BlockKind BlockKind `json:"block_kind"`
}

// EdgeEvent is emitted when the next block has been resolved.
// Source is "edge", "inline", "condition", "default" or "response".
type EdgeEvent struct {
	EventBase
	FromBlockID string `json:"from_block_id"`
	ToBlockID   string `json:"to_block_id"`
	Source      string `json:"source"`
}

// HandoffEvent is emitted once ownership of the conversation changed durably.
type HandoffEvent struct {
	EventBase
	BlockID       string          `json:"block_id"`
	Status        ExecutionStatus `json:"status"`
	ContactStatus ContactStatus   `json:"contact_status"`
}

// RoutingMissEvent is emitted when a reply could not be routed.
type RoutingMissEvent struct {
	EventBase
	BlockID       string `json:"block_id"`
	InteractiveID string `json:"interactive_id,omitempty"`
}

// CollaboratorEvent is emitted for non-fatal collaborator failures.
type CollaboratorEvent struct {
	EventBase
	Collaborator string `json:"collaborator"`
	Operation    string `json:"operation"`
	Err          error  `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// One callback fires per state transition; nil callbacks are skipped.
type LifecycleHooks struct {
	OnBlockEnter        func(context.Context, *BlockEvent)
	OnEdgeResolved      func(context.Context, *EdgeEvent)
	OnHandoff           func(context.Context, *HandoffEvent)
	OnRoutingMiss       func(context.Context, *RoutingMissEvent)
	OnCollaboratorError func(context.Context, *CollaboratorEvent)
}
