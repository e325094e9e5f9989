package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrConflict matches every *ConflictError.
	ErrConflict = errors.New("conflict")
	// ErrBlockConfiguration matches every *BlockConfigurationError.
	ErrBlockConfiguration = errors.New("block configuration error")
	// ErrRoutingMiss matches every *RoutingMissError.
	ErrRoutingMiss = errors.New("routing miss")
	// ErrCollaborator matches every *CollaboratorError.
	ErrCollaborator = errors.New("collaborator error")
)

// NotFoundError is returned when a flow, block or execution is missing.
type NotFoundError struct {
	Resource string // "flow", "block", "execution"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError is returned when an active execution already exists for a contact,
// or when a conditional update lost against a concurrent one.
type ConflictError struct {
	TenantID    string
	Contact     string
	ExecutionID string
	Reason      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict for contact %s/%s (execution %s): %s", e.TenantID, e.Contact, e.ExecutionID, e.Reason)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// BlockConfigurationError is raised before any side effect when block data is malformed.
type BlockConfigurationError struct {
	FlowID  string
	BlockID string
	Kind    BlockKind
	Reason  string
}

func (e *BlockConfigurationError) Error() string {
	return fmt.Sprintf("flow %s: block %s (%s) is misconfigured: %s", e.FlowID, e.BlockID, e.Kind, e.Reason)
}

func (e *BlockConfigurationError) Is(target error) bool { return target == ErrBlockConfiguration }

// RoutingMissError reports a reply that matched no inline target and no edge.
// It is never fatal: the execution keeps waiting at the same block.
type RoutingMissError struct {
	ExecutionID   string
	BlockID       string
	InteractiveID string
	Text          string
}

func (e *RoutingMissError) Error() string {
	return fmt.Sprintf("no route from block %s for response %q (text %q)", e.BlockID, e.InteractiveID, e.Text)
}

func (e *RoutingMissError) Is(target error) bool { return target == ErrRoutingMiss }

// CollaboratorError wraps a failed call to an external collaborator.
type CollaboratorError struct {
	Collaborator string // "messaging", "conversation_log", "ai_trigger", "agent_notifier", "webhook"
	Operation    string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Collaborator, e.Operation, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

func (e *CollaboratorError) Is(target error) bool { return target == ErrCollaborator }
