package ports

import (
	"context"
	"time"

	"github.com/aretw0/fluxo/pkg/domain"
)

// FlowRepository provides read-only access to authored flows.
type FlowRepository interface {
	// GetFlow returns the flow for the tenant.
	// Returns a *domain.NotFoundError if the flow does not exist or is inactive.
	GetFlow(ctx context.Context, tenantID, flowID string) (*domain.FlowDefinition, error)
}

// ExecutionRepository persists flow executions.
// Implementations own the "one active execution per (tenant, contact)" invariant
// and must apply AppendStep and Finalize as single conditional updates.
type ExecutionRepository interface {
	// Create stores a new active execution.
	// Returns a *domain.ConflictError if the contact already has an active execution.
	Create(ctx context.Context, exec *domain.FlowExecution) error

	// LoadActive returns the active execution for a contact.
	// Returns a *domain.NotFoundError if there is none.
	LoadActive(ctx context.Context, tenantID, contact string) (*domain.FlowExecution, error)

	// Get returns an execution by id regardless of its status.
	Get(ctx context.Context, executionID string) (*domain.FlowExecution, error)

	// AppendStep merges vars, appends step and moves the cursor to nextBlockID.
	// The update applies only while the execution is active and its current
	// block is expectedBlockID; otherwise a *domain.ConflictError is returned.
	AppendStep(ctx context.Context, executionID, expectedBlockID string, step domain.FlowStep, vars map[string]any, nextBlockID string) (*domain.FlowExecution, error)

	// SetResumeAt records the wake-up time of a pending delay block.
	SetResumeAt(ctx context.Context, executionID, expectedBlockID string, at time.Time) (*domain.FlowExecution, error)

	// Finalize moves the execution into a terminal status. It is one-way and
	// idempotent: if the execution is already terminal it is returned unchanged
	// and changed is false.
	Finalize(ctx context.Context, executionID string, status domain.ExecutionStatus) (exec *domain.FlowExecution, changed bool, err error)
}

// ContactStatusStore reads and writes the conversation owner of a contact.
type ContactStatusStore interface {
	// Get returns the contact record or a *domain.NotFoundError.
	Get(ctx context.Context, tenantID, contact string) (*domain.ContactRecord, error)

	// Upsert creates or updates the record. Repeating the call is harmless.
	Upsert(ctx context.Context, tenantID, contact string, status domain.ContactStatus) error
}
