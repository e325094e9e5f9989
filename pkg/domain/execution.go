package domain

import (
	"maps"
	"time"
)

// ExecutionStatus is the lifecycle state of a flow execution.
type ExecutionStatus string

const (
	StatusActive           ExecutionStatus = "active"
	StatusCompleted        ExecutionStatus = "completed"
	StatusTransferredAI    ExecutionStatus = "transferred_ai"
	StatusTransferredHuman ExecutionStatus = "transferred_human"
)

// Terminal reports whether the status is final.
func (s ExecutionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusTransferredAI || s == StatusTransferredHuman
}

// FlowStep is one entry of the append-only execution history.
type FlowStep struct {
	BlockID               string    `json:"blockId"`
	BlockType             BlockKind `json:"blockType"`
	ExecutedAt            time.Time `json:"executedAt"`
	UserResponse          string    `json:"userResponse,omitempty"`
	InteractiveResponseID string    `json:"interactiveResponseId,omitempty"`
	NextBlockID           string    `json:"nextBlockId,omitempty"`
}

// Response returns the most specific response recorded on the step.
func (s FlowStep) Response() string {
	if s.UserResponse != "" {
		return s.UserResponse
	}
	return s.InteractiveResponseID
}

// FlowExecution is the persisted state of a flow running for one contact.
// Once Status leaves StatusActive the record is immutable.
type FlowExecution struct {
	ID             string          `json:"id"`
	FlowID         string          `json:"flowId"`
	TenantID       string          `json:"tenantId"`
	ContactAddress string          `json:"contactAddress"`
	CurrentBlockID string          `json:"currentBlockId"`
	Variables      map[string]any  `json:"variables"`
	History        []FlowStep      `json:"history"`
	Status         ExecutionStatus `json:"status"`
	StartedAt      time.Time       `json:"startedAt"`
	LastStepAt     time.Time       `json:"lastStepAt"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`

	// ResumeAt is set while a delay block waits for its wake-up.
	ResumeAt *time.Time `json:"resumeAt,omitempty"`
}

// NewExecution creates an active execution positioned at the flow's start block.
func NewExecution(id string, flow *FlowDefinition, tenantID, contact string, now time.Time) *FlowExecution {
	return &FlowExecution{
		ID:             id,
		FlowID:         flow.ID,
		TenantID:       tenantID,
		ContactAddress: contact,
		CurrentBlockID: flow.StartBlockID,
		Variables:      make(map[string]any),
		History:        []FlowStep{},
		Status:         StatusActive,
		StartedAt:      now,
		LastStepAt:     now,
	}
}

// Clone returns a copy safe for independent mutation.
func (e *FlowExecution) Clone() *FlowExecution {
	if e == nil {
		return nil
	}
	out := *e
	out.Variables = make(map[string]any, len(e.Variables))
	maps.Copy(out.Variables, e.Variables)
	out.History = append([]FlowStep(nil), e.History...)
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		out.CompletedAt = &t
	}
	if e.ResumeAt != nil {
		t := *e.ResumeAt
		out.ResumeAt = &t
	}
	return &out
}

// ApplyStep merges variables (last write wins), appends the step and moves the cursor.
func (e *FlowExecution) ApplyStep(step FlowStep, vars map[string]any, nextBlockID string) {
	if e.Variables == nil {
		e.Variables = make(map[string]any)
	}
	maps.Copy(e.Variables, vars)
	e.History = append(e.History, step)
	e.CurrentBlockID = nextBlockID
	e.LastStepAt = step.ExecutedAt
	e.ResumeAt = nil
}

// CheckCursor returns a *ConflictError unless the execution is active at blockID.
func (e *FlowExecution) CheckCursor(blockID string) error {
	if e.Status != StatusActive {
		return &ConflictError{TenantID: e.TenantID, Contact: e.ContactAddress, ExecutionID: e.ID, Reason: "execution is " + string(e.Status)}
	}
	if e.CurrentBlockID != blockID {
		return &ConflictError{TenantID: e.TenantID, Contact: e.ContactAddress, ExecutionID: e.ID, Reason: "execution moved to block " + e.CurrentBlockID}
	}
	return nil
}

// Finish moves the execution into a terminal status.
// It reports false when the execution was already terminal, leaving it untouched.
func (e *FlowExecution) Finish(status ExecutionStatus, now time.Time) bool {
	if e.Status.Terminal() {
		return false
	}
	e.Status = status
	e.CompletedAt = &now
	e.LastStepAt = now
	e.ResumeAt = nil
	return true
}

// LastResponse returns the most recent user or interactive response in the history.
func (e *FlowExecution) LastResponse() string {
	for i := len(e.History) - 1; i >= 0; i-- {
		if r := e.History[i].Response(); r != "" {
			return r
		}
	}
	return ""
}

// LastUtterance returns the most recent free text the contact typed or selected.
func (e *FlowExecution) LastUtterance() string {
	for i := len(e.History) - 1; i >= 0; i-- {
		if e.History[i].UserResponse != "" {
			return e.History[i].UserResponse
		}
	}
	return ""
}

// ContactStatus records who currently owns the conversation with a contact.
type ContactStatus string

const (
	ContactInFlow      ContactStatus = "fluxo_inicial"
	ContactBot         ContactStatus = "bot"
	ContactHuman       ContactStatus = "humano"
	ContactTransferred ContactStatus = "transferido"
)

// ContactRecord is the status record kept per (tenant, contact).
type ContactRecord struct {
	TenantID  string        `json:"tenantId"`
	Contact   string        `json:"contact"`
	Status    ContactStatus `json:"status"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
