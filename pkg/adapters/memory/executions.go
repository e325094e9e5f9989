package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/fluxo/pkg/domain"
)

// ExecutionRepository implements ports.ExecutionRepository in memory.
// Every operation holds a single mutex, so conditional updates are atomic.
type ExecutionRepository struct {
	mu     sync.Mutex
	data   map[string]*domain.FlowExecution
	active map[string]string // tenant/contact -> execution id
	now    func() time.Time
}

// NewExecutionRepository creates an empty repository.
func NewExecutionRepository() *ExecutionRepository {
	return &ExecutionRepository{
		data:   make(map[string]*domain.FlowExecution),
		active: make(map[string]string),
		now:    time.Now,
	}
}

// WithClock overrides the clock used to stamp CompletedAt.
func (r *ExecutionRepository) WithClock(now func() time.Time) *ExecutionRepository {
	r.now = now
	return r
}

func contactKey(tenantID, contact string) string {
	return tenantID + "/" + contact
}

// Create stores a new active execution.
func (r *ExecutionRepository) Create(ctx context.Context, exec *domain.FlowExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := contactKey(exec.TenantID, exec.ContactAddress)
	if id, ok := r.active[key]; ok {
		return &domain.ConflictError{
			TenantID:    exec.TenantID,
			Contact:     exec.ContactAddress,
			ExecutionID: id,
			Reason:      "an active execution already exists",
		}
	}
	r.data[exec.ID] = exec.Clone()
	r.active[key] = exec.ID
	return nil
}

// LoadActive returns the contact's active execution.
func (r *ExecutionRepository) LoadActive(ctx context.Context, tenantID, contact string) (*domain.FlowExecution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.active[contactKey(tenantID, contact)]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "execution", ID: contactKey(tenantID, contact)}
	}
	return r.data[id].Clone(), nil
}

// Get returns an execution by id.
func (r *ExecutionRepository) Get(ctx context.Context, executionID string) (*domain.FlowExecution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exec, ok := r.data[executionID]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "execution", ID: executionID}
	}
	return exec.Clone(), nil
}

// AppendStep applies a step when the execution is active at expectedBlockID.
func (r *ExecutionRepository) AppendStep(ctx context.Context, executionID, expectedBlockID string, step domain.FlowStep, vars map[string]any, nextBlockID string) (*domain.FlowExecution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exec, err := r.expect(executionID, expectedBlockID)
	if err != nil {
		return nil, err
	}
	exec.ApplyStep(step, vars, nextBlockID)
	return exec.Clone(), nil
}

// SetResumeAt records the wake-up time of a parked execution.
func (r *ExecutionRepository) SetResumeAt(ctx context.Context, executionID, expectedBlockID string, at time.Time) (*domain.FlowExecution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exec, err := r.expect(executionID, expectedBlockID)
	if err != nil {
		return nil, err
	}
	exec.ResumeAt = &at
	return exec.Clone(), nil
}

// Finalize moves the execution into a terminal status once.
func (r *ExecutionRepository) Finalize(ctx context.Context, executionID string, status domain.ExecutionStatus) (*domain.FlowExecution, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exec, ok := r.data[executionID]
	if !ok {
		return nil, false, &domain.NotFoundError{Resource: "execution", ID: executionID}
	}
	if !exec.Finish(status, r.now()) {
		return exec.Clone(), false, nil
	}
	key := contactKey(exec.TenantID, exec.ContactAddress)
	if r.active[key] == exec.ID {
		delete(r.active, key)
	}
	return exec.Clone(), true, nil
}

// expect must be called with the mutex held.
func (r *ExecutionRepository) expect(executionID, expectedBlockID string) (*domain.FlowExecution, error) {
	exec, ok := r.data[executionID]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "execution", ID: executionID}
	}
	if err := exec.CheckCursor(expectedBlockID); err != nil {
		return nil, err
	}
	return exec, nil
}
