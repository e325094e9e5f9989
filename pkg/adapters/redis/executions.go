package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/fluxo/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// ExecutionRepository implements ports.ExecutionRepository using Redis.
//
// Each execution is a JSON document. The active execution of a contact is
// tracked by a pointer key; every conditional update runs under WATCH so a
// concurrent writer makes the transaction fail instead of being overwritten.
type ExecutionRepository struct {
	client *backend.Client
	opts   options
}

// NewExecutionRepository creates a repository from an existing client.
func NewExecutionRepository(client *backend.Client, opts ...Option) *ExecutionRepository {
	return &ExecutionRepository{client: client, opts: newOptions(opts)}
}

func (r *ExecutionRepository) key(executionID string) string {
	return r.opts.prefix + "execution:" + executionID
}

func (r *ExecutionRepository) activeKey(tenantID, contact string) string {
	return r.opts.contactKey("active", tenantID, contact)
}

// Create stores a new active execution.
func (r *ExecutionRepository) Create(ctx context.Context, exec *domain.FlowExecution) error {
	data, err := json.Marshal(exec)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}

	activeKey := r.activeKey(exec.TenantID, exec.ContactAddress)
	conflict := func(id string) error {
		return &domain.ConflictError{
			TenantID:    exec.TenantID,
			Contact:     exec.ContactAddress,
			ExecutionID: id,
			Reason:      "an active execution already exists",
		}
	}

	err = r.client.Watch(ctx, func(tx *backend.Tx) error {
		id, err := tx.Get(ctx, activeKey).Result()
		if err == nil {
			return conflict(id)
		}
		if !errors.Is(err, backend.Nil) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, r.key(exec.ID), data, 0)
			pipe.Set(ctx, activeKey, exec.ID, 0)
			return nil
		})
		return err
	}, activeKey)

	if errors.Is(err, backend.TxFailedErr) {
		return conflict("")
	}
	if err != nil && !errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("failed to create execution: %w", err)
	}
	return err
}

// LoadActive returns the contact's active execution.
func (r *ExecutionRepository) LoadActive(ctx context.Context, tenantID, contact string) (*domain.FlowExecution, error) {
	id, err := r.client.Get(ctx, r.activeKey(tenantID, contact)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, &domain.NotFoundError{Resource: "execution", ID: tenantID + "/" + contact}
		}
		return nil, fmt.Errorf("failed to get active execution: %w", err)
	}
	return r.Get(ctx, id)
}

// Get returns an execution by id.
func (r *ExecutionRepository) Get(ctx context.Context, executionID string) (*domain.FlowExecution, error) {
	return r.read(ctx, r.client, executionID)
}

func (r *ExecutionRepository) read(ctx context.Context, c backend.Cmdable, executionID string) (*domain.FlowExecution, error) {
	val, err := c.Get(ctx, r.key(executionID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, &domain.NotFoundError{Resource: "execution", ID: executionID}
		}
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}

	var exec domain.FlowExecution
	if err := json.Unmarshal(val, &exec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution: %w", err)
	}
	return &exec, nil
}

// AppendStep applies a step when the execution is active at expectedBlockID.
func (r *ExecutionRepository) AppendStep(ctx context.Context, executionID, expectedBlockID string, step domain.FlowStep, vars map[string]any, nextBlockID string) (*domain.FlowExecution, error) {
	return r.update(ctx, executionID, func(exec *domain.FlowExecution) error {
		if err := exec.CheckCursor(expectedBlockID); err != nil {
			return err
		}
		exec.ApplyStep(step, vars, nextBlockID)
		return nil
	})
}

// SetResumeAt records the wake-up time of a parked execution.
func (r *ExecutionRepository) SetResumeAt(ctx context.Context, executionID, expectedBlockID string, at time.Time) (*domain.FlowExecution, error) {
	return r.update(ctx, executionID, func(exec *domain.FlowExecution) error {
		if err := exec.CheckCursor(expectedBlockID); err != nil {
			return err
		}
		exec.ResumeAt = &at
		return nil
	})
}

func (r *ExecutionRepository) update(ctx context.Context, executionID string, mutate func(*domain.FlowExecution) error) (*domain.FlowExecution, error) {
	key := r.key(executionID)
	var out *domain.FlowExecution

	err := r.client.Watch(ctx, func(tx *backend.Tx) error {
		exec, err := r.read(ctx, tx, executionID)
		if err != nil {
			return err
		}
		if err := mutate(exec); err != nil {
			return err
		}
		data, err := json.Marshal(exec)
		if err != nil {
			return fmt.Errorf("failed to marshal execution: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		out = exec
		return err
	}, key)

	if errors.Is(err, backend.TxFailedErr) {
		return nil, &domain.ConflictError{ExecutionID: executionID, Reason: "concurrent update"}
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Finalize moves the execution into a terminal status once and releases the
// contact's active pointer.
func (r *ExecutionRepository) Finalize(ctx context.Context, executionID string, status domain.ExecutionStatus) (*domain.FlowExecution, bool, error) {
	key := r.key(executionID)
	var (
		out     *domain.FlowExecution
		changed bool
	)

	err := r.client.Watch(ctx, func(tx *backend.Tx) error {
		exec, err := r.read(ctx, tx, executionID)
		if err != nil {
			return err
		}
		if !exec.Finish(status, r.opts.now()) {
			out = exec
			return nil
		}

		activeKey := r.activeKey(exec.TenantID, exec.ContactAddress)
		if err := tx.Watch(ctx, activeKey).Err(); err != nil {
			return err
		}
		current, err := tx.Get(ctx, activeKey).Result()
		if err != nil && !errors.Is(err, backend.Nil) {
			return err
		}

		data, err := json.Marshal(exec)
		if err != nil {
			return fmt.Errorf("failed to marshal execution: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, r.opts.ttl)
			if current == exec.ID {
				pipe.Del(ctx, activeKey)
			}
			return nil
		})
		out, changed = exec, true
		return err
	}, key)

	if errors.Is(err, backend.TxFailedErr) {
		// Lost against a concurrent writer; report whatever it stored.
		exec, getErr := r.Get(ctx, executionID)
		if getErr != nil {
			return nil, false, getErr
		}
		if exec.Status.Terminal() {
			return exec, false, nil
		}
		return nil, false, &domain.ConflictError{TenantID: exec.TenantID, Contact: exec.ContactAddress, ExecutionID: executionID, Reason: "concurrent update"}
	}
	if err != nil {
		return nil, false, err
	}
	return out, changed, nil
}
