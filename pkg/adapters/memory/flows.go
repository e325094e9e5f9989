package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/fluxo/pkg/domain"
)

// FlowRepository implements ports.FlowRepository using an in-memory map.
// A flow without TenantID is visible to every tenant.
type FlowRepository struct {
	mu    sync.RWMutex
	flows map[string]*domain.FlowDefinition
}

// NewFlowRepository creates a repository holding the given flows.
func NewFlowRepository(flows ...*domain.FlowDefinition) (*FlowRepository, error) {
	r := &FlowRepository{flows: make(map[string]*domain.FlowDefinition)}
	for _, f := range flows {
		if err := r.Put(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Put adds or replaces a flow.
func (r *FlowRepository) Put(flow *domain.FlowDefinition) error {
	if flow == nil || flow.ID == "" {
		return fmt.Errorf("flow missing ID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows[flowKey(flow.TenantID, flow.ID)] = flow
	return nil
}

// GetFlow returns the flow, or a NotFoundError when it is missing or inactive.
func (r *FlowRepository) GetFlow(ctx context.Context, tenantID, flowID string) (*domain.FlowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	flow, ok := r.flows[flowKey(tenantID, flowID)]
	if !ok {
		flow, ok = r.flows[flowKey("", flowID)]
	}
	if !ok || !flow.Active {
		return nil, &domain.NotFoundError{Resource: "flow", ID: flowID}
	}
	return flow, nil
}

// List returns every stored flow.
func (r *FlowRepository) List() []*domain.FlowDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.FlowDefinition, 0, len(r.flows))
	for _, f := range r.flows {
		out = append(out, f)
	}
	return out
}

func flowKey(tenantID, flowID string) string {
	return tenantID + "/" + flowID
}
