package dsl

import (
	"fmt"

	"github.com/aretw0/fluxo/internal/compiler"
	"github.com/aretw0/fluxo/pkg/domain"
)

// Builder manages the flow construction.
type Builder struct {
	flow   domain.FlowDefinition
	blocks []*BlockBuilder
	index  map[string]*BlockBuilder
}

// New creates a new flow builder. Flows are active by default.
func New(flowID string) *Builder {
	return &Builder{
		flow:  domain.FlowDefinition{ID: flowID, Active: true},
		index: make(map[string]*BlockBuilder),
	}
}

// Tenant scopes the flow to a tenant.
func (b *Builder) Tenant(tenantID string) *Builder {
	b.flow.TenantID = tenantID
	return b
}

// Name sets the display name.
func (b *Builder) Name(name string) *Builder {
	b.flow.Name = name
	return b
}

// Inactive marks the flow as not startable.
func (b *Builder) Inactive() *Builder {
	b.flow.Active = false
	return b
}

// StartAt overrides the start block (default: the first start block added).
func (b *Builder) StartAt(blockID string) *Builder {
	b.flow.StartBlockID = blockID
	return b
}

// Add creates a block with the given payload.
// If the block already exists, its payload is replaced.
func (b *Builder) Add(id string, data domain.BlockData) *BlockBuilder {
	if bb, ok := b.index[id]; ok {
		bb.block.Kind = data.Kind()
		bb.block.Data = data
		return bb
	}
	bb := &BlockBuilder{
		block:   domain.Block{ID: id, Kind: data.Kind(), Data: data},
		builder: b,
	}
	b.blocks = append(b.blocks, bb)
	b.index[id] = bb
	if data.Kind() == domain.KindStart && b.flow.StartBlockID == "" {
		b.flow.StartBlockID = id
	}
	return bb
}

func (b *Builder) Start(id string) *BlockBuilder {
	return b.Add(id, &domain.StartData{})
}

func (b *Builder) Message(id, text string) *BlockBuilder {
	return b.Add(id, &domain.MessageData{Text: text})
}

func (b *Builder) Buttons(id, body string, buttons ...domain.Button) *BlockBuilder {
	return b.Add(id, &domain.ButtonsData{Body: body, Buttons: buttons})
}

func (b *Builder) List(id, body, buttonText string, sections ...domain.ListSection) *BlockBuilder {
	return b.Add(id, &domain.ListData{Body: body, ButtonText: buttonText, Sections: sections})
}

// Condition adds a branching block. Pass "" as defaultNext for none.
func (b *Builder) Condition(id, defaultNext string, conditions ...domain.Condition) *BlockBuilder {
	return b.Add(id, &domain.ConditionData{Conditions: conditions, DefaultNextBlockID: defaultNext})
}

func (b *Builder) Action(id string, ops ...domain.VariableOperation) *BlockBuilder {
	return b.Add(id, &domain.ActionData{Operations: ops})
}

func (b *Builder) Delay(id string, seconds int) *BlockBuilder {
	return b.Add(id, &domain.DelayData{Seconds: seconds})
}

func (b *Builder) Webhook(id string, data domain.WebhookData) *BlockBuilder {
	return b.Add(id, &data)
}

func (b *Builder) AIHandoff(id string, data domain.AIHandoffData) *BlockBuilder {
	return b.Add(id, &data)
}

func (b *Builder) HumanHandoff(id string, data domain.HumanHandoffData) *BlockBuilder {
	return b.Add(id, &data)
}

func (b *Builder) End(id, message string) *BlockBuilder {
	return b.Add(id, &domain.EndData{Message: message})
}

// Build compiles the flow and checks its structure.
func (b *Builder) Build() (*domain.FlowDefinition, error) {
	flow := b.flow
	flow.Blocks = make([]domain.Block, 0, len(b.blocks))
	flow.Edges = nil
	for _, bb := range b.blocks {
		flow.Blocks = append(flow.Blocks, bb.block)
	}
	n := 0
	for _, bb := range b.blocks {
		for _, e := range bb.edges {
			n++
			if e.ID == "" {
				e.ID = fmt.Sprintf("e%d", n)
			}
			flow.Edges = append(flow.Edges, e)
		}
	}

	if err := compiler.Check(&flow); err != nil {
		return nil, fmt.Errorf("failed to build flow: %w", err)
	}
	return &flow, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *domain.FlowDefinition {
	flow, err := b.Build()
	if err != nil {
		panic(err)
	}
	return flow
}
