package domain

// Operator compares a variable against a condition value.
type Operator string

const (
	OpEqual       Operator = "=="
	OpNotEqual    Operator = "!="
	OpGreater     Operator = ">"
	OpLess        Operator = "<"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
)

// Valid reports whether the operator is supported.
func (o Operator) Valid() bool {
	switch o {
	case OpEqual, OpNotEqual, OpGreater, OpLess, OpContains, OpNotContains:
		return true
	}
	return false
}

// Condition is one ordered test of a condition block.
type Condition struct {
	Variable    string   `json:"variable"`
	Operator    Operator `json:"operator"`
	Value       any      `json:"value"`
	NextBlockID string   `json:"nextBlockId"`
}

// Edge is a directed connection between two blocks.
// SourceHandle disambiguates the exits of response-driven blocks
// (one handle per button or list row id).
type Edge struct {
	ID           string `json:"id,omitempty" mapstructure:"id"`
	Source       string `json:"source" mapstructure:"source"`
	Target       string `json:"target" mapstructure:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" mapstructure:"sourceHandle"`
}

// FlowDefinition is an authored flow graph. The engine never mutates it.
type FlowDefinition struct {
	ID           string  `json:"id"`
	TenantID     string  `json:"tenantId,omitempty"`
	Name         string  `json:"name,omitempty"`
	Active       bool    `json:"active"`
	StartBlockID string  `json:"startBlockId"`
	Blocks       []Block `json:"blocks"`
	Edges        []Edge  `json:"edges"`
}

// Block returns the block with the given id.
func (f *FlowDefinition) Block(id string) (*Block, bool) {
	for i := range f.Blocks {
		if f.Blocks[i].ID == id {
			return &f.Blocks[i], true
		}
	}
	return nil, false
}

// OutgoingEdges returns the edges leaving a block, in authoring order.
func (f *FlowDefinition) OutgoingEdges(blockID string) []Edge {
	var out []Edge
	for _, e := range f.Edges {
		if e.Source == blockID {
			out = append(out, e)
		}
	}
	return out
}

// References lists every block id a block points at through inline data.
func (b *Block) References() []string {
	var refs []string
	add := func(id string) {
		if id != "" {
			refs = append(refs, id)
		}
	}
	switch d := b.Data.(type) {
	case *ButtonsData:
		for _, btn := range d.Buttons {
			add(btn.NextBlockID)
		}
	case *ListData:
		for _, row := range d.Rows() {
			add(row.NextBlockID)
		}
	case *ConditionData:
		for _, c := range d.Conditions {
			add(c.NextBlockID)
		}
		add(d.DefaultNextBlockID)
	}
	return refs
}
