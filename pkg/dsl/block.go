package dsl

import "github.com/aretw0/fluxo/pkg/domain"

// BlockBuilder provides a fluent API for wiring a block.
type BlockBuilder struct {
	block   domain.Block
	edges   []domain.Edge
	builder *Builder
}

// Go adds an unconditional edge to the target block.
func (n *BlockBuilder) Go(target string) *BlockBuilder {
	n.edges = append(n.edges, domain.Edge{Source: n.block.ID, Target: target})
	return n
}

// On adds an edge taken when the reply selects the option with the given id.
func (n *BlockBuilder) On(handle, target string) *BlockBuilder {
	n.edges = append(n.edges, domain.Edge{Source: n.block.ID, Target: target, SourceHandle: handle})
	return n
}

// SaveAs stores the selected option title (or free text) into a variable.
// It only applies to interactive blocks.
func (n *BlockBuilder) SaveAs(variable string) *BlockBuilder {
	switch d := n.block.Data.(type) {
	case *domain.ButtonsData:
		d.SaveAs = variable
	case *domain.ListData:
		d.SaveAs = variable
	}
	return n
}

// Footer sets the footer of a buttons block.
func (n *BlockBuilder) Footer(text string) *BlockBuilder {
	if d, ok := n.block.Data.(*domain.ButtonsData); ok {
		d.Footer = text
	}
	return n
}

// Block returns the underlying domain.Block.
func (n *BlockBuilder) Block() domain.Block {
	return n.block
}
