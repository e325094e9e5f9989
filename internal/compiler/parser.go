package compiler

import (
	"errors"
	"fmt"

	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Parser converts flow documents into typed flow definitions.
// Documents may be JSON or YAML; YAML is read as a superset of JSON.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

type rawBlock struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

type rawFlow struct {
	ID           string        `json:"id"`
	TenantID     string        `json:"tenantId"`
	Name         string        `json:"name"`
	Active       *bool         `json:"active"`
	StartBlockID string        `json:"startBlockId"`
	Blocks       []rawBlock    `json:"blocks"`
	Edges        []domain.Edge `json:"edges"`
}

// Parse decodes and checks a flow document.
// A missing "active" flag defaults to true.
func (p *Parser) Parse(data []byte) (*domain.FlowDefinition, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse flow: %w", err)
	}
	return p.FromMap(doc)
}

// FromMap builds a flow from an already decoded document.
func (p *Parser) FromMap(doc map[string]any) (*domain.FlowDefinition, error) {
	if doc == nil {
		return nil, errors.New("empty flow document")
	}
	var raw rawFlow
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &raw,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, fmt.Errorf("invalid flow document: %w", err)
	}

	flow := &domain.FlowDefinition{
		ID:           raw.ID,
		TenantID:     raw.TenantID,
		Name:         raw.Name,
		Active:       raw.Active == nil || *raw.Active,
		StartBlockID: raw.StartBlockID,
		Edges:        raw.Edges,
	}
	for _, rb := range raw.Blocks {
		kind := domain.BlockKind(rb.Type)
		blockData, err := domain.DecodeBlockData(kind, rb.Data)
		if err != nil {
			return nil, fmt.Errorf("flow %s: block %s: %w", raw.ID, rb.ID, err)
		}
		flow.Blocks = append(flow.Blocks, domain.Block{ID: rb.ID, Kind: kind, Data: blockData})
	}
	if flow.StartBlockID == "" {
		for _, b := range flow.Blocks {
			if b.Kind == domain.KindStart {
				flow.StartBlockID = b.ID
				break
			}
		}
	}

	if err := Check(flow); err != nil {
		return nil, err
	}
	return flow, nil
}

// Check enforces the structural invariants of a flow: unique block ids, an
// existing start block, and every id referenced by an edge or inline data
// present in the block list. Block payloads are not validated here.
func Check(flow *domain.FlowDefinition) error {
	if flow.ID == "" {
		return errors.New("flow missing ID")
	}
	var errs []error
	ids := make(map[string]bool, len(flow.Blocks))
	for _, b := range flow.Blocks {
		if b.ID == "" {
			errs = append(errs, fmt.Errorf("block of type %s missing ID", b.Kind))
			continue
		}
		if ids[b.ID] {
			errs = append(errs, fmt.Errorf("duplicate block id %q", b.ID))
		}
		ids[b.ID] = true
	}

	if flow.StartBlockID == "" {
		errs = append(errs, errors.New("flow has no start block"))
	} else if !ids[flow.StartBlockID] {
		errs = append(errs, fmt.Errorf("start block %q not found", flow.StartBlockID))
	}

	for _, e := range flow.Edges {
		if !ids[e.Source] {
			errs = append(errs, fmt.Errorf("edge %s: source block %q not found", e.ID, e.Source))
		}
		if !ids[e.Target] {
			errs = append(errs, fmt.Errorf("edge %s: target block %q not found", e.ID, e.Target))
		}
	}
	for i := range flow.Blocks {
		for _, ref := range flow.Blocks[i].References() {
			if !ids[ref] {
				errs = append(errs, fmt.Errorf("block %s references missing block %q", flow.Blocks[i].ID, ref))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("flow %s is invalid: %w", flow.ID, errors.Join(errs...))
	}
	return nil
}
