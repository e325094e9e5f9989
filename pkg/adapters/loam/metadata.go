package loam

// FlowMetadata is the document shape of a flow stored in a loam directory.
// Block and edge payloads stay untyped here; the compiler decodes them.
type FlowMetadata struct {
	ID           string           `json:"id" mapstructure:"id"`
	TenantID     string           `json:"tenantId,omitempty" mapstructure:"tenantId"`
	Name         string           `json:"name,omitempty" mapstructure:"name"`
	Active       *bool            `json:"active,omitempty" mapstructure:"active"`
	StartBlockID string           `json:"startBlockId,omitempty" mapstructure:"startBlockId"`
	Blocks       []map[string]any `json:"blocks" mapstructure:"blocks"`
	Edges        []map[string]any `json:"edges" mapstructure:"edges"`
}

func (m FlowMetadata) toMap() map[string]any {
	doc := map[string]any{
		"id":           m.ID,
		"tenantId":     m.TenantID,
		"name":         m.Name,
		"startBlockId": m.StartBlockID,
	}
	if m.Active != nil {
		doc["active"] = *m.Active
	}
	blocks := make([]any, len(m.Blocks))
	for i, b := range m.Blocks {
		blocks[i] = b
	}
	doc["blocks"] = blocks
	edges := make([]any, len(m.Edges))
	for i, e := range m.Edges {
		edges[i] = e
	}
	doc["edges"] = edges
	return doc
}
