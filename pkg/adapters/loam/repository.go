// Package loam serves flow definitions from a loam document directory.
//
// Each flow is one JSON, YAML or Markdown-frontmatter document. A flow that
// belongs to a single tenant lives under a directory named after the tenant
// (acme/welcome.json); documents at the root are shared by every tenant.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/fluxo/internal/compiler"
	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/aretw0/loam"
)

// FlowRepository implements ports.FlowRepository on top of loam.
type FlowRepository struct {
	Repo   *loam.TypedRepository[FlowMetadata]
	parser *compiler.Parser
}

// New wraps an existing typed repository.
func New(repo *loam.TypedRepository[FlowMetadata]) *FlowRepository {
	return &FlowRepository{Repo: repo, parser: compiler.NewParser()}
}

// Open initializes a read-only loam repository at dir.
func Open(dir string) (*FlowRepository, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Read-only keeps loam from sandboxing the directory in dev mode.
	repo, err := loam.Init(absPath, loam.WithReadOnly(true))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[FlowMetadata](repo)), nil
}

// GetFlow looks the flow up in the tenant's directory first, then at the root.
func (r *FlowRepository) GetFlow(ctx context.Context, tenantID, flowID string) (*domain.FlowDefinition, error) {
	candidates := []string{flowID}
	if tenantID != "" {
		candidates = []string{tenantID + "/" + flowID, flowID}
	}

	for _, id := range candidates {
		doc, err := r.Repo.Get(ctx, id)
		if err != nil {
			continue
		}
		flow, err := r.compile(doc.ID, doc.Data)
		if err != nil {
			return nil, err
		}
		if flow.TenantID != "" && flow.TenantID != tenantID {
			continue
		}
		if !flow.Active {
			break
		}
		return flow, nil
	}
	return nil, &domain.NotFoundError{Resource: "flow", ID: flowID}
}

// List compiles every flow document in the directory.
func (r *FlowRepository) List(ctx context.Context) ([]*domain.FlowDefinition, error) {
	docs, err := r.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	flows := make([]*domain.FlowDefinition, 0, len(docs))
	for _, doc := range docs {
		flow, err := r.compile(doc.ID, doc.Data)
		if err != nil {
			return nil, err
		}
		key := flow.TenantID + "/" + flow.ID
		if existing, ok := seen[key]; ok {
			return nil, fmt.Errorf("collision detected: flow '%s' is defined in both '%s' and '%s'", flow.ID, existing, doc.ID)
		}
		seen[key] = doc.ID
		flows = append(flows, flow)
	}
	return flows, nil
}

func (r *FlowRepository) compile(docID string, meta FlowMetadata) (*domain.FlowDefinition, error) {
	if meta.ID == "" {
		meta.ID = filepath.Base(trimExtension(docID))
	}
	if meta.TenantID == "" {
		if dir := filepath.Dir(trimExtension(docID)); dir != "." && dir != "/" {
			meta.TenantID = filepath.ToSlash(dir)
		}
	}
	flow, err := r.parser.FromMap(meta.toMap())
	if err != nil {
		return nil, fmt.Errorf("flow document %s: %w", docID, err)
	}
	return flow, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
