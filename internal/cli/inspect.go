package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/fluxo/internal/presentation/graph"
	"github.com/aretw0/fluxo/internal/validator"
	loamAdapter "github.com/aretw0/fluxo/pkg/adapters/loam"
)

// Validate lints every flow document under dir and prints the findings.
// It fails when any flow has error-severity issues.
func Validate(ctx context.Context, dir string, w io.Writer) error {
	repo, err := loamAdapter.Open(dir)
	if err != nil {
		return err
	}
	flows, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if len(flows) == 0 {
		return fmt.Errorf("no flows found in %s", dir)
	}

	failed := 0
	for _, flow := range flows {
		name := flow.ID
		if flow.TenantID != "" {
			name = flow.TenantID + "/" + flow.ID
		}
		issues := validator.ValidateFlow(flow)
		if len(issues) == 0 {
			fmt.Fprintf(w, "%s: ok\n", name)
			continue
		}
		for _, issue := range issues {
			fmt.Fprintf(w, "%s: %s\n", name, issue)
		}
		if validator.Err(issues) != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d flows are invalid", failed, len(flows))
	}
	return nil
}

// Graph prints the Mermaid diagram of a flow.
func Graph(ctx context.Context, dir, tenantID, flowID string, w io.Writer) error {
	repo, err := loamAdapter.Open(dir)
	if err != nil {
		return err
	}
	flow, err := repo.GetFlow(ctx, tenantID, flowID)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, graph.GenerateMermaid(flow, nil))
	return err
}
