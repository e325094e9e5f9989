package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/fluxo/pkg/domain"
	"github.com/aretw0/fluxo/pkg/ports"
	"github.com/tidwall/gjson"
)

var errNoWebhookCaller = errors.New("no webhook caller configured")

// callWebhook performs the outbound call of a webhook block and returns the
// variables extracted from the response. Failures never stop the flow.
func (e *Engine) callWebhook(ctx context.Context, r *run, block *domain.Block, d *domain.WebhookData) map[string]any {
	if e.webhooks == nil {
		e.warn(ctx, r, &domain.CollaboratorError{Collaborator: "webhook", Operation: "call", Err: errNoWebhookCaller})
		return nil
	}

	method := strings.ToUpper(strings.TrimSpace(d.Method))
	if method == "" {
		method = http.MethodPost
	}
	headers := make(map[string]string, len(d.Headers))
	for k, v := range d.Headers {
		headers[k] = e.render(ctx, r, v)
	}
	req := ports.WebhookRequest{
		URL:     e.render(ctx, r, d.URL),
		Method:  method,
		Headers: headers,
		Body:    e.render(ctx, r, d.Body),
	}

	resp, err := e.webhooks.Call(ctx, req)
	if err != nil {
		e.warn(ctx, r, &domain.CollaboratorError{Collaborator: "webhook", Operation: "call", Err: fmt.Errorf("%s %s: %w", method, req.URL, err)})
		return nil
	}

	e.logger.InfoContext(ctx, "webhook called",
		"execution_id", r.exec.ID,
		"block_id", block.ID,
		"method", method,
		"status", resp.StatusCode,
		"duration", resp.Duration,
	)

	vars := make(map[string]any)
	if d.StatusVariable != "" {
		vars[d.StatusVariable] = resp.StatusCode
	}
	if len(d.SaveResponse) > 0 && gjson.ValidBytes(resp.Body) {
		for name, path := range d.SaveResponse {
			if res := gjson.GetBytes(resp.Body, path); res.Exists() {
				vars[name] = res.Value()
			}
		}
	}
	return vars
}
