// Package relay implements the engine's outbound collaborators as JSON
// calls to HTTP endpoints: the messaging gateway, the AI trigger and the
// agent notifier used by `fluxo serve`.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/fluxo/pkg/ports"
	"github.com/tidwall/gjson"
)

// ErrStatus is returned for non-2xx responses.
var ErrStatus = errors.New("unexpected status")

// messageIDPaths are the gjson paths tried, in order, to find the provider id.
var messageIDPaths = []string{"messageId", "id", "messages.0.id", "key.id"}

type client struct {
	caller ports.WebhookCaller
	token  string
}

func (c *client) post(ctx context.Context, url string, payload any) (*ports.WebhookResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	headers := map[string]string{"Content-Type": "application/json"}
	if c.token != "" {
		headers["Authorization"] = "Bearer " + c.token
	}

	resp, err := c.caller.Call(ctx, ports.WebhookRequest{
		URL:     url,
		Method:  http.MethodPost,
		Headers: headers,
		Body:    string(body),
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(resp.Body, "error.message")
		if !msg.Exists() {
			msg = gjson.GetBytes(resp.Body, "message")
		}
		if msg.Exists() {
			return resp, fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, msg.String())
		}
		return resp, fmt.Errorf("%w %d", ErrStatus, resp.StatusCode)
	}
	return resp, nil
}

func messageID(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, p := range messageIDPaths {
		if r := gjson.GetBytes(body, p); r.Exists() && r.String() != "" {
			return r.String()
		}
	}
	return ""
}
