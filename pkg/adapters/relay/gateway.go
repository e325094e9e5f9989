package relay

import (
	"context"

	"github.com/aretw0/fluxo/pkg/ports"
)

// Gateway implements ports.MessagingGateway by posting each message to a
// channel relay endpoint.
type Gateway struct {
	client
	url string
}

// NewGateway creates a gateway posting to url. token, when set, is sent as a bearer token.
func NewGateway(caller ports.WebhookCaller, url, token string) *Gateway {
	return &Gateway{client: client{caller: caller, token: token}, url: url}
}

type outbound struct {
	TenantID   string                    `json:"tenantId"`
	Contact    string                    `json:"contact"`
	Type       string                    `json:"type"`
	Text       string                    `json:"text"`
	ButtonText string                    `json:"buttonText,omitempty"`
	Buttons    []ports.ButtonOption      `json:"buttons,omitempty"`
	Sections   []ports.ListSectionOption `json:"sections,omitempty"`
}

func (g *Gateway) send(ctx context.Context, msg outbound) (string, error) {
	resp, err := g.post(ctx, g.url, msg)
	if err != nil {
		return "", err
	}
	return messageID(resp.Body), nil
}

func (g *Gateway) SendText(ctx context.Context, tenantID, contact, text string) (string, error) {
	return g.send(ctx, outbound{TenantID: tenantID, Contact: contact, Type: "text", Text: text})
}

func (g *Gateway) SendButtons(ctx context.Context, tenantID, contact, body string, buttons []ports.ButtonOption) (string, error) {
	return g.send(ctx, outbound{TenantID: tenantID, Contact: contact, Type: "buttons", Text: body, Buttons: buttons})
}

func (g *Gateway) SendList(ctx context.Context, tenantID, contact, body, buttonText string, sections []ports.ListSectionOption) (string, error) {
	return g.send(ctx, outbound{TenantID: tenantID, Contact: contact, Type: "list", Text: body, ButtonText: buttonText, Sections: sections})
}
