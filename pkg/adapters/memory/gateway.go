package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/fluxo/pkg/ports"
)

// SentMessage is a message captured by the Gateway.
type SentMessage struct {
	ID         string
	TenantID   string
	Contact    string
	Kind       string // "text", "buttons", "list"
	Text       string
	ButtonText string
	Buttons    []ports.ButtonOption
	Sections   []ports.ListSectionOption
}

// Gateway is a recording ports.MessagingGateway.
type Gateway struct {
	mu   sync.Mutex
	sent []SentMessage
	err  error
	seq  int
}

// NewGateway creates an empty recording gateway.
func NewGateway() *Gateway {
	return &Gateway{}
}

// FailWith makes every subsequent send return err. Pass nil to recover.
func (g *Gateway) FailWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// Sent returns a copy of every captured message.
func (g *Gateway) Sent() []SentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]SentMessage(nil), g.sent...)
}

func (g *Gateway) push(m SentMessage) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	g.seq++
	m.ID = fmt.Sprintf("msg-%d", g.seq)
	g.sent = append(g.sent, m)
	return m.ID, nil
}

func (g *Gateway) SendText(ctx context.Context, tenantID, contact, text string) (string, error) {
	return g.push(SentMessage{TenantID: tenantID, Contact: contact, Kind: "text", Text: text})
}

func (g *Gateway) SendButtons(ctx context.Context, tenantID, contact, body string, buttons []ports.ButtonOption) (string, error) {
	return g.push(SentMessage{TenantID: tenantID, Contact: contact, Kind: "buttons", Text: body, Buttons: buttons})
}

func (g *Gateway) SendList(ctx context.Context, tenantID, contact, body, buttonText string, sections []ports.ListSectionOption) (string, error) {
	return g.push(SentMessage{TenantID: tenantID, Contact: contact, Kind: "list", Text: body, ButtonText: buttonText, Sections: sections})
}
