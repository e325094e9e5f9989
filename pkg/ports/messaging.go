package ports

import (
	"context"
	"time"
)

// ButtonOption is a reply button as sent to the channel.
type ButtonOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ListRowOption is a list row as sent to the channel.
type ListRowOption struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ListSectionOption groups list rows.
type ListSectionOption struct {
	Title string          `json:"title,omitempty"`
	Rows  []ListRowOption `json:"rows"`
}

// MessagingGateway sends messages through the contact's channel.
// Every method returns the provider message id.
type MessagingGateway interface {
	SendText(ctx context.Context, tenantID, contact, text string) (string, error)
	SendButtons(ctx context.Context, tenantID, contact, body string, buttons []ButtonOption) (string, error)
	SendList(ctx context.Context, tenantID, contact, body, buttonText string, sections []ListSectionOption) (string, error)
}

// Direction of a logged message.
type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
)

// MessageRecord is one entry of the conversation log.
type MessageRecord struct {
	TenantID          string    `json:"tenantId"`
	Contact           string    `json:"contact"`
	ExecutionID       string    `json:"executionId,omitempty"`
	Direction         Direction `json:"direction"`
	Kind              string    `json:"kind"` // "text", "buttons", "list", "interactive_reply"
	Text              string    `json:"text"`
	InteractiveID     string    `json:"interactiveId,omitempty"`
	ProviderMessageID string    `json:"providerMessageId,omitempty"`
	At                time.Time `json:"at"`
}

// ConversationLog is an append-only sink of inbound and outbound messages.
type ConversationLog interface {
	Append(ctx context.Context, rec MessageRecord) error
}
