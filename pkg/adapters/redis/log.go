package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/fluxo/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// ConversationLog implements ports.ConversationLog as one Redis list per contact.
type ConversationLog struct {
	client *backend.Client
	opts   options
}

// NewConversationLog creates a conversation log from an existing client.
func NewConversationLog(client *backend.Client, opts ...Option) *ConversationLog {
	return &ConversationLog{client: client, opts: newOptions(opts)}
}

func (l *ConversationLog) key(tenantID, contact string) string {
	return l.opts.contactKey("log", tenantID, contact)
}

// Append pushes a record to the contact's list.
func (l *ConversationLog) Append(ctx context.Context, rec ports.MessageRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal message record: %w", err)
	}

	key := l.key(rec.TenantID, rec.Contact)
	pipe := l.client.Pipeline()
	pipe.RPush(ctx, key, data)
	if l.opts.maxLog > 0 {
		pipe.LTrim(ctx, key, -l.opts.maxLog, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append message record: %w", err)
	}
	return nil
}

// Records returns the stored records of a contact, oldest first.
func (l *ConversationLog) Records(ctx context.Context, tenantID, contact string) ([]ports.MessageRecord, error) {
	vals, err := l.client.LRange(ctx, l.key(tenantID, contact), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read message records: %w", err)
	}

	out := make([]ports.MessageRecord, 0, len(vals))
	for _, v := range vals {
		var rec ports.MessageRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
