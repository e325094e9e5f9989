package memory

import (
	"context"
	"sync"

	"github.com/aretw0/fluxo/pkg/ports"
)

// ConversationLog implements ports.ConversationLog in memory.
type ConversationLog struct {
	mu      sync.Mutex
	records []ports.MessageRecord
	err     error
}

// NewConversationLog creates an empty log.
func NewConversationLog() *ConversationLog {
	return &ConversationLog{}
}

// FailWith makes every subsequent Append return err. Pass nil to recover.
func (l *ConversationLog) FailWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

// Append stores a record.
func (l *ConversationLog) Append(ctx context.Context, rec ports.MessageRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.records = append(l.records, rec)
	return nil
}

// Records returns the records of a contact in append order.
func (l *ConversationLog) Records(tenantID, contact string) []ports.MessageRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ports.MessageRecord
	for _, r := range l.records {
		if r.TenantID == tenantID && r.Contact == contact {
			out = append(out, r)
		}
	}
	return out
}
