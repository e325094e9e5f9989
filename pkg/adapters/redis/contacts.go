package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/fluxo/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// ContactStore implements ports.ContactStatusStore using Redis.
type ContactStore struct {
	client *backend.Client
	opts   options
}

// NewContactStore creates a contact store from an existing client.
func NewContactStore(client *backend.Client, opts ...Option) *ContactStore {
	return &ContactStore{client: client, opts: newOptions(opts)}
}

// Get returns the contact record.
func (s *ContactStore) Get(ctx context.Context, tenantID, contact string) (*domain.ContactRecord, error) {
	val, err := s.client.Get(ctx, s.opts.contactKey("contact", tenantID, contact)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, &domain.NotFoundError{Resource: "contact", ID: tenantID + "/" + contact}
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	var rec domain.ContactRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contact: %w", err)
	}
	return &rec, nil
}

// Upsert creates or updates the record.
func (s *ContactStore) Upsert(ctx context.Context, tenantID, contact string, status domain.ContactStatus) error {
	data, err := json.Marshal(domain.ContactRecord{
		TenantID:  tenantID,
		Contact:   contact,
		Status:    status,
		UpdatedAt: s.opts.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal contact: %w", err)
	}
	if err := s.client.Set(ctx, s.opts.contactKey("contact", tenantID, contact), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save contact: %w", err)
	}
	return nil
}
