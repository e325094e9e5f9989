package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/fluxo/pkg/domain"
)

// ContactStore implements ports.ContactStatusStore in memory.
type ContactStore struct {
	mu      sync.RWMutex
	records map[string]domain.ContactRecord
}

// NewContactStore creates an empty store.
func NewContactStore() *ContactStore {
	return &ContactStore{records: make(map[string]domain.ContactRecord)}
}

// Get returns the contact record.
func (s *ContactStore) Get(ctx context.Context, tenantID, contact string) (*domain.ContactRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[contactKey(tenantID, contact)]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "contact", ID: contactKey(tenantID, contact)}
	}
	return &rec, nil
}

// Upsert creates or updates the record.
func (s *ContactStore) Upsert(ctx context.Context, tenantID, contact string, status domain.ContactStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[contactKey(tenantID, contact)] = domain.ContactRecord{
		TenantID:  tenantID,
		Contact:   contact,
		Status:    status,
		UpdatedAt: time.Now(),
	}
	return nil
}

// Status returns the status of a contact, or "" when unknown.
func (s *ContactStore) Status(tenantID, contact string) domain.ContactStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[contactKey(tenantID, contact)].Status
}
