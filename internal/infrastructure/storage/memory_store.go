package storage

import (
	"context"
	"sync"

	"github.com/skubridge/backend/internal/domain/mapping"
)

// Ensure InMemoryMappingStore implements mapping.Store
var _ mapping.Store = (*InMemoryMappingStore)(nil)

// InMemoryMappingStore keeps the mapping table in process memory. Use
// this for development until object storage credentials are configured;
// the table is lost on restart.
type InMemoryMappingStore struct {
	mu    sync.RWMutex
	table *mapping.Table
}

// NewInMemoryMappingStore creates an empty in-memory store
func NewInMemoryMappingStore() *InMemoryMappingStore {
	return &InMemoryMappingStore{}
}

// Load returns the stored table, or mapping.ErrTableNotFound before the
// first Save.
func (s *InMemoryMappingStore) Load(ctx context.Context) (*mapping.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.table == nil {
		return nil, mapping.ErrTableNotFound
	}
	return s.table, nil
}

// Save replaces the stored table
func (s *InMemoryMappingStore) Save(ctx context.Context, table *mapping.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = table
	return nil
}
