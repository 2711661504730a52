package memory

import (
	"context"
	"sync"

	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore is an in-memory implementation of driven.IndexStore.
type IndexStore struct {
	mu    sync.RWMutex
	index *domain.RagIndex
}

// NewIndexStore creates a new in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

// SaveIndex replaces the stored index.
func (s *IndexStore) SaveIndex(_ context.Context, index *domain.RagIndex) error {
	if index == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = index
	return nil
}

// LoadIndex returns the stored index.
// RagIndex is immutable, so the same pointer is shared with every caller.
func (s *IndexStore) LoadIndex(_ context.Context) (*domain.RagIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return nil, domain.ErrNotFound
	}
	return s.index, nil
}
