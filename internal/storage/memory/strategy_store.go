package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/storage"
)

// StrategyStore is an in-memory implementation of storage.StrategyStore.
type StrategyStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SavedStrategy // keyed by name
}

// NewStrategyStore creates a new in-memory strategy store.
func NewStrategyStore() *StrategyStore {
	return &StrategyStore{data: make(map[string]*domain.SavedStrategy)}
}

// Compile-time interface check.
var _ storage.StrategyStore = (*StrategyStore)(nil)

// Insert adds a new strategy. Returns ErrDuplicateKey if the name is
// already taken.
func (s *StrategyStore) Insert(_ context.Context, st *domain.SavedStrategy) error {
	if st == nil || st.Name == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[st.Name]; exists {
		return storage.ErrDuplicateKey
	}
	stCopy := *st
	s.data[st.Name] = &stCopy
	return nil
}

// GetByName retrieves a strategy by name.
func (s *StrategyStore) GetByName(_ context.Context, name string) (*domain.SavedStrategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: strategy %s", storage.ErrNotFound, name)
	}
	stCopy := *st
	return &stCopy, nil
}

// List retrieves all strategies ordered by name ASC.
func (s *StrategyStore) List(_ context.Context) ([]*domain.SavedStrategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SavedStrategy, 0, len(s.data))
	for _, st := range s.data {
		stCopy := *st
		result = append(result, &stCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// Delete removes a strategy by name.
func (s *StrategyStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[name]; !ok {
		return fmt.Errorf("%w: strategy %s", storage.ErrNotFound, name)
	}
	delete(s.data, name)
	return nil
}
