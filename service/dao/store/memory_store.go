package store

import (
	"context"
	"sync"

	"github.com/viant/moderation/service/dao"
)

// MemoryStore is a generic in-memory implementation of dao.Conditional.
// It keeps entities of type T mapped by a comparable key K obtained from the
// supplied keySelector.  Values are copied on the way in and out so callers
// never share state with the store; conditional writes run under the store lock.
type MemoryStore[K comparable, T any] struct {
	mu          sync.RWMutex
	records     map[K]T
	keySelector func(*T) K
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore[K comparable, T any](keySelector func(*T) K) *MemoryStore[K, T] {
	return &MemoryStore[K, T]{
		records:     make(map[K]T),
		keySelector: keySelector,
	}
}

// Save stores or overwrites a record.
func (s *MemoryStore[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	var zero K
	if key == zero {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = *v
	return nil
}

// Insert stores a record only when its key is free.
func (s *MemoryStore[K, T]) Insert(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	var zero K
	if key == zero {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; ok {
		return dao.ErrExists
	}
	s.records[key] = *v
	return nil
}

// Load returns a copy of the record stored under key.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return &v, nil
}

// UpdateIf applies mutation to a copy and stores it when mutation succeeds.
func (s *MemoryStore[K, T]) UpdateIf(_ context.Context, key K, mutation dao.Mutation[T]) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	if err := mutation(&current); err != nil {
		return nil, err
	}
	s.records[key] = current
	updated := current
	return &updated, nil
}

// Delete removes a record; deleting a missing key is not an error.
func (s *MemoryStore[K, T]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// List returns copies of all stored records.  Filtering is left to callers.
func (s *MemoryStore[K, T]) List(_ context.Context, _ ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*T, 0, len(s.records))
	for _, v := range s.records {
		item := v
		out = append(out, &item)
	}
	return out, nil
}

var _ dao.Conditional[string, struct{}] = (*MemoryStore[string, struct{}])(nil)
