package store

import (
	"context"
	"sync"

	"github.com/procwise/procwise/service/dao"
)

// MemoryStore is a generic in-memory implementation of dao.Service. It keeps
// entities of type *T mapped by a comparable key K obtained from the supplied
// keySelector function.
//
// The store hands out clones when a cloner is configured so callers can never
// mutate persisted state behind the store's back; higher-level services rely
// on that for the all-or-nothing semantics of engine operations.
type MemoryStore[K comparable, T any] struct {
	mu          sync.RWMutex
	records     map[K]*T
	keySelector func(*T) K
	cloner      func(*T) *T
	matcher     func(*T, []*dao.Parameter) bool
}

// Option configures a MemoryStore.
type Option[K comparable, T any] func(*MemoryStore[K, T])

// WithCloner sets the copy function applied on Save, Load and List.
func WithCloner[K comparable, T any](cloner func(*T) *T) Option[K, T] {
	return func(s *MemoryStore[K, T]) { s.cloner = cloner }
}

// WithMatcher sets the List filter predicate.
func WithMatcher[K comparable, T any](matcher func(*T, []*dao.Parameter) bool) Option[K, T] {
	return func(s *MemoryStore[K, T]) { s.matcher = matcher }
}

// NewMemoryStore creates a new MemoryStore. keySelector extracts the entity
// key (usually the ID field) from a value.
func NewMemoryStore[K comparable, T any](keySelector func(*T) K, options ...Option[K, T]) *MemoryStore[K, T] {
	ret := &MemoryStore[K, T]{
		records:     make(map[K]*T),
		keySelector: keySelector,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (s *MemoryStore[K, T]) clone(v *T) *T {
	if v == nil || s.cloner == nil {
		return v
	}
	return s.cloner(v)
}

// Save stores or overwrites a record.
func (s *MemoryStore[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	var zero K
	key := s.keySelector(v)
	if key == zero {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = s.clone(v)
	return nil
}

// Load returns a record by key.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	var zero K
	if key == zero {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return s.clone(v), nil
}

// Delete removes a record.
func (s *MemoryStore[K, T]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return dao.ErrNotFound
	}
	delete(s.records, key)
	return nil
}

// List returns all stored records matching the supplied parameters.
func (s *MemoryStore[K, T]) List(_ context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*T, 0, len(s.records))
	for _, v := range s.records {
		if s.matcher != nil && !s.matcher(v, parameters) {
			continue
		}
		out = append(out, s.clone(v))
	}
	return out, nil
}

var _ dao.Service[string, any] = (*MemoryStore[string, any])(nil)
