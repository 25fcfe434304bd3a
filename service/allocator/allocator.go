// Package allocator hands out process numbers: the unique, monotonically
// increasing human-readable identifiers assigned at instance start. Two
// racing Start calls must never receive the same number, so every
// implementation is atomic.
package allocator

import (
	"context"
	"sync"
)

// Sequence allocates the next process number.
type Sequence interface {
	Next(ctx context.Context) (int64, error)
}

// Memory is a mutex-guarded in-process sequence. Adequate for the
// single-process deployment model; durable backends live in redis/ and in
// the SQL store.
type Memory struct {
	mu   sync.Mutex
	last int64
}

var _ Sequence = (*Memory)(nil)

// NewMemory creates a sequence starting after the given last value; pass 0
// to start at 1.
func NewMemory(last int64) *Memory {
	return &Memory{last: last}
}

func (s *Memory) Next(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return s.last, nil
}
