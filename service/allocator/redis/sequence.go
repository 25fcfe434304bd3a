// Package redis provides a Sequence backed by a Redis counter so multiple
// engine processes can share one number space.
package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/procwise/procwise/service/allocator"
)

const defaultKey = "procwise:process_number"

// Sequence allocates process numbers with atomic INCR.
type Sequence struct {
	client *redis.Client
	key    string
}

var _ allocator.Sequence = (*Sequence)(nil)

// Option configures the Sequence.
type Option func(*Sequence)

// WithKey overrides the counter key.
func WithKey(key string) Option {
	return func(s *Sequence) { s.key = key }
}

// New creates a redis-backed sequence. The caller owns the client lifecycle.
func New(client *redis.Client, options ...Option) *Sequence {
	ret := &Sequence{client: client, key: defaultKey}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (s *Sequence) Next(ctx context.Context) (int64, error) {
	return s.client.Incr(ctx, s.key).Result()
}
