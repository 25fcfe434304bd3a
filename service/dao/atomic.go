package dao

import "context"

// Atomic is implemented by stores that can group several writes into one
// atomic unit. Writes issued with the context passed to fn join the unit;
// returning an error discards all of them.
type Atomic interface {
	Atomically(ctx context.Context, fn func(ctx context.Context) error) error
}

// InTx runs fn through the store's Atomic support when present. Stores
// without transactions (the in-memory backend) run fn directly.
func InTx(ctx context.Context, store interface{}, fn func(ctx context.Context) error) error {
	if atomic, ok := store.(Atomic); ok {
		return atomic.Atomically(ctx, fn)
	}
	return fn(ctx)
}
