package dao

import (
	"context"
)

// Service is the persistence contract shared by every entity store. K is the
// entity key type (ids are opaque strings throughout the engine) and T the
// entity type.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
