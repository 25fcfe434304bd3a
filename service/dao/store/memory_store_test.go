package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/procwise/procwise/service/dao"
)

type record struct {
	ID    string
	Group string
	Value int
}

func (r *record) clone() *record {
	out := *r
	return &out
}

func newRecordStore() *MemoryStore[string, record] {
	return NewMemoryStore[string, record](
		func(r *record) string { return r.ID },
		WithCloner[string, record]((*record).clone),
		WithMatcher[string, record](func(r *record, parameters []*dao.Parameter) bool {
			for _, parameter := range parameters {
				if parameter.Name == "group" && r.Group != parameter.Value.(string) {
					return false
				}
			}
			return true
		}),
	)
}

func TestMemoryStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	s := newRecordStore()

	assert.ErrorIs(t, s.Save(ctx, nil), dao.ErrNilEntity)
	assert.ErrorIs(t, s.Save(ctx, &record{}), dao.ErrInvalidID)

	assert.NoError(t, s.Save(ctx, &record{ID: "a", Group: "g1", Value: 1}))

	loaded, err := s.Load(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, 1, loaded.Value)

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, dao.ErrNotFound)
	_, err = s.Load(ctx, "")
	assert.ErrorIs(t, err, dao.ErrInvalidID)

	assert.NoError(t, s.Delete(ctx, "a"))
	assert.ErrorIs(t, s.Delete(ctx, "a"), dao.ErrNotFound)
}

func TestMemoryStore_CloneIsolation(t *testing.T) {
	ctx := context.Background()
	s := newRecordStore()

	original := &record{ID: "a", Value: 1}
	assert.NoError(t, s.Save(ctx, original))

	// Mutating the saved value or a loaded copy must not leak into the store.
	original.Value = 99
	loaded, err := s.Load(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, 1, loaded.Value)

	loaded.Value = 50
	reloaded, err := s.Load(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, 1, reloaded.Value)
}

func TestMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	s := newRecordStore()
	assert.NoError(t, s.Save(ctx, &record{ID: "a", Group: "g1"}))
	assert.NoError(t, s.Save(ctx, &record{ID: "b", Group: "g1"}))
	assert.NoError(t, s.Save(ctx, &record{ID: "c", Group: "g2"}))

	all, err := s.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 3)

	matched, err := s.List(ctx, dao.NewParameter("group", "g1"))
	assert.NoError(t, err)
	assert.Len(t, matched, 2)
}
