package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/viant/moderation/service/dao"
)

type record struct {
	ID      string `json:"id"`
	Counter int    `json:"counter"`
}

var errStale = errors.New("stale")

func stores(t *testing.T) map[string]dao.Conditional[string, record] {
	t.Helper()
	selector := func(r *record) string { return r.ID }
	fsStore, err := NewFSStore[string, record](context.Background(), afs.New(), "mem://localhost/"+t.Name()+"/records", selector)
	require.NoError(t, err)
	return map[string]dao.Conditional[string, record]{
		"memory": NewMemoryStore[string, record](selector),
		"fs":     fsStore,
	}
}

func TestStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load(ctx, "r1")
			assert.True(t, errors.Is(err, dao.ErrNotFound))

			assert.True(t, errors.Is(store.Save(ctx, nil), dao.ErrNilEntity))
			assert.True(t, errors.Is(store.Save(ctx, &record{}), dao.ErrInvalidID))

			require.NoError(t, store.Save(ctx, &record{ID: "r1", Counter: 1}))
			require.NoError(t, store.Save(ctx, &record{ID: "r2", Counter: 2}))
			loaded, err := store.Load(ctx, "r1")
			require.NoError(t, err)
			assert.Equal(t, 1, loaded.Counter)

			loaded.Counter = 99
			again, err := store.Load(ctx, "r1")
			require.NoError(t, err)
			assert.Equal(t, 1, again.Counter)

			list, err := store.List(ctx)
			require.NoError(t, err)
			sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
			assert.Equal(t, []*record{{ID: "r1", Counter: 1}, {ID: "r2", Counter: 2}}, list)

			require.NoError(t, store.Delete(ctx, "r1"))
			require.NoError(t, store.Delete(ctx, "r1"))
			_, err = store.Load(ctx, "r1")
			assert.True(t, errors.Is(err, dao.ErrNotFound))
		})
	}
}

func TestStore_Insert(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Insert(ctx, &record{ID: "r1", Counter: 1}))
			err := store.Insert(ctx, &record{ID: "r1", Counter: 2})
			assert.True(t, errors.Is(err, dao.ErrExists))
			loaded, err := store.Load(ctx, "r1")
			require.NoError(t, err)
			assert.Equal(t, 1, loaded.Counter)
		})
	}
}

func TestStore_UpdateIf(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.UpdateIf(ctx, "missing", func(r *record) error { return nil })
			assert.True(t, errors.Is(err, dao.ErrNotFound))

			require.NoError(t, store.Save(ctx, &record{ID: "r1"}))
			updated, err := store.UpdateIf(ctx, "r1", func(r *record) error {
				r.Counter++
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, 1, updated.Counter)

			_, err = store.UpdateIf(ctx, "r1", func(r *record) error {
				r.Counter = 42
				return errStale
			})
			assert.Equal(t, errStale, err)
			loaded, err := store.Load(ctx, "r1")
			require.NoError(t, err)
			assert.Equal(t, 1, loaded.Counter)
		})
	}
}

func TestMemoryStore_UpdateIfSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[string, record](func(r *record) string { return r.ID })
	require.NoError(t, store.Save(ctx, &record{ID: "r1"}))

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.UpdateIf(ctx, "r1", func(r *record) error {
				if r.Counter != 0 {
					return errStale
				}
				r.Counter = 1
				return nil
			})
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}
