package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/moderation/internal/clock"
	"github.com/viant/moderation/model"
	"github.com/viant/moderation/service/dao"
	"github.com/viant/moderation/service/dao/store"
)

func newQueue(t *testing.T) (*Service, *clock.Manual, *store.MemoryStore[string, model.Item]) {
	t.Helper()
	items := store.NewMemoryStore[string, model.Item](func(i *model.Item) string { return i.ID })
	c := clock.NewManual(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	srv, err := New(items, WithClock(c))
	require.NoError(t, err)
	return srv, c, items
}

func TestService_Enqueue(t *testing.T) {
	srv, c, _ := newQueue(t)
	ctx := context.Background()

	item, err := srv.Enqueue(ctx, Request{
		Action:    model.MustAction(model.ContentDeletion{ContentID: "c1"}),
		Requester: model.Requester{Name: " Bob ", Email: "BOB@example.com"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, model.StatusPending, item.Status)
	assert.Equal(t, model.KindContentDeletion, item.Kind)
	assert.Equal(t, c.Now(), item.SubmittedAt)
	assert.Equal(t, model.Requester{Name: "Bob", Email: "bob@example.com"}, item.Requester)
	assert.Nil(t, item.ReviewedAt)

	loaded, err := srv.Load(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item, loaded)

	_, err = srv.Load(ctx, "missing")
	assert.True(t, errors.Is(err, model.ErrNotFound))

	_, err = srv.Enqueue(ctx, Request{})
	assert.True(t, errors.Is(err, model.ErrValidation))
}

func TestService_EnqueueWithIDIsCreateOnly(t *testing.T) {
	srv, _, _ := newQueue(t)
	ctx := context.Background()
	request := Request{ID: "ver-1", Action: model.MustAction(model.UpdateDeletion{UpdateID: "u1"})}
	_, err := srv.Enqueue(ctx, request)
	require.NoError(t, err)
	_, err = srv.Enqueue(ctx, request)
	assert.True(t, errors.Is(err, dao.ErrExists))
	assert.True(t, errors.Is(err, model.ErrPersistence))
}

func TestService_ListPending(t *testing.T) {
	srv, c, items := newQueue(t)
	ctx := context.Background()

	first, err := srv.Enqueue(ctx, Request{Action: model.MustAction(model.StatusChange{ContentID: "c1", Status: "resolved"})})
	require.NoError(t, err)
	c.Advance(time.Minute)
	second, err := srv.Enqueue(ctx, Request{Action: model.MustAction(model.StatusChange{ContentID: "c2", Status: "open"})})
	require.NoError(t, err)
	c.Advance(time.Minute)
	other, err := srv.Enqueue(ctx, Request{Action: model.MustAction(model.ContentDeletion{ContentID: "c3"})})
	require.NoError(t, err)
	c.Advance(time.Minute)
	reviewed, err := srv.Enqueue(ctx, Request{Action: model.MustAction(model.StatusChange{ContentID: "c4", Status: "open"})})
	require.NoError(t, err)
	_, err = items.UpdateIf(ctx, reviewed.ID, func(i *model.Item) error {
		i.Status = model.StatusDenied
		i.DenialReason = "spam"
		return nil
	})
	require.NoError(t, err)

	pending, err := srv.ListPending(ctx, model.KindStatusChange)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, second.ID, pending[0].ID)
	assert.Equal(t, first.ID, pending[1].ID)

	all, err := srv.ListPending(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, other.ID, all[0].ID)

	denied, err := srv.List(ctx, model.StatusDenied, "")
	require.NoError(t, err)
	require.Len(t, denied, 1)
	assert.Equal(t, reviewed.ID, denied[0].ID)

	_, err = srv.ListPending(ctx, "workflow")
	assert.True(t, errors.Is(err, model.ErrValidation))
}
