package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/moderation/service/dao"
)

type document struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

func newTestStore(t *testing.T) (*Store[document], pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	store, err := New[document](mock, "documents", func(d *document) string { return d.ID })
	require.NoError(t, err)
	return store, mock
}

func TestNew_RejectsUnsafeTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	_, err = New[document](mock, "documents; drop table x", func(d *document) string { return d.ID })
	assert.Error(t, err)
}

func TestStore_Load(t *testing.T) {
	store, mock := newTestStore(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT body FROM documents WHERE id").
		WithArgs("d1").
		WillReturnRows(pgxmock.NewRows([]string{"body"}).AddRow([]byte(`{"id":"d1","state":"pending"}`)))
	mock.ExpectQuery("SELECT body FROM documents WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	doc, err := store.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, &document{ID: "d1", State: "pending"}, doc)

	_, err = store.Load(ctx, "missing")
	assert.True(t, errors.Is(err, dao.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InsertConflict(t *testing.T) {
	store, mock := newTestStore(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO documents").
		WithArgs("d1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO documents").
		WithArgs("d1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	require.NoError(t, store.Insert(ctx, &document{ID: "d1"}))
	err := store.Insert(ctx, &document{ID: "d1"})
	assert.True(t, errors.Is(err, dao.ErrExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateIf(t *testing.T) {
	ctx := context.Background()

	t.Run("applies mutation under row lock", func(t *testing.T) {
		store, mock := newTestStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT body FROM documents WHERE id = \\$1 FOR UPDATE").
			WithArgs("d1").
			WillReturnRows(pgxmock.NewRows([]string{"body"}).AddRow([]byte(`{"id":"d1","state":"pending"}`)))
		mock.ExpectExec("UPDATE documents SET body").
			WithArgs("d1", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		doc, err := store.UpdateIf(ctx, "d1", func(d *document) error {
			d.State = "approved"
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "approved", doc.State)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed precondition rolls back", func(t *testing.T) {
		store, mock := newTestStore(t)
		precondition := errors.New("already reviewed")
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT body FROM documents WHERE id = \\$1 FOR UPDATE").
			WithArgs("d1").
			WillReturnRows(pgxmock.NewRows([]string{"body"}).AddRow([]byte(`{"id":"d1","state":"approved"}`)))
		mock.ExpectRollback()

		_, err := store.UpdateIf(ctx, "d1", func(d *document) error { return precondition })
		assert.Equal(t, precondition, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_List(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectQuery("SELECT body FROM documents ORDER BY id").
		WillReturnRows(pgxmock.NewRows([]string{"body"}).
			AddRow([]byte(`{"id":"a"}`)).
			AddRow([]byte(`{"id":"b"}`)))

	docs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
