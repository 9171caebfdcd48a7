package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/viant/moderation/service/dao"
)

// pool abstracts the subset of pgxpool.Pool used by the store for easier testing.
type pool interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Store keeps entities as JSONB documents in a single table keyed by id.
// Conditional updates lock the row with SELECT ... FOR UPDATE inside a
// transaction, so concurrent writers across processes serialise on the row.
type Store[T any] struct {
	pool        pool
	table       string
	keySelector func(*T) string
}

// New builds a Store for table backed by the provided connection pool.
func New[T any](pool pool, table string, keySelector func(*T) string) (*Store[T], error) {
	if pool == nil {
		return nil, errors.New("postgres store requires pool")
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store[T]{pool: pool, table: table, keySelector: keySelector}, nil
}

// Migrate creates the document table when missing.
func (s *Store[T]) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id TEXT PRIMARY KEY,
    body JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table))
	if err != nil {
		return fmt.Errorf("migrate %s: %w", s.table, err)
	}
	return nil
}

// Save upserts the document for t.
func (s *Store[T]) Save(ctx context.Context, t *T) error {
	id, body, err := s.encode(t)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (id, body, updated_at) VALUES ($1, $2, now())
ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`, s.table), id, body)
	if err != nil {
		return fmt.Errorf("save %s/%s: %w", s.table, id, err)
	}
	return nil
}

// Insert stores t only when its id is free.
func (s *Store[T]) Insert(ctx context.Context, t *T) error {
	id, body, err := s.encode(t)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (id, body, updated_at) VALUES ($1, $2, now())
ON CONFLICT (id) DO NOTHING`, s.table), id, body)
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", s.table, id, err)
	}
	if tag.RowsAffected() == 0 {
		return dao.ErrExists
	}
	return nil
}

// Load returns the document stored under id.
func (s *Store[T]) Load(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	var body []byte
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT body FROM %s WHERE id = $1`, s.table), id).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dao.ErrNotFound
		}
		return nil, fmt.Errorf("load %s/%s: %w", s.table, id, err)
	}
	return s.decode(body)
}

// UpdateIf locks the row, applies mutation and writes the result in one transaction.
func (s *Store[T]) UpdateIf(ctx context.Context, id string, mutation dao.Mutation[T]) (*T, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // no-op if committed

	var body []byte
	err = tx.QueryRow(ctx, fmt.Sprintf(`SELECT body FROM %s WHERE id = $1 FOR UPDATE`, s.table), id).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dao.ErrNotFound
		}
		return nil, fmt.Errorf("lock %s/%s: %w", s.table, id, err)
	}
	current, err := s.decode(body)
	if err != nil {
		return nil, err
	}
	if err = mutation(current); err != nil {
		return nil, err
	}
	updated, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("encode %s/%s: %w", s.table, id, err)
	}
	if _, err = tx.Exec(ctx, fmt.Sprintf(`UPDATE %s SET body = $2, updated_at = now() WHERE id = $1`, s.table), id, updated); err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", s.table, id, err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit %s/%s: %w", s.table, id, err)
	}
	return current, nil
}

// Delete removes the document; a missing row is not an error.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table), id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", s.table, id, err)
	}
	return nil
}

// List returns every document in id order.
func (s *Store[T]) List(ctx context.Context, _ ...*dao.Parameter) ([]*T, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT body FROM %s ORDER BY id`, s.table))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table, err)
	}
	defer rows.Close()
	var result []*T
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		entity, err := s.decode(body)
		if err != nil {
			return nil, err
		}
		result = append(result, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.table, err)
	}
	return result, nil
}

func (s *Store[T]) encode(t *T) (string, []byte, error) {
	if t == nil {
		return "", nil, dao.ErrNilEntity
	}
	id := s.keySelector(t)
	if id == "" {
		return "", nil, dao.ErrInvalidID
	}
	body, err := json.Marshal(t)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s/%s: %w", s.table, id, err)
	}
	return id, body, nil
}

func (s *Store[T]) decode(body []byte) (*T, error) {
	var entity T
	if err := json.Unmarshal(body, &entity); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.table, err)
	}
	return &entity, nil
}

var _ dao.Conditional[string, struct{}] = (*Store[struct{}])(nil)
