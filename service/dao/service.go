package dao

import (
	"context"
)

// Service is a keyed document store.  Load returns ErrNotFound for a missing key.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}

// Mutation edits a private copy of a stored entity.  Returning an error
// aborts the write and the error is passed back to the caller unchanged.
type Mutation[T any] func(t *T) error

// Conditional adds guarded writes on top of Service.  Both operations are
// atomic with respect to other writers of the same key.
type Conditional[K comparable, T any] interface {
	Service[K, T]

	// Insert stores t only when its key is absent; otherwise ErrExists.
	Insert(ctx context.Context, t *T) error

	// UpdateIf loads the entity, applies mutation to a copy and persists the
	// copy only when mutation returns nil.  The stored value is never changed
	// when the precondition encoded in mutation fails.
	UpdateIf(ctx context.Context, id K, mutation Mutation[T]) (*T, error)
}
