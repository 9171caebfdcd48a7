// Package storeerr maps store failures onto the model error taxonomy.
package storeerr

import (
	"errors"

	"github.com/viant/moderation/model"
	"github.com/viant/moderation/service/dao"
)

// Wrap classifies err returned by a store call.  Classified errors, such as a
// failed precondition raised inside a mutation, pass through unchanged.
func Wrap(op, entity, id string, err error) error {
	if err == nil {
		return nil
	}
	var classified *model.Error
	if errors.As(err, &classified) {
		return err
	}
	if errors.Is(err, dao.ErrNotFound) {
		return model.NewNotFoundError(entity, id)
	}
	return model.NewPersistenceError(op, err)
}
