package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/viant/moderation/model"
	"github.com/viant/moderation/service/dao"
	"github.com/viant/moderation/service/notification"
)

// effects applies an approved action to the target stores.  Every method is
// safe to repeat: a retried approval after a crash between effect and
// finalization converges on the same state.
type effects struct {
	processor *Processor
	item      *model.Item
	now       time.Time
	targetID  string
	vars      map[string]string
}

func (e *effects) ContentUpdate(ctx context.Context, p model.ContentUpdate) error {
	stores := e.processor.stores
	e.targetID = p.ContentID
	if e.targetID == "" {
		e.targetID = e.item.ID
	}
	var before string
	_, err := stores.Contents.UpdateIf(ctx, e.targetID, func(c *model.Content) error {
		before = contentText(c.Title, c.Description)
		c.Title = p.Title
		c.Description = p.Description
		c.UpdatedAt = e.now
		return nil
	})
	if errors.Is(err, dao.ErrNotFound) {
		err = stores.Contents.Insert(ctx, &model.Content{
			ID:          e.targetID,
			Title:       p.Title,
			Description: p.Description,
			Status:      model.DefaultContentStatus,
			CreatedAt:   e.now,
			UpdatedAt:   e.now,
		})
		if errors.Is(err, dao.ErrExists) {
			return model.NewPersistenceError("create content", err)
		}
	}
	if err != nil {
		return err
	}
	if p.Message != "" {
		update := &model.Update{ID: e.item.ID, ContentID: e.targetID, Message: p.Message, CreatedAt: e.now}
		if err = stores.Updates.Save(ctx, update); err != nil {
			return err
		}
	}
	e.vars[notification.VarContentTitle] = p.Title
	e.vars[notification.VarContentDescription] = p.Description
	e.vars[notification.VarChangeDiff] = changeDiff(before, contentText(p.Title, p.Description))
	return nil
}

func (e *effects) ContentDeletion(ctx context.Context, p model.ContentDeletion) error {
	stores := e.processor.stores
	e.targetID = p.ContentID
	content, err := stores.Contents.Load(ctx, p.ContentID)
	switch {
	case err == nil:
		e.vars[notification.VarContentTitle] = content.Title
	case !errors.Is(err, dao.ErrNotFound):
		return err
	}
	updates, err := stores.Updates.List(ctx)
	if err != nil {
		return err
	}
	for _, update := range updates {
		if update.ContentID != p.ContentID {
			continue
		}
		if err = stores.Updates.Delete(ctx, update.ID); err != nil {
			return fmt.Errorf("delete update %s: %w", update.ID, err)
		}
	}
	return stores.Contents.Delete(ctx, p.ContentID)
}

func (e *effects) StatusChange(ctx context.Context, p model.StatusChange) error {
	e.targetID = p.ContentID
	content, err := e.processor.stores.Contents.UpdateIf(ctx, p.ContentID, func(c *model.Content) error {
		c.Status = p.Status
		c.UpdatedAt = e.now
		return nil
	})
	if errors.Is(err, dao.ErrNotFound) {
		return model.NewNotFoundError("content", p.ContentID)
	}
	if err != nil {
		return err
	}
	e.vars[notification.VarContentTitle] = content.Title
	e.vars[notification.VarRequestedStatus] = p.Status
	return nil
}

func (e *effects) UpdateDeletion(ctx context.Context, p model.UpdateDeletion) error {
	e.targetID = p.UpdateID
	return e.processor.stores.Updates.Delete(ctx, p.UpdateID)
}

func (e *effects) PreferenceChange(ctx context.Context, p model.PreferenceChange) error {
	email := model.NormalizeEmail(p.Email)
	e.targetID = email
	return e.processor.stores.Subscribers.Save(ctx, &model.Subscriber{
		Email:     email,
		Name:      p.Name,
		IsActive:  p.Notify,
		IsAdmin:   false,
		UpdatedAt: e.now,
	})
}

func contentText(title, description string) string {
	return title + "\n\n" + description + "\n"
}

func changeDiff(before, after string) string {
	if before == "" {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "before",
		ToFile:   "after",
		Context:  1,
	})
	if err != nil {
		return ""
	}
	return diff
}

var _ model.Visitor = (*effects)(nil)
