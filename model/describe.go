package model

import (
	"context"
	"fmt"
)

// Describe returns a short human readable summary of the action, used in
// notifications and admin listings.
func Describe(a Action) string {
	d := &describer{}
	if err := a.Accept(context.Background(), d); err != nil {
		return "unknown request"
	}
	return d.text
}

type describer struct {
	text string
}

func (d *describer) ContentUpdate(_ context.Context, p ContentUpdate) error {
	if p.ContentID == "" {
		d.text = fmt.Sprintf("new content %q", p.Title)
	} else {
		d.text = fmt.Sprintf("update of %q", p.Title)
	}
	return nil
}

func (d *describer) ContentDeletion(_ context.Context, p ContentDeletion) error {
	d.text = fmt.Sprintf("deletion of content %s", p.ContentID)
	return nil
}

func (d *describer) StatusChange(_ context.Context, p StatusChange) error {
	d.text = fmt.Sprintf("status change of content %s to %q", p.ContentID, p.Status)
	return nil
}

func (d *describer) UpdateDeletion(_ context.Context, p UpdateDeletion) error {
	d.text = fmt.Sprintf("deletion of update %s", p.UpdateID)
	return nil
}

func (d *describer) PreferenceChange(_ context.Context, p PreferenceChange) error {
	if p.Notify {
		d.text = "subscription to notifications"
	} else {
		d.text = "unsubscription from notifications"
	}
	return nil
}
