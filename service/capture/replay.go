package capture

import (
	"context"

	"github.com/viant/moderation/model"
	"github.com/viant/moderation/service/moderation"
)

// replayer routes a snapshot to the submit function of its kind.
type replayer struct {
	queue       Queue
	id          string
	requester   model.Requester
	challengeID string
	item        *model.Item
}

func (r *replayer) ContentUpdate(ctx context.Context, p model.ContentUpdate) error {
	return r.submit(ctx, p, r.requester)
}

func (r *replayer) ContentDeletion(ctx context.Context, p model.ContentDeletion) error {
	return r.submit(ctx, p, r.requester)
}

func (r *replayer) StatusChange(ctx context.Context, p model.StatusChange) error {
	return r.submit(ctx, p, r.requester)
}

func (r *replayer) UpdateDeletion(ctx context.Context, p model.UpdateDeletion) error {
	return r.submit(ctx, p, r.requester)
}

// PreferenceChange records the subscriber named in the payload as requester
// when none was supplied.
func (r *replayer) PreferenceChange(ctx context.Context, p model.PreferenceChange) error {
	return r.submit(ctx, p, defaultRequester(r.requester, model.MustAction(p)))
}

func (r *replayer) submit(ctx context.Context, payload model.Payload, requester model.Requester) error {
	action, err := model.NewAction(payload)
	if err != nil {
		return err
	}
	item, err := r.queue.Enqueue(ctx, moderation.Request{
		ID:          r.id,
		Action:      action,
		Requester:   requester,
		ChallengeID: r.challengeID,
	})
	if err != nil {
		return err
	}
	r.item = item
	return nil
}
