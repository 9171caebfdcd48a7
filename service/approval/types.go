package approval

import (
	"time"

	"github.com/viant/moderation/model"
)

// Event envelope published on every decision.
type Event struct {
	Topic   string            `json:"topic"`
	Data    *Decision         `json:"data"`
	Headers map[string]string `json:"headers,omitempty"`
}

// TopicDecisionCreated is published once per item decision.
const TopicDecisionCreated = "decision.created"

// Decision records the outcome of a review.
type Decision struct {
	ID        string           `json:"id"` // same as item.ID
	Kind      model.ActionKind `json:"kind"`
	Approved  bool             `json:"approved"`
	Reason    string           `json:"reason,omitempty"`
	TargetID  string           `json:"targetId,omitempty"`
	DecidedAt time.Time        `json:"decidedAt"`
}

// Status returns the item status the decision produced.
func (d *Decision) Status() model.Status {
	if d.Approved {
		return model.StatusApproved
	}
	return model.StatusDenied
}
