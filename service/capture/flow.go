package capture

import (
	"context"
	"sync"

	"github.com/viant/moderation/model"
)

// Flow is the caller-side state of a submission waiting for its code.  It
// holds a display copy of the snapshot; the queued action always comes from
// the gate.
type Flow struct {
	service   *Service
	mu        sync.Mutex
	handle    model.Handle
	action    model.Action
	requester model.Requester
	abandoned bool
}

// Handle returns the current challenge reference.
func (f *Flow) Handle() model.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handle
}

// Action returns the captured snapshot.
func (f *Flow) Action() model.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.action
}

// Requester returns the identity the code was sent to.
func (f *Flow) Requester() model.Requester { return f.requester }

// Verify submits code for the current challenge.
func (f *Flow) Verify(ctx context.Context, code string) (*model.Item, error) {
	handle, err := f.current()
	if err != nil {
		return nil, err
	}
	return f.service.Verify(ctx, handle.ChallengeID, code)
}

// Resend replaces the challenge; the previous code stops working.
func (f *Flow) Resend(ctx context.Context) (*model.Handle, error) {
	handle, err := f.current()
	if err != nil {
		return nil, err
	}
	next, err := f.service.Resend(ctx, handle.ChallengeID)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.handle = *next
	f.mu.Unlock()
	return next, nil
}

// Abandon discards the flow; the challenge is left to expire.
func (f *Flow) Abandon() {
	f.mu.Lock()
	f.abandoned = true
	f.action = model.Action{}
	f.mu.Unlock()
}

func (f *Flow) current() (model.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.abandoned {
		return model.Handle{}, model.ErrExpiredCode
	}
	return f.handle, nil
}
