package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/moderation/model"
)

// Pending lists items awaiting review.
type Pending interface {
	ListPending(ctx context.Context, kind model.ActionKind) ([]*model.Item, error)
}

// DecisionFunc decides what to do with a pending item.
// Return (true, "") to approve
//
//	(false, "…") to deny with reason.
type DecisionFunc func(item *model.Item) (approved bool, reason string)

// AutoDecider starts a goroutine that polls pending and applies fn to every
// item.  It returns stop(); call it (or cancel ctx) to exit.
func AutoDecider(ctx context.Context,
	pending Pending,
	processor *Processor,
	fn DecisionFunc,
	interval time.Duration) (stop func()) {

	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				items, err := pending.ListPending(ctx, "")
				if err != nil {
					processor.logger.WarnContext(ctx, "auto decider failed to list pending items", "error", err)
					continue
				}
				for _, item := range items {
					ok, reason := fn(item)
					if ok {
						_, err = processor.Approve(ctx, item.ID)
					} else {
						_, err = processor.Deny(ctx, item.ID, reason)
					}
					if err != nil {
						processor.logger.DebugContext(ctx, "auto decision skipped", "item_id", item.ID, "error", err)
					}
				}
			}
		}
	}()
	return func() { close(done) }
}

// AutoApprove approves every pending item.
func AutoApprove(ctx context.Context, pending Pending, processor *Processor, interval time.Duration) func() {
	return AutoDecider(ctx, pending, processor,
		func(*model.Item) (bool, string) { return true, "" }, interval)
}

// AutoReject denies every pending item with the given reason.
func AutoReject(ctx context.Context, pending Pending, processor *Processor, reason string, interval time.Duration) func() {
	return AutoDecider(ctx, pending, processor,
		func(*model.Item) (bool, string) { return false, reason }, interval)
}

// WaitForDecision consumes decision events until one for itemID arrives or
// timeout elapses.  Events for other items are acknowledged and dropped.
func WaitForDecision(ctx context.Context, processor *Processor, itemID string, timeout time.Duration) (*Decision, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for {
		msg, err := processor.Queue().Consume(waitCtx)
		if err != nil {
			return nil, fmt.Errorf("decision for %s not received: %w", itemID, err)
		}
		event := msg.T()
		_ = msg.Ack()
		if event.Topic != TopicDecisionCreated || event.Data == nil {
			continue
		}
		if event.Data.ID == itemID {
			return event.Data, nil
		}
	}
}
