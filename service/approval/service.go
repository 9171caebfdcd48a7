package approval

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/viant/moderation/internal/clock"
	"github.com/viant/moderation/internal/idgen"
	"github.com/viant/moderation/internal/logging"
	"github.com/viant/moderation/internal/metrics"
	"github.com/viant/moderation/internal/storeerr"
	"github.com/viant/moderation/model"
	"github.com/viant/moderation/service/dao"
	"github.com/viant/moderation/service/messaging"
	qmem "github.com/viant/moderation/service/messaging/memory"
	"github.com/viant/moderation/service/notification"
	"github.com/viant/moderation/tracing"
)

// DefaultClaimTTL bounds how long an unfinished approval blocks other reviewers.
const DefaultClaimTTL = 5 * time.Minute

// Stores groups the side-effect targets.
type Stores struct {
	Contents    dao.Conditional[string, model.Content]
	Updates     dao.Service[string, model.Update]
	Subscribers dao.Service[string, model.Subscriber]
}

func (s *Stores) validate() error {
	switch {
	case s.Contents == nil:
		return errors.New("content store is required")
	case s.Updates == nil:
		return errors.New("update store is required")
	case s.Subscribers == nil:
		return errors.New("subscriber store is required")
	}
	return nil
}

// Processor decides moderation items.
type Processor struct {
	items      dao.Conditional[string, model.Item]
	stores     Stores
	dispatcher notification.Dispatcher
	events     messaging.Queue[Event]
	claimTTL   time.Duration
	clock      clock.Clock
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// New creates a processor over the item store and the effect targets.
func New(items dao.Conditional[string, model.Item], stores Stores, options ...Option) (*Processor, error) {
	if items == nil {
		return nil, errors.New("item store is required")
	}
	if err := stores.validate(); err != nil {
		return nil, err
	}
	p := &Processor{
		items:    items,
		stores:   stores,
		claimTTL: DefaultClaimTTL,
		clock:    clock.System{},
		logger:   logging.Nop(),
	}
	for _, opt := range options {
		opt(p)
	}
	if p.events == nil {
		p.events = qmem.NewQueue[Event](qmem.DefaultConfig())
	}
	if p.dispatcher == nil {
		return nil, errors.New("notification dispatcher is required")
	}
	return p, nil
}

// Queue exposes decision events.
func (p *Processor) Queue() messaging.Queue[Event] { return p.events }

// Approve claims a pending item, applies its effects and marks it approved.
// A reviewed or concurrently claimed item yields ErrAlreadyReviewed and is
// left unchanged.
//
// A claim older than the claim TTL may be taken over, so effects of a stalled
// approver can run a second time.  Effects converge on the same end state when
// repeated; only the approver holding the current token finalizes the item.
func (p *Processor) Approve(ctx context.Context, id string) (decision *Decision, err error) {
	ctx, span := tracing.StartSpan(ctx, "approval.Approve", tracing.KindInternal)
	span.WithAttributes(map[string]string{"item.id": id})
	defer func() { tracing.EndSpan(span, err) }()

	token := idgen.New()
	claimedAt := p.clock.Now()
	item, err := p.items.UpdateIf(ctx, id, func(i *model.Item) error {
		if !i.Claimable(claimedAt, p.claimTTL) {
			return model.ErrAlreadyReviewed
		}
		i.ClaimToken = token
		i.ClaimedAt = &claimedAt
		return nil
	})
	if err != nil {
		return nil, storeerr.Wrap("claim item", "item", id, err)
	}

	effect := &effects{processor: p, item: item, now: p.clock.Now(), vars: decisionVars(item)}
	if err = item.Action.Accept(ctx, effect); err != nil {
		p.release(ctx, id, token)
		return nil, storeerr.Wrap("apply "+string(item.Kind), "content", effect.targetID, err)
	}

	reviewedAt := p.clock.Now()
	item, err = p.items.UpdateIf(ctx, id, func(i *model.Item) error {
		if i.Status != model.StatusPending || i.ClaimToken != token {
			return model.ErrAlreadyReviewed
		}
		i.Status = model.StatusApproved
		i.ReviewedAt = &reviewedAt
		i.TargetID = effect.targetID
		i.ClaimToken = ""
		i.ClaimedAt = nil
		return nil
	})
	if err != nil {
		return nil, storeerr.Wrap("approve item", "item", id, err)
	}

	decision = &Decision{ID: item.ID, Kind: item.Kind, Approved: true, TargetID: item.TargetID, DecidedAt: reviewedAt}
	p.announce(ctx, item, decision, notification.TemplateApproved, effect.vars)
	return decision, nil
}

// Deny records reason and marks a pending item denied.  No effect is applied.
func (p *Processor) Deny(ctx context.Context, id, reason string) (decision *Decision, err error) {
	ctx, span := tracing.StartSpan(ctx, "approval.Deny", tracing.KindInternal)
	span.WithAttributes(map[string]string{"item.id": id})
	defer func() { tracing.EndSpan(span, err) }()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, model.NewValidationError("reason", "a reason is required to deny a request")
	}
	reviewedAt := p.clock.Now()
	item, err := p.items.UpdateIf(ctx, id, func(i *model.Item) error {
		if !i.Claimable(reviewedAt, p.claimTTL) {
			return model.ErrAlreadyReviewed
		}
		i.Status = model.StatusDenied
		i.DenialReason = reason
		i.ReviewedAt = &reviewedAt
		i.ClaimToken = ""
		i.ClaimedAt = nil
		return nil
	})
	if err != nil {
		return nil, storeerr.Wrap("deny item", "item", id, err)
	}

	decision = &Decision{ID: item.ID, Kind: item.Kind, Reason: reason, DecidedAt: reviewedAt}
	vars := decisionVars(item)
	vars[notification.VarDenialReason] = reason
	p.announce(ctx, item, decision, notification.TemplateDenied, vars)
	return decision, nil
}

// release drops a claim so the item can be reviewed again.
func (p *Processor) release(ctx context.Context, id, token string) {
	_, err := p.items.UpdateIf(ctx, id, func(i *model.Item) error {
		if i.ClaimToken != token {
			return model.ErrAlreadyReviewed
		}
		i.ClaimToken = ""
		i.ClaimedAt = nil
		return nil
	})
	if err != nil {
		p.logger.WarnContext(ctx, "failed to release approval claim", "item_id", id, "error", err)
	}
}

func (p *Processor) announce(ctx context.Context, item *model.Item, decision *Decision, template string, vars map[string]string) {
	status := decision.Status()
	p.metrics.Decision(string(item.Kind), string(status))
	p.logger.InfoContext(ctx, "item reviewed", "item_id", item.ID, "kind", item.Kind, "status", status)
	if err := p.events.Publish(ctx, &Event{Topic: TopicDecisionCreated, Data: decision}); err != nil {
		p.logger.DebugContext(ctx, "decision event dropped", "item_id", item.ID, "error", err)
	}
	if err := p.dispatcher.Send(ctx, template, vars); err != nil {
		p.logger.WarnContext(ctx, "decision notification not sent", "item_id", item.ID, "template", template, "error", err)
	}
}

func decisionVars(item *model.Item) map[string]string {
	return map[string]string{
		notification.VarRequesterName:     item.Requester.Name,
		notification.VarRequesterEmail:    item.Requester.Email,
		notification.VarActionKind:        string(item.Kind),
		notification.VarActionDescription: model.Describe(item.Action),
	}
}
