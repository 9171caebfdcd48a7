package capture

import (
	"context"
	"errors"

	"github.com/viant/moderation/internal/logging"
	"github.com/viant/moderation/model"
	"github.com/viant/moderation/service/dao"
	"github.com/viant/moderation/service/moderation"
	"github.com/viant/moderation/service/verification"
	"github.com/viant/moderation/tracing"
)

// Gate is the verification round-trip used by the dispatcher.
type Gate interface {
	RequestCode(ctx context.Context, requester model.Requester, action model.Action) (verification.Outcome, error)
	VerifyCode(ctx context.Context, challengeID, code string) (*verification.Verified, error)
	Consumed(ctx context.Context, challengeID, code string) (*verification.Verified, error)
	Resend(ctx context.Context, challengeID string) (*model.Handle, error)
}

// Queue accepts replayed actions.
type Queue interface {
	Enqueue(ctx context.Context, request moderation.Request) (*model.Item, error)
}

// Receipt is the result of Submit: either the queued Item or a Flow awaiting
// the emailed code.
type Receipt struct {
	Item *model.Item
	Flow *Flow
}

// Pending reports whether the submission still waits for verification.
func (r *Receipt) Pending() bool { return r != nil && r.Flow != nil }

// Service is the capture/replay dispatcher.
type Service struct {
	gate     Gate
	queue    Queue
	required func(kind model.ActionKind) bool
	logger   *logging.Logger
}

// New creates a dispatcher.  Without WithPolicy every kind requires verification.
func New(gate Gate, queue Queue, options ...Option) (*Service, error) {
	if queue == nil {
		return nil, errors.New("moderation queue is required")
	}
	s := &Service{
		gate:     gate,
		queue:    queue,
		required: func(model.ActionKind) bool { return true },
		logger:   logging.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.gate == nil {
		s.required = func(model.ActionKind) bool { return false }
	}
	return s, nil
}

// Submit validates and snapshots payload.  Nothing is written when
// validation fails.
func (s *Service) Submit(ctx context.Context, requester model.Requester, payload model.Payload) (receipt *Receipt, err error) {
	ctx, span := tracing.StartSpan(ctx, "capture.Submit", tracing.KindInternal)
	defer func() { tracing.EndSpan(span, err) }()

	if err = model.ValidatePayload(payload); err != nil {
		return nil, err
	}
	action, err := model.NewAction(payload)
	if err != nil {
		return nil, err
	}
	requester = defaultRequester(requester.Normalized(), action)
	required := s.required(action.Kind())
	if err = model.ValidateRequester(requester, required); err != nil {
		return nil, err
	}
	span.WithAttributes(map[string]string{"action.kind": string(action.Kind())})

	if required {
		var outcome verification.Outcome
		if outcome, err = s.gate.RequestCode(ctx, requester, action); err != nil {
			return nil, err
		}
		if !outcome.Skipped() {
			return &Receipt{Flow: &Flow{service: s, handle: *outcome.Handle, action: action, requester: requester}}, nil
		}
	}
	var item *model.Item
	if item, err = s.replay(ctx, action, requester, ""); err != nil {
		return nil, err
	}
	return &Receipt{Item: item}, nil
}

// Verify checks code and queues the snapshot stored with the challenge.  The
// item id derives from the challenge id, so a challenge yields at most one item.
// A consumed challenge whose item was never queued is replayed again when the
// same code is presented.
func (s *Service) Verify(ctx context.Context, challengeID, code string) (item *model.Item, err error) {
	ctx, span := tracing.StartSpan(ctx, "capture.Verify", tracing.KindInternal)
	defer func() { tracing.EndSpan(span, err) }()
	if s.gate == nil {
		return nil, model.NewNotFoundError("challenge", challengeID)
	}
	verified, err := s.gate.VerifyCode(ctx, challengeID, code)
	if errors.Is(err, model.ErrAlreadyConsumed) {
		verified, err = s.reconsume(ctx, challengeID, code)
	}
	if err != nil {
		return nil, err
	}
	item, err = s.replay(ctx, verified.Action, verified.Requester, verified.ChallengeID)
	if errors.Is(err, dao.ErrExists) {
		return nil, model.ErrAlreadyConsumed
	}
	return item, err
}

// reconsume returns the snapshot of a consumed challenge for a second replay
// attempt.  Anything but a persistence failure reads as already consumed.
func (s *Service) reconsume(ctx context.Context, challengeID, code string) (*verification.Verified, error) {
	verified, err := s.gate.Consumed(ctx, challengeID, code)
	if err == nil {
		return verified, nil
	}
	if model.CodeOf(err) == model.CodePersistence {
		return nil, err
	}
	return nil, model.ErrAlreadyConsumed
}

// Resend asks the gate for a replacement code.
func (s *Service) Resend(ctx context.Context, challengeID string) (*model.Handle, error) {
	if s.gate == nil {
		return nil, model.NewNotFoundError("challenge", challengeID)
	}
	return s.gate.Resend(ctx, challengeID)
}

// ItemID returns the moderation item id used for a verified challenge.
func ItemID(challengeID string) string {
	return "ver-" + challengeID
}

func (s *Service) replay(ctx context.Context, action model.Action, requester model.Requester, challengeID string) (*model.Item, error) {
	r := &replayer{queue: s.queue, requester: requester, challengeID: challengeID}
	if challengeID != "" {
		r.id = ItemID(challengeID)
	}
	if err := action.Accept(ctx, r); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "action captured", "item_id", r.item.ID, "kind", r.item.Kind, "verified", challengeID != "")
	return r.item, nil
}

func defaultRequester(requester model.Requester, action model.Action) model.Requester {
	if p, ok := action.Payload().(model.PreferenceChange); ok {
		if requester.Name == "" {
			requester.Name = p.Name
		}
		if requester.Email == "" {
			requester.Email = model.NormalizeEmail(p.Email)
		}
	}
	return requester
}
