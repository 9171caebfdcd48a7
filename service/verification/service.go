package verification

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/viant/moderation/internal/clock"
	"github.com/viant/moderation/internal/idgen"
	"github.com/viant/moderation/internal/logging"
	"github.com/viant/moderation/internal/metrics"
	"github.com/viant/moderation/internal/otp"
	"github.com/viant/moderation/internal/storeerr"
	"github.com/viant/moderation/model"
	"github.com/viant/moderation/service/dao"
	"github.com/viant/moderation/service/notification"
	"github.com/viant/moderation/tracing"
)

// Service is the verification gate.
type Service struct {
	config     Config
	challenges dao.Conditional[string, model.Challenge]
	cooldowns  dao.Service[string, model.Cooldown]
	dispatcher notification.Dispatcher
	clock      clock.Clock
	logger     *logging.Logger
	metrics    *metrics.Metrics
	generate   func(length int) (string, error)
}

// New creates a gate over the supplied stores.
func New(challenges dao.Conditional[string, model.Challenge], cooldowns dao.Service[string, model.Cooldown], options ...Option) (*Service, error) {
	if challenges == nil {
		return nil, errors.New("challenge store is required")
	}
	if cooldowns == nil {
		return nil, errors.New("cooldown store is required")
	}
	s := &Service{
		config:     DefaultConfig(),
		challenges: challenges,
		cooldowns:  cooldowns,
		clock:      clock.System{},
		logger:     logging.Nop(),
		generate:   otp.Generate,
	}
	for _, opt := range options {
		opt(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if s.dispatcher == nil {
		return nil, errors.New("notification dispatcher is required")
	}
	return s, nil
}

// Config returns the active configuration.
func (s *Service) Config() Config { return s.config }

// RequestCode issues a challenge for action unless the requester's email
// passed verification within the cooldown window.
func (s *Service) RequestCode(ctx context.Context, requester model.Requester, action model.Action) (outcome Outcome, err error) {
	ctx, span := tracing.StartSpan(ctx, "verification.RequestCode", tracing.KindInternal)
	defer func() { tracing.EndSpan(span, err) }()

	requester = requester.Normalized()
	if err = model.ValidateRequester(requester, true); err != nil {
		return Outcome{}, err
	}
	if action.IsZero() {
		return Outcome{}, model.NewValidationError("payload", "payload is required")
	}
	span.WithAttributes(map[string]string{"action.kind": string(action.Kind())})

	cooldown, err := s.cooldowns.Load(ctx, requester.Email)
	if err != nil && !errors.Is(err, dao.ErrNotFound) {
		return Outcome{}, model.NewPersistenceError("load cooldown", err)
	}
	err = nil
	if cooldown.Active(s.clock.Now(), s.config.Cooldown) {
		s.metrics.ChallengeOutcome(OutcomeSkip.String())
		s.logger.DebugContext(ctx, "verification skipped, recently verified", "email", logging.MaskEmail(requester.Email))
		return Outcome{Kind: OutcomeSkip}, nil
	}

	challenge, err := s.issue(ctx, idgen.New(), requester, action)
	if err != nil {
		return Outcome{}, err
	}
	s.metrics.ChallengeOutcome(OutcomeChallengeIssued.String())
	return Outcome{Kind: OutcomeChallengeIssued, Handle: challenge.Handle()}, nil
}

// VerifyCode checks code against the challenge.  Every call that reaches the
// comparison counts as an attempt, including the one that succeeds.
func (s *Service) VerifyCode(ctx context.Context, challengeID, code string) (verified *Verified, err error) {
	ctx, span := tracing.StartSpan(ctx, "verification.VerifyCode", tracing.KindInternal)
	span.WithAttributes(map[string]string{"challenge.id": challengeID})
	defer func() {
		s.metrics.Verification(resultLabel(err))
		tracing.EndSpan(span, err)
	}()

	challenge, err := s.challenges.Load(ctx, challengeID)
	if err != nil {
		return nil, storeerr.Wrap("load challenge", "challenge", challengeID, err)
	}
	if err = s.checkUsable(challenge); err != nil {
		return nil, err
	}

	challenge, err = s.challenges.UpdateIf(ctx, challengeID, func(c *model.Challenge) error {
		if err := s.checkUsable(c); err != nil {
			return err
		}
		c.AttemptCount++
		return nil
	})
	if err != nil {
		return nil, storeerr.Wrap("count attempt", "challenge", challengeID, err)
	}
	if challenge.AttemptCount > s.config.MaxAttempts {
		return nil, model.ErrTooManyAttempts
	}

	matched, err := otp.Match(challenge.CodeHash, strings.TrimSpace(code))
	if err != nil {
		return nil, model.NewPersistenceError("compare code", err)
	}
	if !matched {
		return nil, model.ErrInvalidCode
	}

	now := s.clock.Now()
	challenge, err = s.challenges.UpdateIf(ctx, challengeID, func(c *model.Challenge) error {
		if err := s.checkUsable(c); err != nil {
			return err
		}
		consumedAt := now
		c.ConsumedAt = &consumedAt
		return nil
	})
	if err != nil {
		return nil, storeerr.Wrap("consume challenge", "challenge", challengeID, err)
	}

	if cErr := s.cooldowns.Save(ctx, &model.Cooldown{Email: challenge.Email, LastVerifiedAt: now}); cErr != nil {
		s.logger.WarnContext(ctx, "failed to record verification cooldown", "email", logging.MaskEmail(challenge.Email), "error", cErr)
	}
	return &Verified{ChallengeID: challenge.ID, Action: challenge.Action, Requester: challenge.Requester}, nil
}

// Consumed re-checks code against a challenge that was already verified and
// returns its snapshot.  It lets a caller retry a replay that failed after the
// challenge was consumed.  Attempts count against MaxAttempts as in VerifyCode.
func (s *Service) Consumed(ctx context.Context, challengeID, code string) (verified *Verified, err error) {
	ctx, span := tracing.StartSpan(ctx, "verification.Consumed", tracing.KindInternal)
	span.WithAttributes(map[string]string{"challenge.id": challengeID})
	defer func() { tracing.EndSpan(span, err) }()

	now := s.clock.Now()
	challenge, err := s.challenges.UpdateIf(ctx, challengeID, func(c *model.Challenge) error {
		if !c.Consumed() {
			return model.NewValidationError("challenge", "challenge is not verified")
		}
		if !now.Before(c.ExpiresAt) {
			return model.ErrExpiredCode
		}
		c.AttemptCount++
		return nil
	})
	if err != nil {
		return nil, storeerr.Wrap("count attempt", "challenge", challengeID, err)
	}
	if challenge.AttemptCount > s.config.MaxAttempts {
		return nil, model.ErrTooManyAttempts
	}
	matched, err := otp.Match(challenge.CodeHash, strings.TrimSpace(code))
	if err != nil {
		return nil, model.NewPersistenceError("compare code", err)
	}
	if !matched {
		return nil, model.ErrInvalidCode
	}
	return &Verified{ChallengeID: challenge.ID, Action: challenge.Action, Requester: challenge.Requester}, nil
}

// Resend replaces the challenge with a fresh one carrying the same snapshot.
// The replaced challenge can no longer be verified.
func (s *Service) Resend(ctx context.Context, challengeID string) (handle *model.Handle, err error) {
	ctx, span := tracing.StartSpan(ctx, "verification.Resend", tracing.KindInternal)
	span.WithAttributes(map[string]string{"challenge.id": challengeID})
	defer func() { tracing.EndSpan(span, err) }()

	replacementID := idgen.New()
	now := s.clock.Now()
	previous, err := s.challenges.UpdateIf(ctx, challengeID, func(c *model.Challenge) error {
		if c.Consumed() {
			return model.ErrAlreadyConsumed
		}
		if c.InvalidatedAt != nil {
			return model.ErrExpiredCode
		}
		invalidatedAt := now
		c.InvalidatedAt = &invalidatedAt
		c.ReplacedBy = replacementID
		return nil
	})
	if err != nil {
		return nil, storeerr.Wrap("invalidate challenge", "challenge", challengeID, err)
	}
	challenge, err := s.issue(ctx, replacementID, previous.Requester, previous.Action)
	if err != nil {
		return nil, err
	}
	s.metrics.ChallengeOutcome("resent")
	return challenge.Handle(), nil
}

// Purge removes challenges that expired before cutoff and cooldowns that
// lapsed before cutoff.  It returns the number of deleted records.
func (s *Service) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	challenges, err := s.challenges.List(ctx)
	if err != nil {
		return 0, model.NewPersistenceError("list challenges", err)
	}
	for _, challenge := range challenges {
		if !challenge.ExpiresAt.Before(cutoff) {
			continue
		}
		if err = s.challenges.Delete(ctx, challenge.ID); err != nil {
			return removed, model.NewPersistenceError("delete challenge", err)
		}
		removed++
	}
	cooldowns, err := s.cooldowns.List(ctx)
	if err != nil {
		return removed, model.NewPersistenceError("list cooldowns", err)
	}
	for _, cooldown := range cooldowns {
		if !cooldown.LastVerifiedAt.Add(s.config.Cooldown).Before(cutoff) {
			continue
		}
		if err = s.cooldowns.Delete(ctx, cooldown.Email); err != nil {
			return removed, model.NewPersistenceError("delete cooldown", err)
		}
		removed++
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "verification records purged", "count", removed, "cutoff", cutoff)
	}
	return removed, nil
}

func (s *Service) issue(ctx context.Context, id string, requester model.Requester, action model.Action) (*model.Challenge, error) {
	code, err := s.generate(s.config.CodeLength)
	if err != nil {
		return nil, model.NewPersistenceError("generate code", err)
	}
	hash, err := otp.Hash(code, s.config.HashCost)
	if err != nil {
		return nil, model.NewPersistenceError("hash code", err)
	}
	now := s.clock.Now()
	challenge := &model.Challenge{
		ID:        id,
		Email:     requester.Email,
		Kind:      action.Kind(),
		Action:    action,
		Requester: requester,
		CodeHash:  hash,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.CodeTTL),
	}
	if err = s.challenges.Insert(ctx, challenge); err != nil {
		return nil, model.NewPersistenceError("create challenge", err)
	}

	vars := map[string]string{
		notification.VarRequesterName:     requester.Name,
		notification.VarRequesterEmail:    requester.Email,
		notification.VarCode:              code,
		notification.VarExpiresAt:         challenge.ExpiresAt.Format(time.RFC1123),
		notification.VarActionKind:        string(action.Kind()),
		notification.VarActionDescription: model.Describe(action),
	}
	if err = s.dispatcher.Send(ctx, notification.TemplateVerificationCode, vars); err != nil {
		s.logger.WarnContext(ctx, "verification code not sent", "challenge_id", challenge.ID, "email", logging.MaskEmail(requester.Email), "error", err)
	}
	return challenge, nil
}

func (s *Service) checkUsable(c *model.Challenge) error {
	if c.Expired(s.clock.Now()) {
		return model.ErrExpiredCode
	}
	if c.Consumed() {
		return model.ErrAlreadyConsumed
	}
	return nil
}

func resultLabel(err error) string {
	if err == nil {
		return "verified"
	}
	return string(model.CodeOf(err))
}
