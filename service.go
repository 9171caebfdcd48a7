package moderation

import (
	"context"
	"fmt"

	"github.com/viant/afs"

	"github.com/viant/moderation/internal/clock"
	"github.com/viant/moderation/internal/logging"
	"github.com/viant/moderation/internal/metrics"
	"github.com/viant/moderation/model"
	"github.com/viant/moderation/service/approval"
	"github.com/viant/moderation/service/capture"
	"github.com/viant/moderation/service/dao/repository"
	"github.com/viant/moderation/service/identity"
	queue "github.com/viant/moderation/service/moderation"
	"github.com/viant/moderation/service/notification"
	"github.com/viant/moderation/service/verification"
	"github.com/viant/moderation/tracing"
)

// Service wires the verification gate, the capture dispatcher, the
// moderation queue, the approval processor and notification delivery.
type Service struct {
	config        *Config
	fs            afs.Service
	clock         clock.Clock
	logger        *logging.Logger
	metrics       *metrics.Metrics
	repository    *repository.Repository
	dispatcher    notification.Dispatcher
	sender        notification.Sender
	codeGenerator func(length int) (string, error)

	notifier *notification.Service
	gate     *verification.Service
	queue    *queue.Service
	capture  *capture.Service
	approval *approval.Processor
	identity *identity.Memory
}

// New builds a Service.  Stores are opened from config.Store unless
// WithRepository is supplied.
func New(ctx context.Context, options ...Option) (*Service, error) {
	s := &Service{config: DefaultConfig()}
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureBaseSetup(ctx); err != nil {
		return nil, err
	}
	if err := s.init(); err != nil {
		s.repository.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) ensureBaseSetup(ctx context.Context) error {
	if s.config.Tracing.Enabled {
		if err := tracing.Init(s.config.Tracing.ServiceName, s.config.Tracing.Version, s.config.Tracing.OutputFile); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.logger == nil {
		s.logger = logging.New(s.config.Log)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.repository == nil {
		repo, err := repository.New(ctx, s.config.Store, s.fs)
		if err != nil {
			return err
		}
		s.repository = repo
	}
	if s.dispatcher == nil {
		notifier, err := s.newNotifier(ctx)
		if err != nil {
			s.repository.Close()
			return err
		}
		s.notifier = notifier
		s.dispatcher = notifier
	}
	return nil
}

func (s *Service) newNotifier(ctx context.Context) (*notification.Service, error) {
	cfg := s.config.Notification
	options := []notification.Option{
		notification.WithConfig(cfg.Config),
		notification.WithLogger(s.logger),
		notification.WithMetrics(s.metrics),
		notification.WithClock(s.clock),
	}
	if cfg.TemplatesURL != "" {
		catalogue, err := notification.LoadCatalogue(ctx, s.fs, cfg.TemplatesURL)
		if err != nil {
			return nil, err
		}
		options = append(options, notification.WithCatalogue(catalogue))
	}
	sender := s.sender
	if sender == nil {
		var err error
		if sender, err = s.newSender(ctx); err != nil {
			return nil, err
		}
	}
	options = append(options, notification.WithSender(sender))
	return notification.New(options...), nil
}

func (s *Service) newSender(ctx context.Context) (notification.Sender, error) {
	cfg := s.config.Notification
	switch cfg.Sender {
	case SenderMemory:
		return notification.NewMemorySender(), nil
	case SenderSMTP:
		return notification.NewSMTPSender(ctx, cfg.SMTP)
	case SenderOutbox:
		return notification.NewOutboxSender(s.fs, cfg.OutboxURL)
	}
	return notification.NewLogSender(s.logger), nil
}

func (s *Service) init() error {
	var err error
	repo := s.repository
	if s.identity, err = identity.New(s.config.Identity.Size); err != nil {
		return err
	}
	gateOptions := []verification.Option{
		verification.WithConfig(s.config.Verification),
		verification.WithDispatcher(s.dispatcher),
		verification.WithClock(s.clock),
		verification.WithLogger(s.logger),
		verification.WithMetrics(s.metrics),
	}
	if s.codeGenerator != nil {
		gateOptions = append(gateOptions, verification.WithCodeGenerator(s.codeGenerator))
	}
	if s.gate, err = verification.New(repo.Challenges, repo.Cooldowns, gateOptions...); err != nil {
		return err
	}
	if s.queue, err = queue.New(repo.Items,
		queue.WithClock(s.clock),
		queue.WithLogger(s.logger),
		queue.WithMetrics(s.metrics)); err != nil {
		return err
	}
	if s.capture, err = capture.New(s.gate, s.queue,
		capture.WithPolicy(s.config.Verification.Required),
		capture.WithLogger(s.logger)); err != nil {
		return err
	}
	s.approval, err = approval.New(repo.Items,
		approval.Stores{Contents: repo.Contents, Updates: repo.Updates, Subscribers: repo.Subscribers},
		approval.WithDispatcher(s.dispatcher),
		approval.WithClaimTTL(s.config.Moderation.ClaimTTL),
		approval.WithClock(s.clock),
		approval.WithLogger(s.logger),
		approval.WithMetrics(s.metrics))
	return err
}

// Submit captures an action.  The receipt carries the queued item, or a flow
// awaiting the emailed code.
func (s *Service) Submit(ctx context.Context, requester model.Requester, payload model.Payload) (*capture.Receipt, error) {
	return s.capture.Submit(ctx, requester, payload)
}

// Verify checks code for challengeID and queues the captured action.
func (s *Service) Verify(ctx context.Context, challengeID, code string) (*model.Item, error) {
	return s.capture.Verify(ctx, challengeID, code)
}

// Resend replaces a pending challenge with a fresh code.
func (s *Service) Resend(ctx context.Context, challengeID string) (*model.Handle, error) {
	return s.capture.Resend(ctx, challengeID)
}

// ListPending returns pending items, newest first; an empty kind matches all.
func (s *Service) ListPending(ctx context.Context, kind model.ActionKind) ([]*model.Item, error) {
	return s.queue.ListPending(ctx, kind)
}

// List returns items filtered by status and kind.
func (s *Service) List(ctx context.Context, status model.Status, kind model.ActionKind) ([]*model.Item, error) {
	return s.queue.List(ctx, status, kind)
}

// Load returns the item stored under id.
func (s *Service) Load(ctx context.Context, id string) (*model.Item, error) {
	return s.queue.Load(ctx, id)
}

// Approve applies the item's effects and marks it approved.
func (s *Service) Approve(ctx context.Context, id string) (*approval.Decision, error) {
	return s.approval.Approve(ctx, id)
}

// Deny marks the item denied with reason.
func (s *Service) Deny(ctx context.Context, id, reason string) (*approval.Decision, error) {
	return s.approval.Deny(ctx, id, reason)
}

// Purge removes challenges that expired before the configured retention window.
func (s *Service) Purge(ctx context.Context) (int, error) {
	cutoff := s.clock.Now().Add(-s.config.Housekeeping.Retention)
	return s.gate.Purge(ctx, cutoff)
}

// Start launches the notification workers.
func (s *Service) Start(ctx context.Context) error {
	if s.notifier == nil {
		return nil
	}
	return s.notifier.Start(ctx)
}

// Shutdown stops the workers and releases the stores.
func (s *Service) Shutdown(_ context.Context) error {
	if s.notifier != nil {
		s.notifier.Shutdown()
	}
	s.repository.Close()
	return nil
}

func (s *Service) Config() *Config { return s.config }

func (s *Service) Logger() *logging.Logger { return s.logger }

func (s *Service) Metrics() *metrics.Metrics { return s.metrics }

// Identity returns the device autofill memory.
func (s *Service) Identity() *identity.Memory { return s.identity }

// Approval exposes the processor, including its decision event queue.
func (s *Service) Approval() *approval.Processor { return s.approval }

func (s *Service) Repository() *repository.Repository { return s.repository }
