package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/viant/moderation/internal/clock"
	"github.com/viant/moderation/internal/idgen"
	"github.com/viant/moderation/internal/logging"
	"github.com/viant/moderation/internal/metrics"
	"github.com/viant/moderation/model"
	"github.com/viant/moderation/service/messaging"
	"github.com/viant/moderation/service/messaging/memory"
	"github.com/viant/moderation/tracing"
)

// Config represents notification worker configuration.
type Config struct {
	// Workers is the number of goroutines delivering notifications.
	Workers int `yaml:"workers" json:"workers"`

	// QueueBuffer bounds the in-memory queue.
	QueueBuffer int `yaml:"queueBuffer" json:"queueBuffer"`

	// MaxRetries is the number of delivery retries after the first attempt.
	MaxRetries int `yaml:"maxRetries" json:"maxRetries"`

	// RetryDelay is the initial delay between delivery attempts.
	RetryDelay time.Duration `yaml:"retryDelay" json:"retryDelay"`
}

// DefaultConfig returns the default worker configuration.
func DefaultConfig() Config {
	return Config{
		Workers:     2,
		QueueBuffer: 256,
		MaxRetries:  3,
		RetryDelay:  500 * time.Millisecond,
	}
}

// Service queues notifications and delivers them from a worker pool.
type Service struct {
	config     Config
	queue      messaging.Queue[Notification]
	catalogue  *Catalogue
	sender     Sender
	logger     *logging.Logger
	metrics    *metrics.Metrics
	clock      clock.Clock
	newBackOff func() backoff.BackOff

	mu       sync.Mutex
	started  bool
	cancelFn context.CancelFunc
	workerWg sync.WaitGroup
}

// New creates a notification service.  Without options it renders the
// built-in templates and logs deliveries.
func New(options ...Option) *Service {
	s := &Service{
		config: DefaultConfig(),
		logger: logging.Nop(),
		clock:  clock.System{},
	}
	for _, opt := range options {
		opt(s)
	}
	if s.catalogue == nil {
		s.catalogue = DefaultCatalogue()
	}
	if s.sender == nil {
		s.sender = NewLogSender(s.logger)
	}
	if s.queue == nil {
		s.queue = memory.NewQueue[Notification](memory.Config{
			QueueBuffer: s.config.QueueBuffer,
			DeadLetter:  true,
		})
	}
	if s.newBackOff == nil {
		s.newBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = s.config.RetryDelay
			return backoff.WithMaxRetries(b, uint64(max(s.config.MaxRetries, 0)))
		}
	}
	return s
}

// Send validates the template and queues the notification.  A notification
// without a recipient is dropped.
func (s *Service) Send(ctx context.Context, templateKey string, vars map[string]string) error {
	if !s.catalogue.Has(templateKey) {
		return model.NewNotificationError(templateKey, fmt.Errorf("unknown template"))
	}
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	n := &Notification{Template: templateKey, Vars: copied, CreatedAt: s.clock.Now()}
	if n.Recipient() == "" {
		s.logger.DebugContext(ctx, "notification skipped, no recipient", "template", templateKey)
		s.metrics.Notification(templateKey, "skipped")
		return nil
	}
	if err := s.queue.Publish(ctx, n); err != nil {
		s.metrics.Notification(templateKey, "rejected")
		return model.NewNotificationError(templateKey, err)
	}
	return nil
}

// Start launches the worker pool; it stops when ctx is done or on Shutdown.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("notification workers already started")
	}
	s.started = true
	workerCtx, cancel := context.WithCancel(ctx)
	s.cancelFn = cancel
	count := s.config.Workers
	if count <= 0 {
		count = 1
	}
	for i := 0; i < count; i++ {
		s.workerWg.Add(1)
		go s.run(workerCtx, i)
	}
	return nil
}

// Shutdown stops the workers and waits for in-flight deliveries.
func (s *Service) Shutdown() {
	s.mu.Lock()
	cancel := s.cancelFn
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.workerWg.Wait()
}

func (s *Service) run(ctx context.Context, id int) {
	defer s.workerWg.Done()
	for {
		msg, err := s.queue.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("notification consume failed", "worker", id, "error", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if msg == nil {
			continue
		}
		if err = s.process(ctx, msg); err != nil {
			s.logger.WarnContext(ctx, "notification dropped", "worker", id, "error", err)
		}
	}
}

func (s *Service) process(ctx context.Context, msg messaging.Message[Notification]) (err error) {
	n := msg.T()
	ctx, span := tracing.StartSpan(ctx, "notification.deliver", tracing.KindProducer)
	span.WithAttributes(map[string]string{"template": n.Template, "message.id": msg.ID()})
	defer func() { tracing.EndSpan(span, err) }()

	rendered, err := s.catalogue.Render(n.Template, n.Vars)
	if err != nil {
		s.metrics.Notification(n.Template, "failed")
		_ = msg.Nack(err)
		return model.NewNotificationError(n.Template, err)
	}
	delivery := &Delivery{
		ID:       msg.ID(),
		Template: n.Template,
		To:       n.Recipient(),
		Subject:  rendered.Subject,
		Body:     rendered.Body,
		SentAt:   s.clock.Now(),
	}
	if delivery.ID == "" {
		delivery.ID = idgen.New()
	}
	operation := func() error { return s.sender.Deliver(ctx, delivery) }
	if err = backoff.Retry(operation, backoff.WithContext(s.newBackOff(), ctx)); err != nil {
		s.metrics.Notification(n.Template, "failed")
		_ = msg.Nack(err)
		return model.NewNotificationError(n.Template, err)
	}
	s.metrics.Notification(n.Template, "sent")
	return msg.Ack()
}

var _ Dispatcher = (*Service)(nil)
var _ Dispatcher = (*Recorder)(nil)
