package notification

import (
	"github.com/cenkalti/backoff/v4"

	"github.com/viant/moderation/internal/clock"
	"github.com/viant/moderation/internal/logging"
	"github.com/viant/moderation/internal/metrics"
	"github.com/viant/moderation/service/messaging"
)

// Option configures the notification Service.
type Option func(*Service)

// WithConfig sets worker configuration; zero fields keep their defaults.
func WithConfig(config Config) Option {
	return func(s *Service) {
		defaults := DefaultConfig()
		if config.Workers == 0 {
			config.Workers = defaults.Workers
		}
		if config.QueueBuffer == 0 {
			config.QueueBuffer = defaults.QueueBuffer
		}
		if config.RetryDelay == 0 {
			config.RetryDelay = defaults.RetryDelay
		}
		s.config = config
	}
}

// WithQueue sets the message queue implementation.
func WithQueue(queue messaging.Queue[Notification]) Option {
	return func(s *Service) { s.queue = queue }
}

// WithCatalogue sets the template catalogue.
func WithCatalogue(catalogue *Catalogue) Option {
	return func(s *Service) { s.catalogue = catalogue }
}

// WithSender sets the delivery channel.
func WithSender(sender Sender) Option {
	return func(s *Service) { s.sender = sender }
}

func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithBackOff overrides the per delivery retry policy.
func WithBackOff(factory func() backoff.BackOff) Option {
	return func(s *Service) { s.newBackOff = factory }
}
