package verification

import (
	"github.com/viant/moderation/internal/clock"
	"github.com/viant/moderation/internal/logging"
	"github.com/viant/moderation/internal/metrics"
	"github.com/viant/moderation/service/notification"
)

// Option configures the gate.
type Option func(*Service)

func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// WithDispatcher sets where issued codes are sent.
func WithDispatcher(dispatcher notification.Dispatcher) Option {
	return func(s *Service) { s.dispatcher = dispatcher }
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(fn func(length int) (string, error)) Option {
	return func(s *Service) { s.generate = fn }
}
