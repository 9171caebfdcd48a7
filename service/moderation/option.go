package moderation

import (
	"github.com/viant/moderation/internal/clock"
	"github.com/viant/moderation/internal/logging"
	"github.com/viant/moderation/internal/metrics"
)

type Option func(*Service)

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}
