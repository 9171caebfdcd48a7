package approval

import (
	"time"

	"github.com/viant/moderation/internal/clock"
	"github.com/viant/moderation/internal/logging"
	"github.com/viant/moderation/internal/metrics"
	"github.com/viant/moderation/service/messaging"
	"github.com/viant/moderation/service/notification"
)

type Option func(*Processor)

// WithDispatcher sets where decision notifications go.
func WithDispatcher(dispatcher notification.Dispatcher) Option {
	return func(p *Processor) { p.dispatcher = dispatcher }
}

// WithEventQueue replaces the in-memory decision event queue.
func WithEventQueue(q messaging.Queue[Event]) Option {
	return func(p *Processor) { p.events = q }
}

// WithClaimTTL sets how long an approval claim blocks other reviewers.
func WithClaimTTL(ttl time.Duration) Option {
	return func(p *Processor) {
		if ttl > 0 {
			p.claimTTL = ttl
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(p *Processor) { p.clock = c }
}

func WithLogger(logger *logging.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}
