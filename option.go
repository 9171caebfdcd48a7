package moderation

import (
	"github.com/viant/afs"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/viant/moderation/internal/clock"
	"github.com/viant/moderation/internal/logging"
	"github.com/viant/moderation/internal/metrics"
	"github.com/viant/moderation/service/dao/repository"
	"github.com/viant/moderation/service/notification"
	"github.com/viant/moderation/tracing"
)

// Option customises Service.
type Option func(s *Service)

// WithConfig sets the configuration; nil keeps DefaultConfig.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithClock replaces the wall clock used for expiry, cooldown and review stamps.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithFS sets the afs service used by the fs store, outbox and template loading.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithRepository supplies prebuilt stores instead of opening config.Store.
func WithRepository(repo *repository.Repository) Option {
	return func(s *Service) { s.repository = repo }
}

// WithDispatcher bypasses the queued notification service.
func WithDispatcher(dispatcher notification.Dispatcher) Option {
	return func(s *Service) { s.dispatcher = dispatcher }
}

// WithSender sets the delivery transport of the notification workers.
func WithSender(sender notification.Sender) Option {
	return func(s *Service) { s.sender = sender }
}

// WithCodeGenerator replaces the one-time code generator.
func WithCodeGenerator(fn func(length int) (string, error)) Option {
	return func(s *Service) { s.codeGenerator = fn }
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times – the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter, for example OTLP.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
