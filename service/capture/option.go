package capture

import (
	"github.com/viant/moderation/internal/logging"
	"github.com/viant/moderation/model"
)

type Option func(*Service)

// WithPolicy decides per kind whether verification is required.
func WithPolicy(required func(kind model.ActionKind) bool) Option {
	return func(s *Service) { s.required = required }
}

func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) { s.logger = logger }
}
