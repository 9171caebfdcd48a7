package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/viant/moderation/internal/expr"
	"github.com/viant/moderation/internal/logging"
	"github.com/viant/moderation/internal/yml"
	"github.com/viant/moderation/service/approval"
	"github.com/viant/moderation/service/dao/repository"
	"github.com/viant/moderation/service/identity"
	"github.com/viant/moderation/service/notification"
	"github.com/viant/moderation/service/verification"
)

// Config is a serialisable representation of the service configuration.  The
// zero value of any nested field falls back to its package default.
type Config struct {
	Verification verification.Config `json:"verification" yaml:"verification"`
	Moderation   ModerationConfig    `json:"moderation" yaml:"moderation"`
	Store        repository.Config   `json:"store" yaml:"store"`
	Notification NotificationConfig  `json:"notification" yaml:"notification"`
	Housekeeping HousekeepingConfig  `json:"housekeeping" yaml:"housekeeping"`
	HTTP         HTTPConfig          `json:"http" yaml:"http"`
	Identity     IdentityConfig      `json:"identity" yaml:"identity"`
	Log          logging.Config      `json:"log" yaml:"log"`
	Tracing      TracingConfig       `json:"tracing" yaml:"tracing"`
}

type ModerationConfig struct {
	// ClaimTTL is how long an unfinished approval blocks other reviewers.
	ClaimTTL time.Duration `json:"claimTTL" yaml:"claimTTL"`
}

// Notification senders.
const (
	SenderLog    = notification.SenderLog
	SenderMemory = notification.SenderMemory
	SenderSMTP   = notification.SenderSMTP
	SenderOutbox = notification.SenderOutbox
)

type NotificationConfig struct {
	notification.Config `json:",inline" yaml:",inline"`
	Sender              string                  `json:"sender" yaml:"sender"`
	SMTP                notification.SMTPConfig `json:"smtp" yaml:"smtp"`
	OutboxURL           string                  `json:"outboxURL,omitempty" yaml:"outboxURL,omitempty"`
	TemplatesURL        string                  `json:"templatesURL,omitempty" yaml:"templatesURL,omitempty"`
}

type HousekeepingConfig struct {
	// Schedule is a cron spec for purging stale challenges; empty disables it.
	Schedule  string        `json:"schedule" yaml:"schedule"`
	Retention time.Duration `json:"retention" yaml:"retention"`
}

type HTTPConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

type IdentityConfig struct {
	Size int `json:"size" yaml:"size"`
}

type TracingConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	ServiceName string `json:"serviceName" yaml:"serviceName"`
	Version     string `json:"version" yaml:"version"`
	// OutputFile receives spans; stdout when empty.
	OutputFile string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() *Config {
	return &Config{
		Verification: verification.DefaultConfig(),
		Moderation:   ModerationConfig{ClaimTTL: approval.DefaultClaimTTL},
		Store:        repository.DefaultConfig(),
		Notification: NotificationConfig{Config: notification.DefaultConfig(), Sender: SenderLog},
		Housekeeping: HousekeepingConfig{Schedule: "@every 1h", Retention: 24 * time.Hour},
		HTTP:         HTTPConfig{Addr: ":8080"},
		Identity:     IdentityConfig{Size: identity.DefaultSize},
		Log:          logging.Config{Level: "info", Format: "json"},
		Tracing:      TracingConfig{ServiceName: "moderation", Version: "1.0.0"},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if err := c.Verification.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Store.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Moderation.ClaimTTL < 0 {
		errs = append(errs, errors.New("moderation.claimTTL must be >= 0"))
	}
	switch c.Notification.Sender {
	case "", SenderLog, SenderMemory:
	case SenderSMTP:
		if c.Notification.SMTP.Host == "" {
			errs = append(errs, errors.New("notification.smtp.host is required"))
		}
	case SenderOutbox:
		if c.Notification.OutboxURL == "" {
			errs = append(errs, errors.New("notification.outboxURL is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported notification sender %q", c.Notification.Sender))
	}
	if c.Housekeeping.Schedule != "" {
		if _, err := cron.ParseStandard(c.Housekeeping.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("housekeeping.schedule: %w", err))
		}
		if c.Housekeeping.Retention <= 0 {
			errs = append(errs, errors.New("housekeeping.retention must be > 0"))
		}
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML document from URL, expands ${env.KEY} references and
// layers it over DefaultConfig.
func LoadConfig(ctx context.Context, fs afs.Service, URL string) (*Config, error) {
	if fs == nil {
		fs = afs.New()
	}
	if !strings.Contains(URL, "://") {
		URL = url.Normalize(URL, file.Scheme)
	}
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", URL, err)
	}
	node, err := yml.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", URL, err)
	}
	node.ExpandScalars(expr.ExpandEnv)
	config := DefaultConfig()
	if err = node.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", URL, err)
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
