package verification

import (
	"fmt"
	"time"

	"github.com/viant/moderation/internal/otp"
	"github.com/viant/moderation/model"
)

// Config controls code issuance and checking.
type Config struct {
	// Enabled requires a code round-trip before an action is queued.
	Enabled bool `yaml:"enabled" json:"enabled"`

	CodeLength  int           `yaml:"codeLength" json:"codeLength"`
	CodeTTL     time.Duration `yaml:"codeTTL" json:"codeTTL"`
	MaxAttempts int           `yaml:"maxAttempts" json:"maxAttempts"`

	// Cooldown is how long a verified email skips further challenges; zero
	// always challenges.
	Cooldown time.Duration `yaml:"cooldown" json:"cooldown"`

	// ExemptKinds are queued without verification even when Enabled.
	ExemptKinds []model.ActionKind `yaml:"exemptKinds" json:"exemptKinds"`

	// HashCost is the bcrypt cost; zero uses the library default.
	HashCost int `yaml:"hashCost" json:"hashCost"`
}

// DefaultConfig returns the default gate settings.
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		CodeLength:  otp.DefaultLength,
		CodeTTL:     10 * time.Minute,
		MaxAttempts: 5,
		Cooldown:    time.Hour,
	}
}

// Required reports whether kind must pass verification before queueing.
func (c *Config) Required(kind model.ActionKind) bool {
	if !c.Enabled {
		return false
	}
	for _, exempt := range c.ExemptKinds {
		if exempt == kind {
			return false
		}
	}
	return true
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.CodeLength < 4 || c.CodeLength > 12 {
		return fmt.Errorf("verification.codeLength must be between 4 and 12, got %d", c.CodeLength)
	}
	if c.CodeTTL <= 0 {
		return fmt.Errorf("verification.codeTTL must be positive")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("verification.maxAttempts must be positive")
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("verification.cooldown cannot be negative")
	}
	for _, kind := range c.ExemptKinds {
		if !kind.Valid() {
			return fmt.Errorf("verification.exemptKinds: unsupported kind %q", kind)
		}
	}
	return nil
}
