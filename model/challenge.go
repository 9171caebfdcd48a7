package model

import (
	"strings"
	"time"
)

// Requester is the self-declared identity attached to a submission.
// It is never treated as proof of identity.
type Requester struct {
	Name  string `json:"name,omitempty" validate:"max=200"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// Normalized returns the requester with trimmed name and canonical email.
func (r Requester) Normalized() Requester {
	return Requester{Name: strings.TrimSpace(r.Name), Email: NormalizeEmail(r.Email)}
}

// NormalizeEmail lower-cases and trims an address so that lookups keyed by
// email are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Challenge is a single-use, time-limited one-time code bound to an email and
// a captured action snapshot.  Only the code hash is persisted.
type Challenge struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Kind          ActionKind `json:"kind"`
	Action        Action     `json:"action"`
	Requester     Requester  `json:"requester"`
	CodeHash      string     `json:"codeHash"`
	CreatedAt     time.Time  `json:"createdAt"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	AttemptCount  int        `json:"attemptCount"`
	ConsumedAt    *time.Time `json:"consumedAt,omitempty"`
	InvalidatedAt *time.Time `json:"invalidatedAt,omitempty"`
	ReplacedBy    string     `json:"replacedBy,omitempty"`
}

// Expired reports whether the challenge can no longer be verified because of
// its deadline or because a resend replaced it.
func (c *Challenge) Expired(now time.Time) bool {
	return c.InvalidatedAt != nil || !now.Before(c.ExpiresAt)
}

// Consumed reports whether the challenge was successfully verified.
func (c *Challenge) Consumed() bool { return c.ConsumedAt != nil }

// Handle returns the caller-facing reference to the challenge.
func (c *Challenge) Handle() *Handle {
	return &Handle{ChallengeID: c.ID, ExpiresAt: c.ExpiresAt}
}

// Handle identifies an issued challenge without exposing its code.
type Handle struct {
	ChallengeID string    `json:"challengeId"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Cooldown records when an email last passed verification.
type Cooldown struct {
	Email          string    `json:"email"`
	LastVerifiedAt time.Time `json:"lastVerifiedAt"`
}

// Active reports whether now falls within window of the last verification.
func (c *Cooldown) Active(now time.Time, window time.Duration) bool {
	if c == nil || window <= 0 {
		return false
	}
	return now.Sub(c.LastVerifiedAt) < window
}
