package model

import "time"

// Status is the moderation state of an item.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

// Terminal reports whether no further transition is defined.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDenied
}

// Item is a reviewable submission.  Status moves only pending→approved or
// pending→denied; DenialReason is set iff Status is denied.
type Item struct {
	ID           string     `json:"id"`
	Kind         ActionKind `json:"kind"`
	Action       Action     `json:"action"`
	Requester    Requester  `json:"requester"`
	ChallengeID  string     `json:"challengeId,omitempty"`
	SubmittedAt  time.Time  `json:"submittedAt"`
	Status       Status     `json:"status"`
	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`
	DenialReason string     `json:"denialReason,omitempty"`
	TargetID     string     `json:"targetId,omitempty"`

	// ClaimToken marks an approval in progress; the item stays pending until
	// the claim holder finalizes it.
	ClaimToken string     `json:"claimToken,omitempty"`
	ClaimedAt  *time.Time `json:"claimedAt,omitempty"`
}

// Claimable reports whether an approver may start working on the item.
// Claims older than ttl are considered abandoned.
func (i *Item) Claimable(now time.Time, ttl time.Duration) bool {
	if i.Status != StatusPending {
		return false
	}
	if i.ClaimToken == "" || i.ClaimedAt == nil {
		return true
	}
	return ttl > 0 && now.Sub(*i.ClaimedAt) >= ttl
}
