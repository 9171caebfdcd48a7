package verification

import "github.com/viant/moderation/model"

// OutcomeKind tells the caller what RequestCode decided.
type OutcomeKind int

const (
	// OutcomeSkip means the email verified recently; the action may be queued directly.
	OutcomeSkip OutcomeKind = iota
	// OutcomeChallengeIssued means a code was sent and Handle identifies the challenge.
	OutcomeChallengeIssued
)

func (k OutcomeKind) String() string {
	if k == OutcomeChallengeIssued {
		return "challenge_issued"
	}
	return "skip"
}

// Outcome is the result of RequestCode.
type Outcome struct {
	Kind   OutcomeKind
	Handle *model.Handle
}

// Skipped reports whether no challenge was issued.
func (o Outcome) Skipped() bool { return o.Kind == OutcomeSkip }

// Verified is returned by a successful VerifyCode.  Action is the snapshot
// captured when the code was requested.
type Verified struct {
	ChallengeID string
	Action      model.Action
	Requester   model.Requester
}
