package notification

import (
	"context"
	"sync"
	"time"
)

// Template keys.
const (
	TemplateVerificationCode = "verification.code"
	TemplateApproved         = "moderation.approved"
	TemplateDenied           = "moderation.denied"
)

// Template variables.
const (
	VarRequesterName      = "requester_name"
	VarRequesterEmail     = "requester_email"
	VarCode               = "code"
	VarContentTitle       = "content_title"
	VarContentDescription = "content_description"
	VarRequestedStatus    = "requested_status"
	VarDenialReason       = "denial_reason"
	VarActionDescription  = "action_description"
	VarActionKind         = "action_kind"
	VarExpiresAt          = "expires_at"
	VarChangeDiff         = "change_diff"
)

// Dispatcher accepts a notification for delivery.
type Dispatcher interface {
	Send(ctx context.Context, templateKey string, vars map[string]string) error
}

// Notification is the queued unit of work.
type Notification struct {
	Template  string            `json:"template"`
	Vars      map[string]string `json:"vars"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Recipient returns the destination address.
func (n *Notification) Recipient() string {
	return n.Vars[VarRequesterEmail]
}

// Sent is a notification captured by Recorder.
type Sent struct {
	Template string
	Vars     map[string]string
}

// Recorder is a synchronous Dispatcher keeping every call; Err, when set, is
// returned from Send after recording.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
	Err  error
}

func (r *Recorder) Send(_ context.Context, templateKey string, vars map[string]string) error {
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{Template: templateKey, Vars: copied})
	return r.Err
}

// Sent returns the recorded notifications.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sent, len(r.sent))
	copy(out, r.sent)
	return out
}

// Last returns the most recent notification for templateKey.
func (r *Recorder) Last(templateKey string) (Sent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.sent) - 1; i >= 0; i-- {
		if r.sent[i].Template == templateKey {
			return r.sent[i], true
		}
	}
	return Sent{}, false
}
