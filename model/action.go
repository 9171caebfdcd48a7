package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ActionKind identifies one of the fixed categories of community-proposed change.
type ActionKind string

const (
	KindContentUpdate    ActionKind = "content_update"
	KindContentDeletion  ActionKind = "content_deletion"
	KindStatusChange     ActionKind = "status_change"
	KindUpdateDeletion   ActionKind = "update_deletion"
	KindPreferenceChange ActionKind = "preference_change"
)

// Kinds returns every supported action kind.
func Kinds() []ActionKind {
	return []ActionKind{
		KindContentUpdate,
		KindContentDeletion,
		KindStatusChange,
		KindUpdateDeletion,
		KindPreferenceChange,
	}
}

// Valid reports whether k is a supported kind.
func (k ActionKind) Valid() bool {
	for _, candidate := range Kinds() {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseKind converts raw input into an ActionKind.
func ParseKind(raw string) (ActionKind, error) {
	kind := ActionKind(strings.TrimSpace(strings.ToLower(raw)))
	if !kind.Valid() {
		return "", NewValidationError("kind", fmt.Sprintf("unsupported action kind %q", raw))
	}
	return kind, nil
}

// Visitor receives exactly one callback per payload variant.
type Visitor interface {
	ContentUpdate(ctx context.Context, p ContentUpdate) error
	ContentDeletion(ctx context.Context, p ContentDeletion) error
	StatusChange(ctx context.Context, p StatusChange) error
	UpdateDeletion(ctx context.Context, p UpdateDeletion) error
	PreferenceChange(ctx context.Context, p PreferenceChange) error
}

// Payload is the tagged union of kind-specific action data.
type Payload interface {
	Kind() ActionKind
	Accept(ctx context.Context, v Visitor) error
	isPayload()
}

// ContentUpdate proposes new or revised content, optionally with a status update message.
// An empty ContentID creates a new content entry.
type ContentUpdate struct {
	ContentID   string `json:"contentId,omitempty"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=5000"`
	Message     string `json:"message,omitempty" validate:"max=5000"`
}

// ContentDeletion asks for a content entry and its updates to be removed.
type ContentDeletion struct {
	ContentID string `json:"contentId" validate:"required"`
	Reason    string `json:"reason,omitempty" validate:"max=2000"`
}

// StatusChange asks for the status of a content entry to change.
type StatusChange struct {
	ContentID string `json:"contentId" validate:"required"`
	Status    string `json:"status" validate:"required,max=64"`
}

// UpdateDeletion asks for a single status update to be removed.
type UpdateDeletion struct {
	UpdateID  string `json:"updateId" validate:"required"`
	ContentID string `json:"contentId,omitempty"`
	Reason    string `json:"reason,omitempty" validate:"max=2000"`
}

// PreferenceChange asks for a subscriber's notification preference to be set.
type PreferenceChange struct {
	Name   string `json:"name" validate:"required,max=200"`
	Email  string `json:"email" validate:"required,email"`
	Notify bool   `json:"notify"`
}

func (ContentUpdate) Kind() ActionKind    { return KindContentUpdate }
func (ContentDeletion) Kind() ActionKind  { return KindContentDeletion }
func (StatusChange) Kind() ActionKind     { return KindStatusChange }
func (UpdateDeletion) Kind() ActionKind   { return KindUpdateDeletion }
func (PreferenceChange) Kind() ActionKind { return KindPreferenceChange }

func (p ContentUpdate) Accept(ctx context.Context, v Visitor) error   { return v.ContentUpdate(ctx, p) }
func (p ContentDeletion) Accept(ctx context.Context, v Visitor) error { return v.ContentDeletion(ctx, p) }
func (p StatusChange) Accept(ctx context.Context, v Visitor) error    { return v.StatusChange(ctx, p) }
func (p UpdateDeletion) Accept(ctx context.Context, v Visitor) error  { return v.UpdateDeletion(ctx, p) }
func (p PreferenceChange) Accept(ctx context.Context, v Visitor) error {
	return v.PreferenceChange(ctx, p)
}

func (ContentUpdate) isPayload()    {}
func (ContentDeletion) isPayload()  {}
func (StatusChange) isPayload()     {}
func (UpdateDeletion) isPayload()   {}
func (PreferenceChange) isPayload() {}

// Action is an immutable snapshot of a submitted payload.
// Variants are value types, so copying an Action never shares mutable state.
type Action struct {
	payload Payload
}

// NewAction captures payload; pointer variants are dereferenced so the snapshot
// cannot be changed through the caller's reference.
func NewAction(payload Payload) (Action, error) {
	switch actual := payload.(type) {
	case nil:
		return Action{}, NewValidationError("payload", "payload is required")
	case *ContentUpdate:
		return Action{payload: *actual}, nil
	case *ContentDeletion:
		return Action{payload: *actual}, nil
	case *StatusChange:
		return Action{payload: *actual}, nil
	case *UpdateDeletion:
		return Action{payload: *actual}, nil
	case *PreferenceChange:
		return Action{payload: *actual}, nil
	default:
		return Action{payload: payload}, nil
	}
}

// MustAction is NewAction for payloads known to be non-nil.
func MustAction(payload Payload) Action {
	action, err := NewAction(payload)
	if err != nil {
		panic(err)
	}
	return action
}

// Kind returns the payload kind, or "" for the zero Action.
func (a Action) Kind() ActionKind {
	if a.payload == nil {
		return ""
	}
	return a.payload.Kind()
}

// Payload returns the captured payload value.
func (a Action) Payload() Payload { return a.payload }

// IsZero reports whether no payload was captured.
func (a Action) IsZero() bool { return a.payload == nil }

// Accept dispatches the payload to the matching visitor method.
func (a Action) Accept(ctx context.Context, v Visitor) error {
	if a.payload == nil {
		return NewValidationError("payload", "payload is required")
	}
	return a.payload.Accept(ctx, v)
}

type actionEnvelope struct {
	Kind    ActionKind      `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalJSON encodes the action as {"kind": ..., "payload": {...}}.
func (a Action) MarshalJSON() ([]byte, error) {
	if a.payload == nil {
		return []byte("null"), nil
	}
	data, err := json.Marshal(a.payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(actionEnvelope{Kind: a.payload.Kind(), Payload: data})
}

// UnmarshalJSON decodes the envelope produced by MarshalJSON.
func (a *Action) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		a.payload = nil
		return nil
	}
	var envelope actionEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	payload, err := DecodePayload(envelope.Kind, envelope.Payload)
	if err != nil {
		return err
	}
	a.payload = payload
	return nil
}

// DecodePayload decodes raw JSON into the variant registered for kind.
func DecodePayload(kind ActionKind, data json.RawMessage) (Payload, error) {
	var (
		payload Payload
		err     error
	)
	switch kind {
	case KindContentUpdate:
		var p ContentUpdate
		err = unmarshalPayload(data, &p)
		payload = p
	case KindContentDeletion:
		var p ContentDeletion
		err = unmarshalPayload(data, &p)
		payload = p
	case KindStatusChange:
		var p StatusChange
		err = unmarshalPayload(data, &p)
		payload = p
	case KindUpdateDeletion:
		var p UpdateDeletion
		err = unmarshalPayload(data, &p)
		payload = p
	case KindPreferenceChange:
		var p PreferenceChange
		err = unmarshalPayload(data, &p)
		payload = p
	default:
		return nil, NewValidationError("kind", fmt.Sprintf("unsupported action kind %q", kind))
	}
	if err != nil {
		return nil, NewValidationError("payload", fmt.Sprintf("malformed %s payload: %v", kind, err))
	}
	return payload, nil
}

func unmarshalPayload(data json.RawMessage, dest interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}
