package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("verify: %w", &Error{Code: CodeExpiredCode, Message: "custom"})
	assert.True(t, errors.Is(wrapped, ErrExpiredCode))
	assert.False(t, errors.Is(wrapped, ErrInvalidCode))
	assert.Equal(t, CodeExpiredCode, CodeOf(wrapped))
}

func TestMessageOf(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "expired", err: ErrExpiredCode, expected: "this code has expired, request a new one"},
		{name: "too many", err: ErrTooManyAttempts, expected: "too many incorrect attempts, request a new code"},
		{name: "validation with field", err: NewValidationError("reason", "is required"), expected: "reason: is required"},
		{name: "unclassified", err: errors.New("boom"), expected: ErrPersistence.Message},
		{name: "nil", err: nil, expected: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MessageOf(tc.err))
		})
	}
}

func TestValidatePayload(t *testing.T) {
	testCases := []struct {
		name    string
		payload Payload
		field   string
	}{
		{name: "valid update", payload: ContentUpdate{Title: "Outage"}},
		{name: "blank title", payload: ContentUpdate{Title: "   "}, field: "title"},
		{name: "missing content id", payload: StatusChange{Status: "resolved"}, field: "contentId"},
		{name: "bad email", payload: PreferenceChange{Name: "Ann", Email: "not-an-email"}, field: "email"},
		{name: "pointer variant", payload: &UpdateDeletion{}, field: "updateId"},
		{name: "blank content id", payload: ContentDeletion{ContentID: "   "}, field: "contentId"},
		{name: "blank status content id", payload: &StatusChange{ContentID: " ", Status: "resolved"}, field: "contentId"},
		{name: "blank update id", payload: UpdateDeletion{UpdateID: "\t"}, field: "updateId"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePayload(tc.payload)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var e *Error
			if assert.True(t, errors.As(err, &e)) {
				assert.Equal(t, CodeValidation, e.Code)
				assert.Equal(t, tc.field, e.Field)
			}
		})
	}
}

func TestValidateRequester(t *testing.T) {
	assert.Error(t, ValidateRequester(Requester{Name: "Ann"}, true))
	assert.NoError(t, ValidateRequester(Requester{Name: "Ann"}, false))
	assert.Error(t, ValidateRequester(Requester{Email: "nope"}, false))
}

func TestChallengeAndCooldownWindows(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	challenge := &Challenge{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, challenge.Expired(now))
	assert.True(t, challenge.Expired(now.Add(time.Minute)))
	invalidated := now
	challenge.InvalidatedAt = &invalidated
	assert.True(t, challenge.Expired(now))

	cooldown := &Cooldown{LastVerifiedAt: now}
	assert.True(t, cooldown.Active(now.Add(59*time.Minute), time.Hour))
	assert.False(t, cooldown.Active(now.Add(time.Hour), time.Hour))
	assert.False(t, cooldown.Active(now, 0))
	var missing *Cooldown
	assert.False(t, missing.Active(now, time.Hour))
}
