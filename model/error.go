package model

import (
	"errors"
	"fmt"
)

// Code classifies pipeline failures.
type Code string

const (
	CodeValidation      Code = "validation"
	CodeInvalidCode     Code = "invalid_code"
	CodeExpiredCode     Code = "expired_code"
	CodeAlreadyConsumed Code = "already_consumed"
	CodeTooManyAttempts Code = "too_many_attempts"
	CodeAlreadyReviewed Code = "already_reviewed"
	CodeNotFound        Code = "not_found"
	CodePersistence     Code = "persistence"
	CodeNotification    Code = "notification"
)

// Error is a classified pipeline error carrying a user-facing message.
type Error struct {
	Code    Code
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Code, so errors.Is(err, ErrExpiredCode)
// holds for every expired-code failure regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrValidation      = &Error{Code: CodeValidation, Message: "some required information is missing or invalid"}
	ErrInvalidCode     = &Error{Code: CodeInvalidCode, Message: "the code you entered is incorrect, check it and try again"}
	ErrExpiredCode     = &Error{Code: CodeExpiredCode, Message: "this code has expired, request a new one"}
	ErrAlreadyConsumed = &Error{Code: CodeAlreadyConsumed, Message: "this code has already been used"}
	ErrTooManyAttempts = &Error{Code: CodeTooManyAttempts, Message: "too many incorrect attempts, request a new code"}
	ErrAlreadyReviewed = &Error{Code: CodeAlreadyReviewed, Message: "this request has already been reviewed"}
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "the requested record does not exist"}
	ErrPersistence     = &Error{Code: CodePersistence, Message: "the request could not be saved, try again"}
	ErrNotification    = &Error{Code: CodeNotification, Message: "the notification could not be sent"}
)

// NewValidationError reports a missing or malformed field.
func NewValidationError(field, message string) *Error {
	return &Error{Code: CodeValidation, Field: field, Message: message}
}

// NewNotFoundError reports a missing record of the given entity.
func NewNotFoundError(entity, id string) *Error {
	return &Error{Code: CodeNotFound, Field: entity, Message: fmt.Sprintf("%s %q does not exist", entity, id)}
}

// NewPersistenceError wraps a store failure.
func NewPersistenceError(op string, err error) *Error {
	return &Error{Code: CodePersistence, Field: op, Message: ErrPersistence.Message, Err: err}
}

// NewNotificationError wraps a delivery failure.
func NewNotificationError(template string, err error) *Error {
	return &Error{Code: CodeNotification, Field: template, Message: ErrNotification.Message, Err: err}
}

// CodeOf returns the classification of err, CodePersistence for unclassified errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodePersistence
}

// MessageOf returns the actionable, user-facing message for err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Code == CodeValidation && e.Field != "" {
			return e.Field + ": " + e.Message
		}
		return e.Message
	}
	return ErrPersistence.Message
}
