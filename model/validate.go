package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidatePayload checks the struct rules of a payload variant and rejects
// fields that are present but blank after trimming.
func ValidatePayload(payload Payload) error {
	if payload == nil {
		return NewValidationError("payload", "payload is required")
	}
	if err := validateStruct(payload); err != nil {
		return err
	}
	switch actual := payload.(type) {
	case ContentUpdate:
		return requireText("title", actual.Title)
	case *ContentUpdate:
		return requireText("title", actual.Title)
	case ContentDeletion:
		return requireText("contentId", actual.ContentID)
	case *ContentDeletion:
		return requireText("contentId", actual.ContentID)
	case StatusChange:
		return requireTexts("contentId", actual.ContentID, "status", actual.Status)
	case *StatusChange:
		return requireTexts("contentId", actual.ContentID, "status", actual.Status)
	case UpdateDeletion:
		return requireText("updateId", actual.UpdateID)
	case *UpdateDeletion:
		return requireText("updateId", actual.UpdateID)
	case PreferenceChange:
		return requireText("name", actual.Name)
	case *PreferenceChange:
		return requireText("name", actual.Name)
	}
	return nil
}

// ValidateRequester checks the requester identity; email is mandatory when
// requireEmail is set.
func ValidateRequester(requester Requester, requireEmail bool) error {
	if requireEmail && strings.TrimSpace(requester.Email) == "" {
		return NewValidationError("email", "an email address is required to verify this request")
	}
	return validateStruct(requester)
}

func validateStruct(value interface{}) error {
	err := validatorInstance().Struct(value)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		fe := fieldErrors[0]
		return NewValidationError(fe.Field(), describeRule(fe))
	}
	return NewValidationError("payload", err.Error())
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(field, "is required")
	}
	return nil
}

// requireTexts checks field/value pairs in order.
func requireTexts(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := requireText(pairs[i], pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}
