package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/apikit/apikit/internal/pkg/errors"
)

// Request locations reported in the first element of a field error's loc
const (
	LocBody  = "body"
	LocQuery = "query"
)

// V is the singleton validator instance
var V *validator.Validate

func init() {
	V = validator.New(validator.WithRequiredStructEnabled())
	V.RegisterTagNameFunc(fieldName)
}

// fieldName reports fields by their json, then query, name
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "query"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// Validate validates a request body struct. Invalid structs yield a
// ValidationFailure; other validator errors are returned unchanged.
func Validate(v any) error {
	return ValidateIn(LocBody, v)
}

// ValidateIn validates v and reports field errors under loc
func ValidateIn(loc string, v any) error {
	err := V.Struct(v)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	return apperrors.Validation(FieldErrors(loc, errs)...)
}

// FieldErrors converts validator errors into field errors located under loc
func FieldErrors(loc string, errs validator.ValidationErrors) []apperrors.FieldError {
	out := make([]apperrors.FieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, apperrors.FieldError{
			Type:  e.Tag(),
			Loc:   location(loc, e.Namespace()),
			Msg:   getErrorMessage(e),
			Input: e.Value(),
		})
	}
	return out
}

// location drops the root struct name from a validator namespace
func location(loc, namespace string) []string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return append([]string{loc}, parts...)
}

// getErrorMessage returns a human-readable error message for a validation error
func getErrorMessage(e validator.FieldError) string {
	isString := e.Kind() == reflect.String
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		return fmt.Sprintf("must be at most %s", e.Param())
	case "uuid":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	default:
		return fmt.Sprintf("failed validation: %s", e.Tag())
	}
}
