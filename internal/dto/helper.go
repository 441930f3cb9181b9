package dto

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/apikit/apikit/internal/pkg/errors"
	"github.com/apikit/apikit/internal/validator"
)

// ParseAndValidate parses the request body into the given struct and validates it.
// Both a malformed body and an invalid struct yield a ValidationFailure.
func ParseAndValidate(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return apperrors.Validation(apperrors.FieldError{
			Type: "body_invalid",
			Loc:  []string{validator.LocBody},
			Msg:  "Invalid request body: " + err.Error(),
		})
	}
	return validator.Validate(v)
}

// ParseQueryAndValidate parses query parameters into the given struct and validates it
func ParseQueryAndValidate(c *fiber.Ctx, v any) error {
	if err := c.QueryParser(v); err != nil {
		return apperrors.Validation(apperrors.FieldError{
			Type: "query_invalid",
			Loc:  []string{validator.LocQuery},
			Msg:  "Invalid query parameters: " + err.Error(),
		})
	}
	return validator.ValidateIn(validator.LocQuery, v)
}
