// Package validator provides struct validation for request payloads.
//
// It wraps go-playground/validator and reports failures as a
// ValidationFailure whose field errors name the offending field by its
// json (or query) tag:
//
//	if err := validator.Validate(req); err != nil {
//	    return err // rendered as 422 by the exception registrar
//	}
//
// Custom validations can be registered in the init() function.
// The validator instance is package-level and thread-safe.
package validator
