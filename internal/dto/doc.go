// Package dto parses and validates request payloads.
//
// Use dto.ParseAndValidate() in handlers and return its error unchanged;
// the exception registrar renders it:
//
//	var req CreateItemRequest
//	if err := dto.ParseAndValidate(c, &req); err != nil {
//	    return err
//	}
//
// # Validation Tags
//
// Common validation tags:
//   - required: Field must be present and non-empty
//   - email: Must be valid email format
//   - min=N: Minimum length/value
//   - max=N: Maximum length/value
//   - uuid: Must be valid UUID format
//   - oneof=A B C: Must be one of the specified values
package dto
