// Package errors provides the failure taxonomy used by apikit services.
//
// This package defines:
//   - Kind, a dispatch key with an explicit broader-category relation
//   - Failure, the error type carrying a Kind and its payload
//   - Constructors for the built-in kinds
//   - Classification of arbitrary Go errors (KindOf)
//
// # Kinds
//
//   - ValidationFailure: request failed shape validation (422)
//   - BadRequestHeaderError: required header missing or malformed (400)
//   - TimeoutFailure: a downstream deadline was exceeded (504)
//   - RuntimeFailure: generic runtime error (500)
//   - InvalidAccessTokenError: credential missing, expired or malformed (401)
//   - ProtocolException: carries its own HTTP status and public detail
//   - UnknownFailure: the catch-all root of every kind
//
// # Usage
//
// Create failures using constructor functions:
//
//	return apperrors.BadRequestHeader("missing X-Api-Key")
//	return apperrors.HTTP(fiber.StatusForbidden, "forbidden")
//
// Declare application kinds under a built-in category:
//
//	var KindPaymentTimeout = apperrors.NewKind("PaymentTimeout", apperrors.KindTimeout)
//
// # Error Wrapping
//
// Failures support wrapping with fmt.Errorf:
//
//	return fmt.Errorf("load profile: %w", apperrors.Runtime("cache unavailable"))
package errors
