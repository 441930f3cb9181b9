package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// FieldError describes one problem found while validating a request
type FieldError struct {
	Type  string   `json:"type"`
	Loc   []string `json:"loc"`
	Msg   string   `json:"msg"`
	Input any      `json:"input,omitempty"`
}

// Failure is an error tagged with a Kind and the payload of that kind
type Failure struct {
	kind    *Kind
	message string
	cause   error
	fields  []FieldError
	status  int
	stack   []uintptr
}

// Error implements the error interface
func (f *Failure) Error() string {
	switch {
	case f.kind.Is(KindProtocol):
		return fmt.Sprintf("%d: %s", f.status, f.message)
	case f.kind.Is(KindValidation) && len(f.fields) > 0:
		msgs := make([]string, 0, len(f.fields))
		for _, fe := range f.fields {
			msgs = append(msgs, fmt.Sprintf("%s: %s", strings.Join(fe.Loc, "."), fe.Msg))
		}
		return strings.Join(msgs, "; ")
	case f.message != "":
		return f.message
	case f.cause != nil:
		return f.cause.Error()
	}
	return ""
}

// Unwrap returns the underlying error
func (f *Failure) Unwrap() error {
	return f.cause
}

// Kind returns the failure's kind
func (f *Failure) Kind() *Kind {
	return f.kind
}

// Fields returns a copy of the validation field errors
func (f *Failure) Fields() []FieldError {
	if len(f.fields) == 0 {
		return nil
	}
	out := make([]FieldError, len(f.fields))
	copy(out, f.fields)
	return out
}

// StatusCode returns the HTTP status carried by a protocol exception, or 0
func (f *Failure) StatusCode() int {
	return f.status
}

func newFailure(kind *Kind, message string, cause error) *Failure {
	if kind == nil {
		kind = KindUnknown
	}
	return &Failure{
		kind:    kind,
		message: message,
		cause:   cause,
		stack:   callers(2),
	}
}

// New creates a failure of the given kind
func New(kind *Kind, message string) *Failure {
	return newFailure(kind, message, nil)
}

// Wrap tags err with kind. The failure renders as err's text.
func Wrap(kind *Kind, err error) *Failure {
	return newFailure(kind, "", err)
}

// Validation creates a validation failure from field errors
func Validation(fields ...FieldError) *Failure {
	f := newFailure(KindValidation, "request validation failed", nil)
	f.fields = fields
	return f
}

// BadRequestHeader creates a bad request header failure.
// cause may be a string or an error; anything else is formatted with %v.
func BadRequestHeader(cause any) *Failure {
	msg, err := splitCause(cause)
	return newFailure(KindBadRequestHeader, msg, err)
}

// InvalidAccessToken creates an invalid access token failure.
// cause may be a string or an error; anything else is formatted with %v.
func InvalidAccessToken(cause any) *Failure {
	msg, err := splitCause(cause)
	return newFailure(KindInvalidAccessToken, msg, err)
}

// Timeout creates a timeout failure
func Timeout(message string) *Failure {
	return newFailure(KindTimeout, message, nil)
}

// Runtime creates a generic runtime failure
func Runtime(message string) *Failure {
	return newFailure(KindRuntime, message, nil)
}

// Unknown creates an unclassified failure
func Unknown(message string) *Failure {
	return newFailure(KindUnknown, message, nil)
}

// HTTP creates a protocol exception carrying its own status and public detail
func HTTP(status int, detail string) *Failure {
	f := newFailure(KindProtocol, detail, nil)
	f.status = status
	return f
}

func splitCause(cause any) (string, error) {
	switch v := cause.(type) {
	case nil:
		return "", nil
	case error:
		return "", v
	case string:
		return v, nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// StatusCoder is an error carrying its own HTTP status
type StatusCoder interface {
	error
	StatusCode() int
}

// GetFailure extracts the outermost Failure from err's chain
func GetFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return nil
}

// KindOf classifies any error. Failures report their own kind. Fiber errors
// and StatusCoders are protocol exceptions, deadline errors are timeouts and
// everything else is unknown.
func KindOf(err error) *Kind {
	if err == nil {
		return KindUnknown
	}
	if f := GetFailure(err); f != nil {
		return f.kind
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return KindProtocol
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return KindProtocol
	}
	if isTimeout(err) {
		return KindTimeout
	}
	return KindUnknown
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, fasthttp.ErrTimeout) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Protocol returns the status and public detail of a protocol exception.
// ok is false for every other kind.
func Protocol(err error) (status int, detail string, ok bool) {
	if f := GetFailure(err); f != nil {
		if !f.kind.Is(KindProtocol) {
			return 0, "", false
		}
		return f.status, f.message, true
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message, true
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode(), sc.Error(), true
	}
	return 0, "", false
}

// Describe renders err as "<KindName>: <message>"
func Describe(err error) string {
	if err == nil {
		return KindUnknown.Name() + ": "
	}
	return KindOf(err).Name() + ": " + err.Error()
}

// IsKind checks if err's kind equals kind or descends from it
func IsKind(err error, kind *Kind) bool {
	return KindOf(err).Is(kind)
}

// IsValidation checks if the error is a validation failure
func IsValidation(err error) bool {
	return IsKind(err, KindValidation)
}

// IsUnauthorized checks if the error is an invalid access token failure
func IsUnauthorized(err error) bool {
	return IsKind(err, KindInvalidAccessToken)
}

// IsTimeout checks if the error is a timeout failure
func IsTimeout(err error) bool {
	return IsKind(err, KindTimeout)
}

// IsProtocol checks if the error carries its own HTTP status
func IsProtocol(err error) bool {
	return IsKind(err, KindProtocol)
}
