package exception

import (
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap/zapcore"

	apperrors "github.com/apikit/apikit/internal/pkg/errors"
	"github.com/apikit/apikit/internal/pkg/logger"
)

// Severity selects the log level used for a failure kind
type Severity string

// Severities
const (
	SeverityDebug   Severity = "debug"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Level returns the zap level for the severity
func (s Severity) Level() zapcore.Level {
	return logger.ParseSeverity(string(s))
}

// DefaultResponseID identifies the error response shape in documentation
const DefaultResponseID = "response_id"

// ErrorInfo describes how one failure kind is rendered. Values stored in a
// registry never carry request data.
type ErrorInfo struct {
	ResponseID string   `json:"id"`
	StatusCode int      `json:"status_code"`
	Msg        string   `json:"msg"`
	Detail     string   `json:"detail"`
	LogLevel   Severity `json:"log_level"`
}

// DefaultErrorInfo returns the rendering used when nothing else is known
func DefaultErrorInfo() ErrorInfo {
	return ErrorInfo{
		ResponseID: DefaultResponseID,
		StatusCode: fiber.StatusInternalServerError,
		Msg:        "Internal Server Error",
		LogLevel:   SeverityError,
	}
}

// NewErrorInfo creates an ErrorInfo with the default response id
func NewErrorInfo(statusCode int, msg string, level Severity) ErrorInfo {
	info := DefaultErrorInfo()
	info.StatusCode = statusCode
	info.Msg = msg
	if level != "" {
		info.LogLevel = level
	}
	return info
}

// Entry binds a failure kind to its rendering
type Entry struct {
	Kind *apperrors.Kind
	Info ErrorInfo
}

// Registry is an ordered, read-only mapping from kind to ErrorInfo.
// Insertion order decides exact-match priority. It is safe for concurrent
// use once built.
type Registry struct {
	entries  []Entry
	index    map[*apperrors.Kind]int
	catchAll int
}

// NewRegistry builds a registry from entries in priority order.
// It panics on a nil or duplicated kind and when no entry covers
// apperrors.KindUnknown.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{
		entries:  make([]Entry, 0, len(entries)),
		index:    make(map[*apperrors.Kind]int, len(entries)),
		catchAll: -1,
	}
	for _, e := range entries {
		if e.Kind == nil {
			panic("exception: registry entry without kind")
		}
		if _, dup := r.index[e.Kind]; dup {
			panic(fmt.Sprintf("exception: kind %s registered twice", e.Kind))
		}
		e.Info.Detail = ""
		r.index[e.Kind] = len(r.entries)
		if e.Kind == apperrors.KindUnknown {
			r.catchAll = len(r.entries)
		}
		r.entries = append(r.entries, e)
	}
	if r.catchAll < 0 {
		panic("exception: registry has no catch-all entry")
	}
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry(
		Entry{apperrors.KindValidation, NewErrorInfo(fiber.StatusUnprocessableEntity, "bad request", SeverityWarning)},
		Entry{apperrors.KindBadRequestHeader, NewErrorInfo(fiber.StatusBadRequest, "invalid request header", SeverityWarning)},
		Entry{apperrors.KindTimeout, NewErrorInfo(fiber.StatusGatewayTimeout, "request timeout", SeverityError)},
		Entry{apperrors.KindRuntime, NewErrorInfo(fiber.StatusInternalServerError, "internal server error", SeverityError)},
		Entry{apperrors.KindUnknown, NewErrorInfo(fiber.StatusInternalServerError, "internal server error", SeverityError)},
		Entry{apperrors.KindInvalidAccessToken, NewErrorInfo(fiber.StatusUnauthorized, "invalid access token", SeverityWarning)},
		// Only the severity is used; status and message come from the error.
		Entry{apperrors.KindProtocol, NewErrorInfo(fiber.StatusBadRequest, "bad request", SeverityWarning)},
	)
})

// BuildRegistry returns the process-wide default registry. Every call
// returns the same instance.
func BuildRegistry() *Registry {
	return defaultRegistry()
}

// Lookup returns the ErrorInfo registered for exactly kind
func (r *Registry) Lookup(kind *apperrors.Kind) (ErrorInfo, bool) {
	i, ok := r.index[kind]
	if !ok {
		return ErrorInfo{}, false
	}
	return r.entries[i].Info, true
}

// CatchAll returns the ErrorInfo of the universal catch-all kind
func (r *Registry) CatchAll() ErrorInfo {
	return r.entries[r.catchAll].Info
}

// Entries returns the entries in priority order
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of entries
func (r *Registry) Len() int {
	return len(r.entries)
}

// With returns a new registry with extra entries appended after the
// existing ones
func (r *Registry) With(entries ...Entry) *Registry {
	return NewRegistry(append(r.Entries(), entries...)...)
}
