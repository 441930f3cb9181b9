package exception

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	apperrors "github.com/apikit/apikit/internal/pkg/errors"
	"github.com/apikit/apikit/internal/pkg/tracing"
)

// TraceIDHeader is the default header carrying the trace id of every
// error response
const TraceIDHeader = "x-trace-id"

// Body is the JSON body of an error response
type Body struct {
	Msg    string `json:"msg"`
	Detail any    `json:"detail,omitempty"`
}

// Response is an assembled error response
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       Body
}

// TraceIDFunc returns the trace id of the request behind c
type TraceIDFunc func(c *fiber.Ctx) string

// Reporter forwards a rendered failure to an external error tracker
type Reporter func(c *fiber.Ctx, err error, statusCode int)

// Observer records a rendered failure, typically as a metric
type Observer func(kind *apperrors.Kind, statusCode int)

// ResponseBuilder logs failures and assembles their responses. It holds no
// per-request state and is safe for concurrent use.
type ResponseBuilder struct {
	logger       *zap.Logger
	exposeDetail bool
	traceHeader  string
	traceID      TraceIDFunc
	reporter     Reporter
	observer     Observer
}

// NewResponseBuilder creates a builder. exposeDetail adds diagnostic detail
// to response bodies and belongs to non-production stages only.
func NewResponseBuilder(exposeDetail bool, opts ...Option) *ResponseBuilder {
	o := newOptions(opts)
	return &ResponseBuilder{
		logger:       o.logger,
		exposeDetail: exposeDetail,
		traceHeader:  o.header,
		traceID:      o.traceID,
		reporter:     o.reporter,
		observer:     o.observer,
	}
}

// ExposeDetail reports whether responses carry diagnostic detail
func (b *ResponseBuilder) ExposeDetail() bool {
	return b.exposeDetail
}

// Build logs err at info's severity and assembles its response. It never
// panics: logging, trace id and hook failures are swallowed.
func (b *ResponseBuilder) Build(c *fiber.Ctx, info ErrorInfo, err error) Response {
	if err == nil {
		err = apperrors.Unknown("nil error")
	}
	kind := apperrors.KindOf(err)
	traceID := b.safeTraceID(c)

	logFields := []zap.Field{
		zap.Error(err),
		zap.String("kind", kind.Name()),
		zap.String("trace_id", traceID),
	}
	if stack := apperrors.StackOf(err); stack != "" {
		logFields = append(logFields, zap.String("stack", stack))
	}
	b.log(info.LogLevel.Level(), safeText(err), logFields...)

	resp := Response{
		StatusCode: info.StatusCode,
		Headers:    map[string]string{b.traceHeader: traceID},
		Body:       Body{Msg: info.Msg},
	}

	if status, detail, ok := apperrors.Protocol(err); ok {
		resp.Body = Body{Msg: detail}
		if status >= 100 && status <= 599 {
			resp.StatusCode = status
		}
	} else if b.exposeDetail {
		if f := apperrors.GetFailure(err); f != nil && kind.Is(apperrors.KindValidation) {
			fields := plainFieldErrors(f.Fields())
			resp.Body.Detail = fields
			b.log(zapcore.ErrorLevel, "validation errors",
				zap.Any("errors", fields),
				zap.String("trace_id", traceID),
			)
		} else {
			resp.Body.Detail = describe(err)
			b.log(zapcore.ErrorLevel, "stack trace", b.stackField(err), zap.String("trace_id", traceID))
		}
	}

	b.notify(c, kind, err, resp.StatusCode)
	return resp
}

// Write sends resp on c. A body that cannot be encoded is replaced by its
// msg alone.
func (b *ResponseBuilder) Write(c *fiber.Ctx, resp Response) error {
	for k, v := range resp.Headers {
		c.Set(k, v)
	}
	if err := c.Status(resp.StatusCode).JSON(resp.Body); err != nil {
		b.log(zapcore.ErrorLevel, "encode error response", zap.Error(err))
		return c.Status(resp.StatusCode).JSON(Body{Msg: resp.Body.Msg})
	}
	return nil
}

func (b *ResponseBuilder) log(level zapcore.Level, msg string, fields ...zap.Field) {
	defer func() { _ = recover() }()
	if ce := b.logger.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func (b *ResponseBuilder) stackField(err error) zap.Field {
	if stack := apperrors.StackOf(err); stack != "" {
		return zap.String("stack", stack)
	}
	return zap.StackSkip("stack", 2)
}

func (b *ResponseBuilder) safeTraceID(c *fiber.Ctx) (traceID string) {
	defer func() {
		if r := recover(); r != nil || traceID == "" {
			traceID = tracing.EmptyTraceID
		}
	}()
	return b.traceID(c)
}

func (b *ResponseBuilder) notify(c *fiber.Ctx, kind *apperrors.Kind, err error, statusCode int) {
	if b.observer != nil {
		func() {
			defer func() { _ = recover() }()
			b.observer(kind, statusCode)
		}()
	}
	if b.reporter != nil {
		func() {
			defer func() { _ = recover() }()
			b.reporter(c, err, statusCode)
		}()
	}
}

func safeText(err error) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = fmt.Sprintf("%T", err)
		}
	}()
	return err.Error()
}

func describe(err error) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = apperrors.KindOf(err).Name() + ": " + fmt.Sprintf("%T", err)
		}
	}()
	return apperrors.Describe(err)
}

// plainFieldErrors converts field errors into plain JSON values. Inputs that
// are not strings, finite numbers, booleans or nil are rendered as strings.
func plainFieldErrors(fields []apperrors.FieldError) []map[string]any {
	out := make([]map[string]any, 0, len(fields))
	for _, fe := range fields {
		loc := make([]string, len(fe.Loc))
		copy(loc, fe.Loc)
		entry := map[string]any{
			"type": fe.Type,
			"loc":  loc,
			"msg":  fe.Msg,
		}
		if fe.Input != nil {
			entry["input"] = plainValue(fe.Input)
		}
		out = append(out, entry)
	}
	return out
}

func plainValue(v any) any {
	switch x := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		json.Number:
		return x
	case float32:
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'g', -1, 32)
		}
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'g', -1, 64)
		}
		return x
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
