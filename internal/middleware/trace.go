package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/apikit/apikit/internal/exception"
	"github.com/apikit/apikit/internal/pkg/id"
	"github.com/apikit/apikit/internal/pkg/tracing"
)

// W3C trace context headers
const (
	TraceparentHeader = "traceparent"
	TracestateHeader  = "tracestate"
)

// TraceConfig configures the trace middleware
type TraceConfig struct {
	// Header is the response header carrying the trace id
	Header string
	// Generator generates a new trace id when the request carries none
	Generator func() string
}

// DefaultTraceConfig returns default trace config
func DefaultTraceConfig() TraceConfig {
	return TraceConfig{
		Header:    exception.TraceIDHeader,
		Generator: id.NewTraceID,
	}
}

// Trace continues the caller's W3C trace or starts a new one. The span
// context is stored in the request's user context, so tracing.TraceID
// finds it for the rest of the chain, and is echoed as traceparent.
func Trace(config ...TraceConfig) fiber.Handler {
	cfg := DefaultTraceConfig()
	if len(config) > 0 {
		cfg = config[0]
		if cfg.Header == "" {
			cfg.Header = exception.TraceIDHeader
		}
		if cfg.Generator == nil {
			cfg.Generator = id.NewTraceID
		}
	}

	return func(c *fiber.Ctx) error {
		carrier := map[string]string{}
		if v := c.Get(TraceparentHeader); v != "" {
			carrier[TraceparentHeader] = v
		}
		if v := c.Get(TracestateHeader); v != "" {
			carrier[TracestateHeader] = v
		}

		ctx := tracing.Start(tracing.Extract(c.UserContext(), carrier), cfg.Generator)
		c.SetUserContext(ctx)

		traceID := tracing.FromContext(ctx)
		c.Locals(tracing.LocalsKey, traceID)
		c.Set(cfg.Header, traceID)

		out := map[string]string{}
		tracing.Inject(ctx, out)
		for k, v := range out {
			c.Set(k, v)
		}

		return c.Next()
	}
}
