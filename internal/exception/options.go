package exception

import (
	"go.uber.org/zap"

	"github.com/apikit/apikit/internal/pkg/tracing"
)

type options struct {
	registry *Registry
	logger   *zap.Logger
	traceID  TraceIDFunc
	header   string
	reporter Reporter
	observer Observer
	fallback MatchMode
}

// Option configures a Registrar or ResponseBuilder
type Option func(*options)

// WithRegistry replaces the default registry
func WithRegistry(reg *Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithLogger sets the logging sink
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTraceID sets the trace id provider
func WithTraceID(fn TraceIDFunc) Option {
	return func(o *options) { o.traceID = fn }
}

// WithTraceHeader sets the response header carrying the trace id
func WithTraceHeader(name string) Option {
	return func(o *options) { o.header = name }
}

// WithReporter sets the external error reporter
func WithReporter(fn Reporter) Option {
	return func(o *options) { o.reporter = fn }
}

// WithObserver sets the failure observer
func WithObserver(fn Observer) Option {
	return func(o *options) { o.observer = fn }
}

// WithFallbackMatching sets the match mode of GenerateErrorResponse.
// Errors dispatched through the Fiber bindings always use MatchNearest.
func WithFallbackMatching(mode MatchMode) Option {
	return func(o *options) { o.fallback = mode }
}

func newOptions(opts []Option) options {
	o := options{fallback: MatchExact}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = BuildRegistry()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.header == "" {
		o.header = TraceIDHeader
	}
	if o.traceID == nil {
		o.traceID = tracing.TraceID
	}
	return o
}
