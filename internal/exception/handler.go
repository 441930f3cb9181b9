package exception

import (
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/apikit/apikit/internal/pkg/errors"
	"github.com/apikit/apikit/internal/pkg/logger"
)

// HandlerFunc renders err on c
type HandlerFunc func(c *fiber.Ctx, err error) error

// IsProduction reports whether stage hides diagnostic detail
func IsProduction(stage string) bool {
	switch strings.ToLower(strings.TrimSpace(stage)) {
	case "prod", "production":
		return true
	}
	return false
}

// Registrar binds failure kinds to handlers on a Fiber application.
// Bindings are made before the application serves requests and are only
// read afterwards.
type Registrar struct {
	resolver *Resolver
	builder  *ResponseBuilder
	fallback MatchMode
	kinds    []*apperrors.Kind
	handlers map[*apperrors.Kind]HandlerFunc
}

// NewRegistrar creates a registrar with one binding per registry entry
func NewRegistrar(stage string, opts ...Option) *Registrar {
	o := newOptions(opts)
	r := &Registrar{
		resolver: NewResolver(o.registry),
		builder:  NewResponseBuilder(!IsProduction(stage), opts...),
		fallback: o.fallback,
		handlers: make(map[*apperrors.Kind]HandlerFunc, o.registry.Len()),
	}
	for _, e := range o.registry.Entries() {
		r.Handle(e.Kind, r.Render(e.Info))
	}
	return r
}

// Register creates a registrar for stage and installs its middleware on app.
// Call it before registering routes: Fiber only runs middleware added
// ahead of a route for that route.
func Register(app *fiber.App, stage string, opts ...Option) *Registrar {
	r := NewRegistrar(stage, opts...)
	app.Use(r.Middleware())
	return r
}

// Handle binds h to kind, replacing any previous binding
func (r *Registrar) Handle(kind *apperrors.Kind, h HandlerFunc) {
	if _, ok := r.handlers[kind]; !ok {
		r.kinds = append(r.kinds, kind)
	}
	r.handlers[kind] = h
}

// Render returns a handler rendering errors with info
func (r *Registrar) Render(info ErrorInfo) HandlerFunc {
	return func(c *fiber.Ctx, err error) error {
		return r.builder.Write(c, r.builder.Build(c, info, err))
	}
}

// Builder returns the registrar's response builder
func (r *Registrar) Builder() *ResponseBuilder {
	return r.builder
}

// Resolver returns the registrar's resolver
func (r *Registrar) Resolver() *Resolver {
	return r.resolver
}

// Dispatch routes err to the handler bound to the most specific ancestor of
// its kind, falling back to the catch-all binding.
func (r *Registrar) Dispatch(c *fiber.Ctx, err error) error {
	kind := matchKind(apperrors.KindOf(err), MatchNearest, apperrors.KindUnknown, r.kinds, func(k *apperrors.Kind) bool {
		_, ok := r.handlers[k]
		return ok
	})
	h, ok := r.handlers[kind]
	if !ok {
		return r.GenerateErrorResponse(c, err)
	}
	return h(c, err)
}

// Middleware returns a handler sending every error returned further down
// the chain through Dispatch
func (r *Registrar) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}
		return r.Dispatch(c, err)
	}
}

// ErrorHandler returns Dispatch as a fiber.ErrorHandler for fiber.Config
func (r *Registrar) ErrorHandler() fiber.ErrorHandler {
	return r.Dispatch
}

// GenerateErrorResponse renders err without the Fiber bindings, resolving
// its ErrorInfo with the configured fallback match mode.
func (r *Registrar) GenerateErrorResponse(c *fiber.Ctx, err error) error {
	info := r.resolver.ResolveWith(err, r.fallback)
	return r.builder.Write(c, r.builder.Build(c, info, err))
}

var defaultResolver = sync.OnceValue(func() *Resolver {
	return NewResolver(BuildRegistry())
})

// GenerateErrorResponse renders err on c with the default registry, the
// global logger and exact-kind matching.
func GenerateErrorResponse(c *fiber.Ctx, err error, stage string) error {
	b := NewResponseBuilder(!IsProduction(stage), WithLogger(logger.L()))
	return b.Write(c, b.Build(c, defaultResolver().Resolve(err), err))
}
