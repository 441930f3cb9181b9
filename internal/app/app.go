// Package app assembles a Fiber application with apikit's error handling,
// tracing, request logging, health, docs and metrics endpoints.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/apikit/apikit/internal/config"
	"github.com/apikit/apikit/internal/exception"
	"github.com/apikit/apikit/internal/handler"
	"github.com/apikit/apikit/internal/middleware"
	apperrors "github.com/apikit/apikit/internal/pkg/errors"
	"github.com/apikit/apikit/internal/pkg/metrics"
)

// Hook runs on startup or shutdown
type Hook func(ctx context.Context, a *App) error

// Router mounts a group of routes under the configured prefix
type Router func(r fiber.Router)

// Options configures New
type Options struct {
	// Config is required
	Config *config.Config
	Logger *zap.Logger
	// Routers are mounted under Config.Server.Prefix
	Routers []Router
	// Middlewares run inside the error registrar, before every route
	Middlewares []fiber.Handler
	Startup     []Hook
	Shutdown    []Hook
	// HealthChecks back /health and /readyz
	HealthChecks map[string]handler.Check
	// Registry replaces the default failure registry
	Registry *exception.Registry
	// Reporter overrides the Sentry reporter installed when Sentry is enabled
	Reporter exception.Reporter
}

// App is an assembled application
type App struct {
	fiber     *fiber.App
	cfg       *config.Config
	log       *zap.Logger
	registrar *exception.Registrar
	startup   []Hook
	shutdown  []Hook
}

// New assembles an application. Middleware runs in this order: trace,
// metrics, request logging, Sentry hub, error registrar, panic recovery,
// request timeout, then opts.Middlewares.
func New(opts Options) *App {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	a := &App{
		cfg:      cfg,
		log:      log,
		startup:  opts.Startup,
		shutdown: opts.Shutdown,
	}

	reporter := opts.Reporter
	if reporter == nil && cfg.Sentry.Enabled {
		reporter = middleware.SentryReporter(fiber.StatusInternalServerError)
	}

	a.registrar = exception.NewRegistrar(cfg.Server.Env,
		exception.WithLogger(log),
		exception.WithRegistry(opts.Registry),
		exception.WithTraceHeader(cfg.Exception.TraceHeader),
		exception.WithFallbackMatching(cfg.Exception.Fallback),
		exception.WithReporter(reporter),
		exception.WithObserver(func(kind *apperrors.Kind, status int) {
			metrics.RecordErrorResponse(kind.Name(), status)
		}),
	)

	f := fiber.New(fiber.Config{
		AppName:               cfg.Server.Title,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler:          a.registrar.ErrorHandler(),
	})
	a.fiber = f

	quiet := middleware.PathSkipper(cfg.Health.Path, cfg.Metrics.Path)

	f.Use(middleware.Trace(middleware.TraceConfig{Header: cfg.Exception.TraceHeader}))
	if cfg.Metrics.Enabled {
		f.Use(middleware.Metrics(middleware.MetricsConfig{Skip: quiet}))
	}
	f.Use(middleware.RequestLogger(middleware.LoggerConfig{Logger: log, Skip: quiet}))
	if cfg.Sentry.Enabled {
		f.Use(middleware.SentryMiddleware(true))
	}
	f.Use(a.registrar.Middleware())
	f.Use(middleware.Recover(middleware.RecoverConfig{
		Logger:        log,
		StackSize:     4 << 10,
		SentryEnabled: cfg.Sentry.Enabled,
	}))
	if cfg.Server.RequestTimeout > 0 {
		f.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}
	for _, m := range opts.Middlewares {
		f.Use(m)
	}

	handler.NewHealthHandler(cfg.Server.Version, opts.HealthChecks).RegisterRoutes(f, cfg.Health.Path)
	if cfg.Metrics.Enabled {
		f.Get(cfg.Metrics.Path, middleware.MetricsHandler())
	}
	if cfg.Docs.Enabled {
		handler.NewDocsHandler(opts.Registry).RegisterRoutes(f, cfg.Docs.Prefix)
	}

	var api fiber.Router = f
	if cfg.Server.Prefix != "" {
		api = f.Group(cfg.Server.Prefix)
	}
	for _, mount := range opts.Routers {
		mount(api)
	}

	return a
}

// Fiber returns the underlying Fiber application
func (a *App) Fiber() *fiber.App {
	return a.fiber
}

// Registrar returns the application's error registrar
func (a *App) Registrar() *exception.Registrar {
	return a.registrar
}

// Config returns the application's configuration
func (a *App) Config() *config.Config {
	return a.cfg
}

// Start runs the startup hooks in order, stopping at the first error
func (a *App) Start(ctx context.Context) error {
	for i, hook := range a.startup {
		if err := hook(ctx, a); err != nil {
			return fmt.Errorf("startup hook %d: %w", i, err)
		}
	}
	return nil
}

// Run starts the application and serves until ctx is cancelled or the
// listener fails, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		addr := a.cfg.Server.Addr()
		a.log.Info("starting server", zap.String("addr", addr))
		errCh <- a.fiber.Listen(addr)
	}()

	var listenErr error
	select {
	case <-ctx.Done():
	case listenErr = <-errCh:
		if listenErr != nil {
			listenErr = fmt.Errorf("server failed: %w", listenErr)
		}
	}

	return errors.Join(listenErr, a.Shutdown(context.Background()))
}

// Shutdown stops accepting connections, waits up to the graceful timeout
// for in-flight requests and then runs every shutdown hook. Hook errors
// are joined.
func (a *App) Shutdown(ctx context.Context) error {
	start := time.Now()
	a.log.Info("shutting down server...", zap.Duration("graceful_timeout", a.cfg.Server.GracefulTimeout))

	var errs []error
	if err := a.fiber.ShutdownWithTimeout(a.cfg.Server.GracefulTimeout); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	for i, hook := range a.shutdown {
		if err := hook(ctx, a); err != nil {
			a.log.Error("shutdown hook failed", zap.Int("hook", i), zap.Error(err))
			errs = append(errs, fmt.Errorf("shutdown hook %d: %w", i, err))
		}
	}

	metrics.RecordShutdown(time.Since(start))
	a.log.Info("server stopped")
	return errors.Join(errs...)
}
