package middleware

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/apikit/apikit/internal/exception"
	apperrors "github.com/apikit/apikit/internal/pkg/errors"
	"github.com/apikit/apikit/internal/pkg/logger"
	"github.com/apikit/apikit/internal/pkg/metrics"
	"github.com/apikit/apikit/internal/pkg/tracing"
	"github.com/apikit/apikit/internal/util"
)

const sentryHubKey = "sentry_hub"

// RecoverConfig configures the recover middleware
type RecoverConfig struct {
	// Logger instance
	Logger *zap.Logger
	// StackSize limits the logged stack trace size
	StackSize int
	// SentryEnabled reports panics to Sentry
	SentryEnabled bool
}

// SentryConfig holds Sentry-specific configuration
type SentryConfig struct {
	DSN              string
	Environment      string
	Release          string
	Debug            bool
	SampleRate       float64
	TracesSampleRate float64
	FlushTimeout     time.Duration
}

// DefaultSentryConfig returns default Sentry configuration
func DefaultSentryConfig() SentryConfig {
	return SentryConfig{
		Environment:      "development",
		SampleRate:       1.0,
		TracesSampleRate: 0.1,
		FlushTimeout:     5 * time.Second,
	}
}

// DefaultRecoverConfig returns default recover config
func DefaultRecoverConfig(logger *zap.Logger) RecoverConfig {
	return RecoverConfig{
		Logger:    logger,
		StackSize: 4 << 10, // 4 KB
	}
}

// InitSentry initializes the Sentry SDK
func InitSentry(config SentryConfig) error {
	if config.DSN == "" {
		return nil // Sentry disabled if no DSN
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              config.DSN,
		Environment:      config.Environment,
		Release:          config.Release,
		Debug:            config.Debug,
		SampleRate:       config.SampleRate,
		TracesSampleRate: config.TracesSampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}

	return nil
}

// FlushSentry flushes any buffered events to Sentry
func FlushSentry(timeout time.Duration) {
	sentry.Flush(timeout)
}

// Recover turns handler panics into RuntimeFailures, so the error
// registrar renders them like any other failure. Install it inside the
// registrar's middleware.
func Recover(config RecoverConfig) fiber.Handler {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			stack := debug.Stack()
			if config.StackSize > 0 && len(stack) > config.StackSize {
				stack = stack[:config.StackSize]
			}

			var failure *apperrors.Failure
			switch v := r.(type) {
			case error:
				failure = apperrors.Wrap(apperrors.KindRuntime, fmt.Errorf("panic: %w", v))
			default:
				failure = apperrors.Runtime(fmt.Sprintf("panic: %v", v))
			}

			metrics.RecordPanic()
			log := logger.WithTraceID(config.Logger, tracing.TraceID(c))
			log.Error("panic recovered",
				zap.Error(failure),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
				zap.String("client_ip", util.ClientIP(c)),
				zap.String("stack", string(stack)),
			)

			if config.SentryEnabled {
				hub := hubFor(c)
				hub.WithScope(func(scope *sentry.Scope) {
					scope.SetExtra("stack_trace", string(stack))
					scope.SetLevel(sentry.LevelFatal)
					if eventID := hub.RecoverWithContext(c.UserContext(), r); eventID != nil {
						log.Info("panic reported to Sentry",
							zap.String("event_id", string(*eventID)),
						)
					}
				})
			}

			err = failure
		}()

		return c.Next()
	}
}

// SentryMiddleware stores a per-request Sentry hub carrying the request
// context and trace id
func SentryMiddleware(enabled bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !enabled {
			return c.Next()
		}

		hub := sentry.CurrentHub().Clone()
		setSentryRequestContext(hub, c)
		c.Locals(sentryHubKey, hub)

		return c.Next()
	}
}

// SentryReporter returns an exception.Reporter capturing every rendered
// error whose status is at least minStatus
func SentryReporter(minStatus int) exception.Reporter {
	return func(c *fiber.Ctx, err error, statusCode int) {
		if statusCode < minStatus {
			return
		}
		hub := hubFor(c)
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("kind", apperrors.KindOf(err).Name())
			scope.SetTag("status", fmt.Sprint(statusCode))
			if stack := apperrors.StackOf(err); stack != "" {
				scope.SetExtra("stack_trace", stack)
			}
			hub.CaptureException(err)
		})
	}
}

func hubFor(c *fiber.Ctx) *sentry.Hub {
	if hub, ok := c.Locals(sentryHubKey).(*sentry.Hub); ok && hub != nil {
		return hub
	}
	hub := sentry.CurrentHub().Clone()
	setSentryRequestContext(hub, c)
	return hub
}

// setSentryRequestContext sets request context on a Sentry hub from Fiber context
func setSentryRequestContext(hub *sentry.Hub, c *fiber.Ctx) {
	headers := make(map[string]string)
	c.Request().Header.VisitAll(func(key, value []byte) {
		k := string(key)
		// Don't include sensitive headers
		if k != fiber.HeaderAuthorization && k != fiber.HeaderCookie && k != "X-Api-Key" {
			headers[k] = string(value)
		}
	})

	hub.Scope().SetTag("trace_id", tracing.TraceID(c))
	hub.Scope().SetContext("Request", sentry.Context{
		"url":          c.OriginalURL(),
		"method":       c.Method(),
		"headers":      headers,
		"query_string": string(c.Request().URI().QueryString()),
		"remote_addr":  util.ClientIP(c),
	})
}
