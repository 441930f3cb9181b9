package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/apikit/apikit/internal/pkg/logger"
	"github.com/apikit/apikit/internal/pkg/tracing"
	"github.com/apikit/apikit/internal/util"
)

// LoggerConfig configures the request logger
type LoggerConfig struct {
	// Logger instance
	Logger *zap.Logger
	// Skip function
	Skip func(*fiber.Ctx) bool
	// IncludeHeaders logs request headers, minus credentials
	IncludeHeaders bool
	// IncludeBody logs request and response bodies up to MaxBodySize bytes
	IncludeBody bool
	MaxBodySize int
}

// DefaultLoggerConfig returns default logger config
func DefaultLoggerConfig(logger *zap.Logger) LoggerConfig {
	return LoggerConfig{
		Logger:      logger,
		MaxBodySize: 1024,
	}
}

// RequestLogger logs one line per request with its trace id, client IP and
// latency. It runs outside the error registrar, so the status it logs is
// the one the client received; errors still returned are passed on
// unlogged.
func RequestLogger(config LoggerConfig) fiber.Handler {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if config.Skip != nil && config.Skip(c) {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("query", string(c.Request().URI().QueryString())),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", util.ClientIP(c)),
			zap.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		}

		if config.IncludeHeaders {
			headers := make(map[string]string)
			c.Request().Header.VisitAll(func(key, value []byte) {
				k := string(key)
				if k != fiber.HeaderAuthorization && k != "X-Api-Key" && k != fiber.HeaderCookie {
					headers[k] = string(value)
				}
			})
			fields = append(fields, zap.Any("headers", headers))
		}
		if config.IncludeBody {
			fields = append(fields,
				zap.ByteString("request_body", truncate(c.Request().Body(), config.MaxBodySize)),
				zap.ByteString("response_body", truncate(c.Response().Body(), config.MaxBodySize)),
			)
		}

		log := logger.WithTraceID(config.Logger, tracing.TraceID(c))
		switch {
		case status >= 500:
			log.Error("request completed", fields...)
		case status >= 400:
			log.Warn("request completed", fields...)
		default:
			log.Info("request completed", fields...)
		}

		return err
	}
}

func truncate(b []byte, n int) []byte {
	if n > 0 && len(b) > n {
		return b[:n]
	}
	return b
}

// PathSkipper skips requests to any of paths
func PathSkipper(paths ...string) func(*fiber.Ctx) bool {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p != "" {
			set[p] = struct{}{}
		}
	}
	return func(c *fiber.Ctx) bool {
		_, ok := set[c.Path()]
		return ok
	}
}
