// Package util holds small request and timing helpers shared by handlers.
package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ForwardedForHeader is consulted before the socket address
const ForwardedForHeader = "X-Forwarded-For"

// ClientIP returns the X-Forwarded-For header verbatim when present,
// otherwise the remote address of the connection.
func ClientIP(c *fiber.Ctx) string {
	if fwd := c.Get(ForwardedForHeader); fwd != "" {
		return fwd
	}
	return c.Context().RemoteIP().String()
}

// Str2Bool parses yes/no style flags, case-insensitively
func Str2Bool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "t", "y", "1":
		return true, nil
	case "no", "false", "f", "n", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value %q", v)
}

// Timeit runs fn and logs its elapsed time at info. An empty prefix uses
// name.
func Timeit(log *zap.Logger, name, prefix string, fn func() error) error {
	start := time.Now()
	err := fn()
	if prefix == "" {
		prefix = name + ", "
	}
	log.Info(fmt.Sprintf("%stime elapsed %.3f sec", prefix, time.Since(start).Seconds()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return err
}
