package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/apikit/apikit/internal/pkg/errors"
)

// Timeout bounds the user context of the rest of the chain by d. Deadline
// errors returned by handlers become TimeoutFailures, and so does a handler
// that outlives the deadline without noticing it. Failures that already
// carry a kind pass through.
func Timeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if d <= 0 {
			return c.Next()
		}

		parent := c.UserContext()
		ctx, cancel := context.WithTimeout(parent, d)
		defer cancel()
		c.SetUserContext(ctx)

		err := c.Next()
		c.SetUserContext(parent)

		switch {
		case err == nil:
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return apperrors.Timeout("request exceeded " + d.String())
			}
			return nil
		case apperrors.GetFailure(err) != nil:
			return err
		case apperrors.IsTimeout(err):
			return apperrors.Wrap(apperrors.KindTimeout, err)
		}
		return err
	}
}
