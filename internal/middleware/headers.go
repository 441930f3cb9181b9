package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/apikit/apikit/internal/pkg/errors"
)

// LocalsKeyBearerToken holds the token extracted by RequireBearer
const LocalsKeyBearerToken = "bearerToken"

// RequireHeader rejects requests missing any of the named headers with a
// BadRequestHeaderError
func RequireHeader(names ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, name := range names {
			if strings.TrimSpace(c.Get(name)) == "" {
				return apperrors.BadRequestHeader("missing " + name)
			}
		}
		return c.Next()
	}
}

// RequireBearer rejects requests without a bearer token in the
// Authorization header with an InvalidAccessTokenError. It checks the
// header's shape only; verifying the token is left to the application.
func RequireBearer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return apperrors.InvalidAccessToken("bearer token required")
		}
		c.Locals(LocalsKeyBearerToken, token)
		return c.Next()
	}
}

// GetBearerToken gets the token stored by RequireBearer
func GetBearerToken(c *fiber.Ctx) string {
	token, _ := c.Locals(LocalsKeyBearerToken).(string)
	return token
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
