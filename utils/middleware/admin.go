package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/study-notes-bot/utils/response"
)

// AdminTokenHeader carries the shared admin secret when no bearer token is sent
const AdminTokenHeader = "X-Admin-Token"

// RequireAdminToken guards admin endpoints with a shared secret sent either as
// "Authorization: Bearer <token>" or in the X-Admin-Token header.
// An empty token disables the endpoints entirely. guard may be nil.
func RequireAdminToken(token string, guard *BruteForceProtection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token == "" {
			return response.ServiceUnavailable(c, "Admin API is not configured")
		}

		if guard != nil {
			if locked, retryAfter := guard.IsLocked(c); locked {
				c.Set(fiber.HeaderRetryAfter, retryAfter)
				return response.TooManyRequests(c, "Too many failed attempts")
			}
		}

		if !tokenMatches(presentedToken(c), token) {
			if guard != nil {
				guard.RecordFailedAttempt(c)
			}
			return response.Unauthorized(c, "Invalid admin token")
		}

		if guard != nil {
			guard.RecordSuccessfulAttempt(c)
		}
		return c.Next()
	}
}

func presentedToken(c *fiber.Ctx) string {
	if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return c.Get(AdminTokenHeader)
}

func tokenMatches(presented, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) == 1
}
