package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// OwnerIDLocalKey is the key used to store the authenticated owner id in
// Fiber's context locals.
const OwnerIDLocalKey = "owner_id"

// Auth verifies a Bearer JWT signed with the shared HMAC secret and stores
// its subject as the owner identity. The upstream identity provider issues
// the tokens; this service only verifies them.
func Auth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		const prefix = "Bearer "
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, prefix) {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		token, err := jwt.Parse(strings.TrimSpace(header[len(prefix):]), func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "token has no subject")
		}

		c.Locals(OwnerIDLocalKey, sub)
		return c.Next()
	}
}

// OwnerIDFromCtx returns the owner id stored by Auth, or "" when the
// request was not authenticated.
func OwnerIDFromCtx(c *fiber.Ctx) string {
	if v, ok := c.Locals(OwnerIDLocalKey).(string); ok {
		return v
	}
	return ""
}
