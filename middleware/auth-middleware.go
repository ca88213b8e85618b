package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-gallery/auth"
)

const sessionKey = "session"

var ErrNoSession = errors.New("no authenticated session")

// TokenParser is satisfied by *auth.Service.
type TokenParser interface {
	Parse(tokenStr string) (*auth.Session, error)
}

// LoadSession resolves the session from a Bearer token or the JWT cookie.
// Requests without a valid token continue unauthenticated.
func LoadSession(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := bearerOrCookie(c)
		if tokenStr == "" {
			return c.Next()
		}

		sess, err := parser.Parse(tokenStr)
		if err == nil {
			c.Locals(sessionKey, sess)
		}
		return c.Next()
	}
}

// RequireSession rejects requests without a resolved session.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentSession(c) == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "You are not authorized!",
				"data":    nil,
			})
		}
		return c.Next()
	}
}

// CurrentSession returns the request's session, or nil.
func CurrentSession(c *fiber.Ctx) *auth.Session {
	sess, _ := c.Locals(sessionKey).(*auth.Session)
	return sess
}

func CheckUserLoggedIn(c *fiber.Ctx) (*auth.Session, error) {
	sess := CurrentSession(c)
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

func bearerOrCookie(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return c.Cookies("JWT")
}
