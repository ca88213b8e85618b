package middleware

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-gallery/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser map[string]*auth.Session

func (p stubParser) Parse(tokenStr string) (*auth.Session, error) {
	if s, ok := p[tokenStr]; ok {
		return s, nil
	}
	return nil, errors.New("invalid token")
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(LoadSession(stubParser{"good": {UserID: "u1", DisplayName: "Alice"}}))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		sess, err := CheckUserLoggedIn(c)
		if err != nil {
			return c.SendString("anonymous")
		}
		return c.SendString(sess.UserID)
	})
	app.Get("/private", RequireSession(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func body(t *testing.T, app *fiber.App, path string, headers map[string]string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestLoadSession(t *testing.T) {
	app := newApp()

	_, got := body(t, app, "/whoami", nil)
	assert.Equal(t, "anonymous", got)

	_, got = body(t, app, "/whoami", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, "u1", got)

	_, got = body(t, app, "/whoami", map[string]string{"Cookie": "JWT=good"})
	assert.Equal(t, "u1", got)

	_, got = body(t, app, "/whoami", map[string]string{"Authorization": "Bearer bad"})
	assert.Equal(t, "anonymous", got)
}

func TestRequireSession(t *testing.T) {
	app := newApp()

	status, _ := body(t, app, "/private", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, got := body(t, app, "/private", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", got)
}
