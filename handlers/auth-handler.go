package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-gallery/auth"
)

const jwtCookie = "JWT"

type loginRequest struct {
	Identity string `json:"identity" form:"identity" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type loginResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"name"`
	Token    string `json:"token"`
}

// Login checks local credentials and issues the same JWT the go-pkgz local
// provider would, as a token and a cookie.
func (h *Handler) Login(c *fiber.Ctx) error {
	input := new(loginRequest)
	if ok, err := h.parseBody(c, input); !ok {
		return err
	}

	user, err := h.auth.FindUser(input.Identity)
	if err != nil {
		h.log.Error(logModule, "error looking up user", map[string]interface{}{"error": err})
		return respond(c, fiber.StatusInternalServerError, "Database error", nil)
	}
	if user == nil || !auth.CheckPasswordHash(input.Password, user.Password) {
		return respond(c, fiber.StatusUnauthorized, "Invalid identity or password", nil)
	}

	tokenStr, err := h.auth.IssueToken(user)
	if err != nil {
		h.log.Error(logModule, "error issuing token", map[string]interface{}{"error": err})
		return respond(c, fiber.StatusInternalServerError, "Failed to generate token", nil)
	}

	h.setTokenCookie(c, tokenStr, time.Now().Add(h.auth.CookieDuration()))

	return respond(c, fiber.StatusOK, "Login successful", loginResponse{
		ID:       auth.LocalUserID(user.Username),
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
		Token:    tokenStr,
	})
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	h.setTokenCookie(c, "", time.Now().Add(-time.Hour))
	return respond(c, fiber.StatusOK, "Logout successful", nil)
}

// LogoutPage clears the cookie and sends the browser home.
func (h *Handler) LogoutPage(c *fiber.Ctx) error {
	h.setTokenCookie(c, "", time.Now().Add(-time.Hour))
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *Handler) setTokenCookie(c *fiber.Ctx, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     jwtCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: "Lax",
	})
}
