package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-gallery/auth"
	"github.com/krishkalaria12/snap-gallery/middleware"
)

type createUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"name" validate:"max=128"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"name"`
}

func (h *Handler) CreateUser(c *fiber.Ctx) error {
	input := new(createUserRequest)
	if ok, err := h.parseBody(c, input); !ok {
		return err
	}

	user, err := h.auth.Register(input.Username, input.Email, input.FullName, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			return respond(c, fiber.StatusConflict, "Username or email already taken", nil)
		}
		h.log.Error(logModule, "error creating user", map[string]interface{}{"error": err})
		return respond(c, fiber.StatusInternalServerError, "Failed to create user", nil)
	}

	return respond(c, fiber.StatusCreated, "User created successfully", userResponse{
		ID:       auth.LocalUserID(user.Username),
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
	})
}

// Me returns the identity carried by the request's token.
func (h *Handler) Me(c *fiber.Ctx) error {
	sess, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return respond(c, fiber.StatusUnauthorized, "You are not authorized!", nil)
	}
	return respond(c, fiber.StatusOK, "User found", sess)
}
