package handler

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-gallery/gallery"
	"github.com/krishkalaria12/snap-gallery/middleware"
)

type saveImageRequest struct {
	ImageURL string `json:"image_url" validate:"required,url"`
	Prompt   string `json:"prompt" validate:"max=1000"`
	ModelID  string `json:"model_id" validate:"required"`
}

// SaveImage re-hosts an image URL into the caller's gallery.
func (h *Handler) SaveImage(c *fiber.Ctx) error {
	sess, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return respond(c, fiber.StatusUnauthorized, "Please sign in to save images", nil)
	}

	input := new(saveImageRequest)
	if ok, err := h.parseBody(c, input); !ok {
		return err
	}

	record, err := h.gallery.Save(c.UserContext(), sess, input.ImageURL, input.Prompt, input.ModelID)
	if err != nil {
		status, message := galleryFailure(err)
		return respond(c, status, message, nil)
	}

	return respond(c, fiber.StatusCreated, "Image saved to gallery", record)
}

func (h *Handler) ListImages(c *fiber.Ctx) error {
	sess, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return respond(c, fiber.StatusUnauthorized, "You are not authorized!", nil)
	}

	images, err := h.gallery.List(c.UserContext(), sess)
	if err != nil {
		h.log.Error(logModule, "error listing gallery", map[string]interface{}{"error": err})
		return respond(c, fiber.StatusInternalServerError, "Failed to load gallery", nil)
	}

	return respond(c, fiber.StatusOK, "Gallery found", images)
}

func galleryFailure(err error) (int, string) {
	switch {
	case errors.Is(err, gallery.ErrUnauthenticated):
		return fiber.StatusUnauthorized, "Please sign in to save images"
	case errors.Is(err, gallery.ErrInvalidImageURL):
		return fiber.StatusBadRequest, "Invalid image url"
	case errors.Is(err, gallery.ErrFetchImage):
		return fiber.StatusBadGateway, "Failed to fetch image"
	case errors.Is(err, gallery.ErrNotFound):
		return fiber.StatusNotFound, "Image not found"
	default:
		return fiber.StatusInternalServerError, "Failed to save image"
	}
}

func newGetRequest(c *fiber.Ctx, url string) (*http.Request, error) {
	return http.NewRequestWithContext(c.UserContext(), http.MethodGet, url, nil)
}
