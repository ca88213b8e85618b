package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-gallery/gallery"
	"github.com/krishkalaria12/snap-gallery/middleware"
	"github.com/krishkalaria12/snap-gallery/models"
	"github.com/krishkalaria12/snap-gallery/views"
)

// GalleryPage lists the signed-in user's saved images, newest first.
func (h *Handler) GalleryPage(c *fiber.Ctx) error {
	sess := middleware.CurrentSession(c)

	page := views.NewGalleryPage(h.page(c, "Your Gallery")).
		Resolve(sess != nil, func() ([]models.GalleryImage, error) {
			images, err := h.gallery.List(c.UserContext(), sess)
			if err != nil {
				h.log.Error(logModule, "error fetching images", map[string]interface{}{"error": err})
			}
			return images, err
		})

	html(c)
	return h.views.Gallery(c, page)
}

// Thumbnail serves a 500x500 JPEG of one of the caller's images.
func (h *Handler) Thumbnail(c *fiber.Ctx) error {
	sess, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return respond(c, fiber.StatusUnauthorized, "You are not authorized!", nil)
	}

	data, err := h.gallery.Thumbnail(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			return respond(c, fiber.StatusNotFound, "Image not found", nil)
		}
		h.log.Error(logModule, "error building thumbnail", map[string]interface{}{
			"id":    c.Params("id"),
			"error": err,
		})
		return respond(c, fiber.StatusBadGateway, "Failed to process image", nil)
	}

	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "private, max-age=86400")
	return c.Send(data)
}
