package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-gallery/auth"
	"github.com/krishkalaria12/snap-gallery/batches"
	"github.com/krishkalaria12/snap-gallery/gallery"
	"github.com/krishkalaria12/snap-gallery/generation"
	"github.com/krishkalaria12/snap-gallery/logger"
	"github.com/krishkalaria12/snap-gallery/middleware"
	"github.com/krishkalaria12/snap-gallery/views"
)

const logModule = "handler"

type Handler struct {
	auth      *auth.Service
	gallery   *gallery.Service
	generator *generation.Orchestrator
	batches   *batches.Store
	views     *views.Renderer
	log       logger.ILogger
	validate  *validator.Validate
	client    *http.Client

	loginURL      string
	secureCookies bool
}

type Deps struct {
	Auth      *auth.Service
	Gallery   *gallery.Service
	Generator *generation.Orchestrator
	Batches   *batches.Store
	Views     *views.Renderer
	Log       logger.ILogger
	Client    *http.Client

	// LoginURL is linked from the nav bar when set.
	LoginURL      string
	SecureCookies bool
}

func New(d Deps) *Handler {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &Handler{
		auth:          d.Auth,
		gallery:       d.Gallery,
		generator:     d.Generator,
		batches:       d.Batches,
		views:         d.Views,
		log:           d.Log,
		validate:      newValidator(),
		client:        client,
		loginURL:      d.LoginURL,
		secureCookies: d.SecureCookies,
	}
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	state := "success"
	if status >= fiber.StatusBadRequest {
		state = "error"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":  state,
		"message": message,
		"data":    data,
	})
}

// parseBody decodes the request body into dst and runs its validate tags.
// On failure it has already written the 400 response.
func (h *Handler) parseBody(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	if err := h.validate.Struct(dst); err != nil {
		return false, respond(c, fiber.StatusBadRequest, validationMessage(err), nil)
	}
	return true, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid input"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" is "+tagDescription(fe.Tag()))
	}
	return strings.Join(fields, ", ")
}

func tagDescription(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "email":
		return "not a valid email"
	case "url", "http_url":
		return "not a valid url"
	case "max":
		return "too long"
	case "min":
		return "too short"
	default:
		return "invalid"
	}
}

func (h *Handler) page(c *fiber.Ctx, title string) views.Page {
	return views.Page{
		Title:    title,
		Session:  middleware.CurrentSession(c),
		LoginURL: h.loginURL,
	}
}

func html(c *fiber.Ctx) {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
}
