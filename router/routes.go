package router

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	handler "github.com/krishkalaria12/snap-gallery/handlers"
	"github.com/krishkalaria12/snap-gallery/middleware"
)

type AuthRoutes interface {
	middleware.TokenParser
	Handlers() (authHandler http.Handler, avatarHandler http.Handler)
}

func SetupRoutes(app *fiber.App, h *handler.Handler, authSvc AuthRoutes) {
	app.Use(middleware.LoadSession(authSvc))

	// go-pkgz/auth login, callback and logout for every provider
	authHandler, avatarHandler := authSvc.Handlers()
	app.All("/auth/*", adaptor.HTTPHandler(authHandler))
	app.All("/avatar/*", adaptor.HTTPHandler(avatarHandler))

	api := app.Group("/api", logger.New())
	api.Get("/models", h.ListModels)
	api.Post("/generate", h.GenerateImages)

	// Auth
	auth := api.Group("/auth")
	auth.Post("/login", h.Login)
	auth.Post("/logout", h.Logout)

	// User
	user := api.Group("/users")
	user.Post("/", h.CreateUser)
	user.Get("/me", middleware.RequireSession(), h.Me)

	// Gallery
	images := api.Group("/gallery", middleware.RequireSession())
	images.Get("/", h.ListImages)
	images.Post("/", h.SaveImage)

	// Pages
	app.Get("/", h.Index)
	app.Post("/generate", h.GeneratePage)
	app.Post("/logout", h.LogoutPage)
	app.Get("/batches/:id", h.ShowBatch)
	app.Post("/batches/:id/slots/:slot/copy", h.CopySlot)
	app.Get("/batches/:id/slots/:slot/download", h.DownloadSlot)
	app.Post("/batches/:id/slots/:slot/save", h.SaveSlot)
	app.Get("/gallery", h.GalleryPage)
	app.Get("/gallery/:id/thumbnail", h.Thumbnail)
}
