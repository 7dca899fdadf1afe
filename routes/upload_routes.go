package routes

import (
	"github.com/driftchat/chat_backend/handlers"
	"github.com/driftchat/chat_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func UploadRoutes(app *fiber.App) {
	api := app.Group("/api/v1", middleware.Protected())

	uploads := api.Group("/uploads")
	uploads.Get("/signature", handlers.GenerateUploadSignature)
	uploads.Post("/register", handlers.RegisterFileAsset)
}
