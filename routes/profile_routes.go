package routes

import (
	"github.com/driftchat/chat_backend/handlers"
	"github.com/driftchat/chat_backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func ProfileRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	profile := api.Group("/profile/me", middleware.Protected())
	profile.Get("", handlers.GetProfile)
	profile.Post("", handlers.EnsureProfile)
	profile.Put("", handlers.UpdateProfile)
	profile.Post("/presence", handlers.UpdatePresence)
}
