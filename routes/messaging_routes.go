package routes

import (
	"github.com/driftchat/chat_backend/handlers"
	"github.com/driftchat/chat_backend/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func MessagingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	conversations := api.Group("/conversations", middleware.Protected())
	conversations.Get("", handlers.GetUserConversations)
	conversations.Post("/ensure", handlers.EnsureConversation)
	conversations.Get("/:conversationId/messages", handlers.GetConversationMessages)
	conversations.Post("/:conversationId/messages", handlers.SendMessageToConversation)
	conversations.Get("/:conversationId/status", handlers.GetConversationStatus)
	conversations.Put("/:conversationId/status", handlers.UpdateConversationStatus)

	// Name-keyed send: bootstraps the caller's well-known thread on
	// first use.
	api.Post("/messages", middleware.Protected(), handlers.SendMessage)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(handlers.ServeWs))
}
