package chat

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/deklata-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API чатов
func (s *ChatService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/chats")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для получения чата по вещи
	api.Get("/item/:itemId", s.GetChatByItem)

	// Маршрут для обмена контактами по вещи
	api.Put("/item/:itemId/contacts", s.SaveContacts)

	// Маршрут для получения сообщений чата
	api.Get("/:id/messages", s.GetChatMessages)

	// Маршрут для отправки сообщения
	api.Post("/:id/messages", s.SendMessage)
}
