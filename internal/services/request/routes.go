package request

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/deklata-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API запросов
func (s *RequestService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/requests")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для создания запроса на вещь
	api.Post("/", s.CreateRequest)

	// Маршрут для получения списка запросов (входящие/исходящие)
	api.Get("/", s.GetMyRequests)

	// Маршрут для обновления статуса запроса владельцем
	api.Put("/:id/status", s.UpdateRequestStatus)
}
