package upload

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/deklata-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API загрузки изображений
func (s *UploadService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/upload")

	// Защищенные маршруты
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для получения параметров прямой загрузки
	api.Get("/params", s.GenerateUploadParams)

	// Маршрут для загрузки изображения через сервер
	api.Post("/", s.UploadImage)
}
