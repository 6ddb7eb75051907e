package item

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/deklata-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API вещей
func (s *ItemService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/items")

	// Публичные маршруты: каталог и поиск доступны без входа
	api.Get("/", s.GetPublicItems)
	api.Get("/search", s.SearchItems)

	// Список своих вещей. Регистрируется до "/:id", чтобы не попасть в параметр
	api.Get("/my", s.GetMyItems, middleware.AuthMiddleware(s.jwtService))

	// Детали вещи: авторизация не обязательна, но влияет на раскрытие контакта
	api.Get("/:id", s.GetItem, middleware.OptionalAuthMiddleware(s.jwtService))

	// Защищенные маршруты
	api.Post("/", s.CreateItem, middleware.AuthMiddleware(s.jwtService))
	api.Delete("/:id", s.DeleteItem, middleware.AuthMiddleware(s.jwtService))
}
