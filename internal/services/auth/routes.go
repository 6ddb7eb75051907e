package auth

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/deklata-api/internal/middleware"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *AuthService) SetupRoutes(app *fiber.App) {
	app.Post("/api/auth/magic-link", s.RequestMagicLink)
	app.Post("/api/auth/verify", s.VerifyMagicLink)
	app.Post("/api/auth/telegram", s.TelegramAuthHandler)

	// Защищенные маршруты
	protected := app.Group("/api/auth")
	protected.Use(middleware.AuthMiddleware(s.jwtService))

	protected.Get("/me", s.Me)
}
