package main

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/rajivgeraev/deklata-api/internal/config"
	"github.com/rajivgeraev/deklata-api/internal/db"
	"github.com/rajivgeraev/deklata-api/internal/services/auth"
	"github.com/rajivgeraev/deklata-api/internal/services/chat"
	"github.com/rajivgeraev/deklata-api/internal/services/item"
	"github.com/rajivgeraev/deklata-api/internal/services/request"
	"github.com/rajivgeraev/deklata-api/internal/services/upload"
	"github.com/rajivgeraev/deklata-api/internal/websocket"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Инициализируем базу данных
	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Deklata API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Шина уведомлений: изменения статусов запросов и новые сообщения
	hub := websocket.NewManager()
	defer hub.Shutdown()

	// Создаём сервисы
	authService := auth.NewAuthService(cfg)
	itemService := item.NewItemService(cfg)
	requestService := request.NewRequestService(cfg, hub)
	chatService := chat.NewChatService(cfg, hub)
	uploadService := upload.NewUploadService(cfg)

	// Регистрируем маршруты
	authService.SetupRoutes(app)
	itemService.SetupRoutes(app)
	requestService.SetupRoutes(app)
	chatService.SetupRoutes(app)
	uploadService.SetupRoutes(app)

	// WebSocket подключение для уведомлений
	app.Get("/ws", hub.Handler(authService.GetJWTService()))

	// Запускаем сервер
	log.Printf("✅ Deklata API запущен на порту %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Отправляем ошибку в JSON
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
