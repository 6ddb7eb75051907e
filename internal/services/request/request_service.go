package request

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/deklata-api/internal/config"
	"github.com/rajivgeraev/deklata-api/internal/db"
	"github.com/rajivgeraev/deklata-api/internal/models"
	"github.com/rajivgeraev/deklata-api/internal/utils"
	ws "github.com/rajivgeraev/deklata-api/internal/websocket"
)

// RequestService представляет сервис для работы с запросами на вещи
type RequestService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	hub        *ws.Manager
}

// NewRequestService создает новый экземпляр RequestService
func NewRequestService(cfg *config.Config, hub *ws.Manager) *RequestService {
	return &RequestService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		hub:        hub,
	}
}

// CreateRequest создает новый запрос на вещь
func (s *RequestService) CreateRequest(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	requesterID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	// Извлекаем данные из запроса
	var requestData struct {
		ItemID string `json:"item_id"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.ItemID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID вещи не указан"})
	}

	itemUUID, err := uuid.Parse(requestData.ItemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID вещи"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Проверяем, что вещь существует и еще доступна
	var ownerID uuid.UUID
	var itemStatus string
	err = db.Pool.QueryRow(ctx, `
		SELECT owner_id, status FROM items WHERE id = $1
	`, itemUUID).Scan(&ownerID, &itemStatus)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Вещь не найдена"})
		}
		log.Printf("Ошибка запроса вещи: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки вещи"})
	}

	// Нельзя запрашивать собственную вещь
	if ownerID == requesterID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Вы не можете запросить собственную вещь"})
	}

	if itemStatus != models.ItemStatusAvailable {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Вещь уже отдана"})
	}

	// Повторный запрос на ту же вещь невозможен. Помимо этой проверки
	// в базе стоит UNIQUE (item_id, requester_id).
	var existingCount int
	err = db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM requests
		WHERE item_id = $1 AND requester_id = $2
	`, itemUUID, requesterID).Scan(&existingCount)

	if err != nil {
		log.Printf("Ошибка проверки существующих запросов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки существующих запросов"})
	}

	if existingCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Вы уже запрашивали эту вещь"})
	}

	requestID := uuid.New()

	var req models.Request
	err = db.Pool.QueryRow(ctx, `
		INSERT INTO requests (id, item_id, requester_id, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, item_id, requester_id, status, created_at, updated_at
	`, requestID, itemUUID, requesterID).Scan(
		&req.ID, &req.ItemID, &req.RequesterID, &req.Status, &req.CreatedAt, &req.UpdatedAt,
	)

	if err != nil {
		log.Printf("Ошибка создания запроса: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения запроса"})
	}

	// Уведомляем владельца вещи о новом запросе
	s.hub.SendToUser(ownerID.String(), ws.Event{
		Type:      ws.EventRequestStatus,
		ItemID:    itemUUID.String(),
		RequestID: requestID.String(),
		Status:    models.RequestStatusPending,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"request": req,
		"message": "Запрос отправлен, ожидайте решения владельца",
	})
}

// GetMyRequests возвращает входящие и исходящие запросы пользователя
func (s *RequestService) GetMyRequests(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	// Тип запросов: incoming - на мои вещи, outgoing - мои запросы
	reqType := c.Query("type", "all") // all, incoming, outgoing
	status := c.Query("status", "all")

	if status != "all" && !models.ValidRequestStatus(status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Недопустимый статус запроса"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var query string
	var args []interface{}

	switch reqType {
	case "incoming":
		if status == "all" {
			query = `
				SELECT rq.id, rq.item_id, rq.requester_id, rq.status, rq.created_at, rq.updated_at
				FROM requests rq
				JOIN items i ON i.id = rq.item_id
				WHERE i.owner_id = $1
				ORDER BY rq.created_at DESC
			`
			args = []interface{}{userUUID}
		} else {
			query = `
				SELECT rq.id, rq.item_id, rq.requester_id, rq.status, rq.created_at, rq.updated_at
				FROM requests rq
				JOIN items i ON i.id = rq.item_id
				WHERE i.owner_id = $1 AND rq.status = $2
				ORDER BY rq.created_at DESC
			`
			args = []interface{}{userUUID, status}
		}
	case "outgoing":
		if status == "all" {
			query = `
				SELECT rq.id, rq.item_id, rq.requester_id, rq.status, rq.created_at, rq.updated_at
				FROM requests rq
				WHERE rq.requester_id = $1
				ORDER BY rq.created_at DESC
			`
			args = []interface{}{userUUID}
		} else {
			query = `
				SELECT rq.id, rq.item_id, rq.requester_id, rq.status, rq.created_at, rq.updated_at
				FROM requests rq
				WHERE rq.requester_id = $1 AND rq.status = $2
				ORDER BY rq.created_at DESC
			`
			args = []interface{}{userUUID, status}
		}
	default: // all
		if status == "all" {
			query = `
				SELECT rq.id, rq.item_id, rq.requester_id, rq.status, rq.created_at, rq.updated_at
				FROM requests rq
				JOIN items i ON i.id = rq.item_id
				WHERE rq.requester_id = $1 OR i.owner_id = $1
				ORDER BY rq.created_at DESC
			`
			args = []interface{}{userUUID}
		} else {
			query = `
				SELECT rq.id, rq.item_id, rq.requester_id, rq.status, rq.created_at, rq.updated_at
				FROM requests rq
				JOIN items i ON i.id = rq.item_id
				WHERE (rq.requester_id = $1 OR i.owner_id = $1) AND rq.status = $2
				ORDER BY rq.created_at DESC
			`
			args = []interface{}{userUUID, status}
		}
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Ошибка запроса списка запросов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения запросов"})
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		var req models.Request
		if err := rows.Scan(
			&req.ID,
			&req.ItemID,
			&req.RequesterID,
			&req.Status,
			&req.CreatedAt,
			&req.UpdatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования строки: %v", err)
			continue
		}

		req.Status = models.NormalizeRequestStatus(req.Status)

		// Загружаем дополнительную информацию о вещи и получателе
		req.Item = s.getItemInfo(ctx, req.ItemID, userUUID, req.Status)
		req.Requester = getUserInfo(ctx, req.RequesterID)

		// Получаем ID чата, связанного с этим запросом (если есть)
		var chatID uuid.UUID
		err = db.Pool.QueryRow(ctx, `
			SELECT id FROM chats WHERE item_id = $1 AND requester_id = $2
		`, req.ItemID, req.RequesterID).Scan(&chatID)

		if err == nil {
			req.ChatID = &chatID
		}

		requests = append(requests, req)
	}

	return c.JSON(fiber.Map{
		"requests": requests,
		"count":    len(requests),
	})
}

// UpdateRequestStatus обновляет статус запроса (одобрение/отклонение владельцем)
func (s *RequestService) UpdateRequestStatus(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	requestID := c.Params("id")
	if requestID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID запроса не указан"})
	}

	// Получаем новый статус из запроса
	var requestData struct {
		Status string `json:"status"` // approved, rejected
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.Status != models.RequestStatusApproved && requestData.Status != models.RequestStatusRejected {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Недопустимый статус запроса"})
	}

	requestUUID, err := uuid.Parse(requestID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID запроса"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Получаем запрос вместе с владельцем и статусом вещи
	var req models.Request
	var ownerID uuid.UUID
	var itemStatus string
	err = db.Pool.QueryRow(ctx, `
		SELECT rq.id, rq.item_id, rq.requester_id, rq.status, i.owner_id, i.status
		FROM requests rq
		JOIN items i ON i.id = rq.item_id
		WHERE rq.id = $1
	`, requestUUID).Scan(&req.ID, &req.ItemID, &req.RequesterID, &req.Status, &ownerID, &itemStatus)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Запрос не найден"})
		}
		log.Printf("Ошибка запроса: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения запроса"})
	}

	// Только владелец вещи может одобрить или отклонить запрос
	if ownerID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Только владелец вещи может изменить статус запроса"})
	}

	// Одобренный или отклоненный запрос изменить нельзя
	if !models.CanTransition(req.Status, requestData.Status) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Нельзя изменить статус запроса, который уже не находится в ожидании",
		})
	}

	// Если вещь уже отдана по другому запросу, оставшиеся pending-запросы
	// одобрить нельзя: на одну вещь должен быть один чат
	if requestData.Status == models.RequestStatusApproved && !models.CanApprove(req.Status, itemStatus) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Вещь уже отдана по другому запросу"})
	}

	// Начинаем транзакцию: смена статуса, снятие вещи с каталога
	// и создание чата должны произойти атомарно
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE requests
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, requestData.Status, requestUUID)

	if err != nil {
		log.Printf("Ошибка обновления статуса запроса: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления статуса запроса"})
	}

	var chatID uuid.UUID
	if requestData.Status == models.RequestStatusApproved {
		// Вещь отдана: убираем ее из каталога
		_, err = tx.Exec(ctx, `
			UPDATE items SET status = 'claimed', updated_at = NOW() WHERE id = $1
		`, req.ItemID)

		if err != nil {
			log.Printf("Ошибка снятия вещи с каталога: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления вещи"})
		}

		// Создаем чат между владельцем и получателем
		chatID = uuid.New()
		now := time.Now()
		initialMessage := "Запрос одобрен. Договоритесь здесь о передаче вещи."

		_, err = tx.Exec(ctx, `
			INSERT INTO chats (id, item_id, owner_id, requester_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, chatID, req.ItemID, ownerID, req.RequesterID, now, now)

		if err != nil {
			log.Printf("Ошибка создания чата: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания чата"})
		}

		// Добавляем системное сообщение
		_, err = tx.Exec(ctx, `
			INSERT INTO messages (id, chat_id, sender_id, content, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.New(), chatID, ownerID, initialMessage, now)

		if err != nil {
			log.Printf("Ошибка создания системного сообщения: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания чата"})
		}
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	// Уведомляем получателя о решении владельца
	s.hub.SendToUser(req.RequesterID.String(), ws.Event{
		Type:      ws.EventRequestStatus,
		ItemID:    req.ItemID.String(),
		RequestID: requestUUID.String(),
		Status:    requestData.Status,
	})

	var message string
	switch requestData.Status {
	case models.RequestStatusApproved:
		message = "Запрос одобрен"
	case models.RequestStatusRejected:
		message = "Запрос отклонен"
	}

	response := fiber.Map{
		"success":    true,
		"message":    message,
		"request_id": requestID,
		"status":     requestData.Status,
	}

	// Если был создан чат, включаем его ID в ответ
	if requestData.Status == models.RequestStatusApproved {
		response["chat_id"] = chatID
	}

	return c.JSON(response)
}

// getItemInfo получает информацию о вещи для списка запросов.
// Контакт владельца добавляется только получателю с одобренным запросом
// и самому владельцу.
func (s *RequestService) getItemInfo(ctx context.Context, itemID, viewerID uuid.UUID, requestStatus string) *models.Item {
	var item models.Item
	var contactInfo string

	err := db.Pool.QueryRow(ctx, `
		SELECT id, owner_id, title, description, pickup_location, category,
		       COALESCE(image_url, ''), contact_info, status
		FROM items
		WHERE id = $1
	`, itemID).Scan(
		&item.ID,
		&item.OwnerID,
		&item.Title,
		&item.Description,
		&item.PickupLocation,
		&item.Category,
		&item.ImageURL,
		&contactInfo,
		&item.Status,
	)

	if err != nil {
		log.Printf("Ошибка получения вещи %s: %v", itemID, err)
		return nil
	}

	if models.RevealContact(viewerID, item.OwnerID, requestStatus) {
		item.ContactInfo = contactInfo
	}

	return &item
}

// getUserInfo получает информацию о пользователе
func getUserInfo(ctx context.Context, userID uuid.UUID) *models.User {
	var user models.User
	err := db.Pool.QueryRow(ctx, `
		SELECT id, COALESCE(email, ''), COALESCE(username, ''), COALESCE(first_name, ''),
		       COALESCE(last_name, ''), COALESCE(avatar_url, '')
		FROM users
		WHERE id = $1
	`, userID).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.AvatarURL,
	)

	if err != nil {
		log.Printf("Ошибка получения пользователя %s: %v", userID, err)
		return nil
	}

	return &user
}
