package chat

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/deklata-api/internal/config"
	"github.com/rajivgeraev/deklata-api/internal/db"
	"github.com/rajivgeraev/deklata-api/internal/models"
	"github.com/rajivgeraev/deklata-api/internal/utils"
	ws "github.com/rajivgeraev/deklata-api/internal/websocket"
)

// ChatService представляет сервис для работы с чатами
type ChatService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	hub        *ws.Manager
}

// NewChatService создает новый экземпляр ChatService
func NewChatService(cfg *config.Config, hub *ws.Manager) *ChatService {
	return &ChatService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		hub:        hub,
	}
}

// GetChatByItem возвращает чат по вещи вместе с сообщениями и контактами.
// Чат видят только его участники: владелец вещи и получатель.
func (s *ChatService) GetChatByItem(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	itemID := c.Params("itemId")

	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	itemUUID, err := uuid.Parse(itemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID вещи"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Участие в чате проверяется прямо в запросе
	var chat models.Chat
	err = db.Pool.QueryRow(ctx, `
		SELECT id, item_id, owner_id, requester_id, created_at, updated_at
		FROM chats
		WHERE item_id = $1 AND (owner_id = $2 OR requester_id = $2)
	`, itemUUID, userUUID).Scan(
		&chat.ID, &chat.ItemID, &chat.OwnerID, &chat.RequesterID, &chat.CreatedAt, &chat.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Чат недоступен"})
		}
		log.Printf("Ошибка запроса чата: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения чата"})
	}

	// Сообщения в порядке отправки
	chat.Messages = s.loadMessages(ctx, chat.ID)

	// Контакты, если стороны ими уже обменялись
	var contacts models.ContactExchange
	err = db.Pool.QueryRow(ctx, `
		SELECT item_id, owner_id, requester_id, COALESCE(phone, ''), COALESCE(email, ''), updated_at
		FROM contact_exchanges
		WHERE item_id = $1 AND owner_id = $2 AND requester_id = $3
	`, chat.ItemID, chat.OwnerID, chat.RequesterID).Scan(
		&contacts.ItemID, &contacts.OwnerID, &contacts.RequesterID,
		&contacts.Phone, &contacts.Email, &contacts.UpdatedAt,
	)

	if err != nil && err != pgx.ErrNoRows {
		log.Printf("Ошибка запроса контактов: %v", err)
	}
	if err == nil {
		chat.Contacts = &contacts
	}

	// Данные о другом участнике чата (не текущем пользователе)
	if chat.OwnerID == userUUID {
		chat.Requester = getUserInfo(ctx, chat.RequesterID)
	} else {
		chat.Owner = getUserInfo(ctx, chat.OwnerID)
	}

	return c.JSON(fiber.Map{"chat": chat})
}

// GetChatMessages возвращает сообщения конкретного чата
func (s *ChatService) GetChatMessages(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	chatID := c.Params("id")

	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	chatUUID, err := uuid.Parse(chatID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID чата"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.checkAccess(ctx, chatUUID, userUUID); err != nil {
		return accessError(c, err)
	}

	messages := s.loadMessages(ctx, chatUUID)

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}

// SendMessage отправляет новое сообщение и возвращает обновленный список.
// Клиент перечитывает переписку после каждой отправки.
func (s *ChatService) SendMessage(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	chatID := c.Params("id")

	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	chatUUID, err := uuid.Parse(chatID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID чата"})
	}

	var requestData struct {
		Content string `json:"content"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	content := strings.TrimSpace(requestData.Content)
	if content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Сообщение не может быть пустым"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Проверяем доступ и узнаем второго участника
	var chat models.Chat
	err = db.Pool.QueryRow(ctx, `
		SELECT id, item_id, owner_id, requester_id
		FROM chats
		WHERE id = $1
	`, chatUUID).Scan(&chat.ID, &chat.ItemID, &chat.OwnerID, &chat.RequesterID)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Чат не найден"})
		}
		log.Printf("Ошибка запроса чата: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения чата"})
	}

	if !chat.IsParticipant(userUUID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "У вас нет доступа к этому чату"})
	}

	messageID := uuid.New()
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO messages (id, chat_id, sender_id, content)
		VALUES ($1, $2, $3, $4)
	`, messageID, chatUUID, userUUID, content)

	if err != nil {
		log.Printf("Ошибка отправки сообщения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка отправки сообщения"})
	}

	_, err = db.Pool.Exec(ctx, `
		UPDATE chats SET updated_at = NOW() WHERE id = $1
	`, chatUUID)
	if err != nil {
		log.Printf("Ошибка обновления чата: %v", err)
		// Не возвращаем ошибку, т.к. основная функциональность выполнена
	}

	// Уведомляем второго участника
	peerID := chat.OwnerID
	if peerID == userUUID {
		peerID = chat.RequesterID
	}
	s.hub.SendToUser(peerID.String(), ws.Event{
		Type:   ws.EventNewMessage,
		ItemID: chat.ItemID.String(),
		ChatID: chatUUID.String(),
		UserID: userUUID.String(),
	})

	// Возвращаем полный упорядоченный список сообщений
	messages := s.loadMessages(ctx, chatUUID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"message_id": messageID,
		"messages":   messages,
	})
}

// SaveContacts создает или заменяет контакты для пары владелец/получатель
func (s *ChatService) SaveContacts(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	itemID := c.Params("itemId")

	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	itemUUID, err := uuid.Parse(itemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID вещи"})
	}

	var requestData struct {
		Phone string `json:"phone"`
		Email string `json:"email"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if strings.TrimSpace(requestData.Phone) == "" && strings.TrimSpace(requestData.Email) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Укажите телефон или email"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Контактами может поделиться любой из участников чата по этой вещи
	var chat models.Chat
	err = db.Pool.QueryRow(ctx, `
		SELECT id, item_id, owner_id, requester_id
		FROM chats
		WHERE item_id = $1 AND (owner_id = $2 OR requester_id = $2)
	`, itemUUID, userUUID).Scan(&chat.ID, &chat.ItemID, &chat.OwnerID, &chat.RequesterID)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "У вас нет доступа к обмену контактами по этой вещи"})
		}
		log.Printf("Ошибка запроса чата: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки доступа"})
	}

	// Upsert по естественному ключу (item_id, owner_id, requester_id)
	var contacts models.ContactExchange
	err = db.Pool.QueryRow(ctx, `
		INSERT INTO contact_exchanges (item_id, owner_id, requester_id, phone, email)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
		ON CONFLICT (item_id, owner_id, requester_id)
		DO UPDATE SET phone = EXCLUDED.phone, email = EXCLUDED.email, updated_at = NOW()
		RETURNING item_id, owner_id, requester_id, COALESCE(phone, ''), COALESCE(email, ''), updated_at
	`, chat.ItemID, chat.OwnerID, chat.RequesterID, requestData.Phone, requestData.Email).Scan(
		&contacts.ItemID, &contacts.OwnerID, &contacts.RequesterID,
		&contacts.Phone, &contacts.Email, &contacts.UpdatedAt,
	)

	if err != nil {
		log.Printf("Ошибка сохранения контактов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения контактов"})
	}

	// Уведомляем второго участника об обновлении контактов
	peerID := chat.OwnerID
	if peerID == userUUID {
		peerID = chat.RequesterID
	}
	s.hub.SendToUser(peerID.String(), ws.Event{
		Type:   ws.EventContacts,
		ItemID: chat.ItemID.String(),
		ChatID: chat.ID.String(),
	})

	return c.JSON(fiber.Map{
		"success":  true,
		"contacts": contacts,
	})
}

// errNotParticipant возвращается, когда чат существует, но пользователь не его участник
var errNotParticipant = errors.New("пользователь не является участником чата")

// checkAccess проверяет, что чат существует и пользователь его участник.
// Несуществующий чат дает pgx.ErrNoRows, чужой - errNotParticipant.
func (s *ChatService) checkAccess(ctx context.Context, chatID, userID uuid.UUID) error {
	var chat models.Chat
	err := db.Pool.QueryRow(ctx, `
		SELECT id, owner_id, requester_id FROM chats WHERE id = $1
	`, chatID).Scan(&chat.ID, &chat.OwnerID, &chat.RequesterID)

	if err != nil {
		return err
	}
	if !chat.IsParticipant(userID) {
		return errNotParticipant
	}
	return nil
}

// accessError преобразует ошибку checkAccess в HTTP-ответ:
// нет чата - 404, чужой чат - 403, все остальное - 500
func accessError(c fiber.Ctx, err error) error {
	switch {
	case err == pgx.ErrNoRows:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Чат не найден"})
	case errors.Is(err, errNotParticipant):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "У вас нет доступа к этому чату"})
	default:
		log.Printf("Ошибка проверки доступа к чату: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки доступа"})
	}
}

// loadMessages возвращает сообщения чата в порядке возрастания created_at
func (s *ChatService) loadMessages(ctx context.Context, chatID uuid.UUID) []models.Message {
	rows, err := db.Pool.Query(ctx, `
		SELECT m.id, m.chat_id, m.sender_id, m.content, m.created_at
		FROM messages m
		WHERE m.chat_id = $1
		ORDER BY m.created_at ASC
	`, chatID)

	if err != nil {
		log.Printf("Ошибка запроса сообщений: %v", err)
		return []models.Message{}
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.SenderID,
			&msg.Content,
			&msg.CreatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования сообщения: %v", err)
			continue
		}
		messages = append(messages, msg)
	}

	return messages
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
