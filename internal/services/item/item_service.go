package item

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/deklata-api/internal/config"
	"github.com/rajivgeraev/deklata-api/internal/db"
	"github.com/rajivgeraev/deklata-api/internal/models"
	"github.com/rajivgeraev/deklata-api/internal/utils"
)

// ItemService представляет сервис для работы с вещами
type ItemService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewItemService создает новый экземпляр ItemService
func NewItemService(cfg *config.Config) *ItemService {
	return &ItemService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// Каноническое условие доступности: вещь показывается в каталоге и поиске,
// только пока она available и ни один запрос на нее не одобрен.
const availableCondition = `
	i.status = 'available'
	AND NOT EXISTS (
		SELECT 1 FROM requests r
		WHERE r.item_id = i.id AND r.status = 'approved'
	)`

// searchPattern экранирует спецсимволы LIKE и оборачивает запрос в %...%
func searchPattern(q string) string {
	q = strings.ReplaceAll(q, `\`, `\\`)
	q = strings.ReplaceAll(q, `%`, `\%`)
	q = strings.ReplaceAll(q, `_`, `\_`)
	return "%" + q + "%"
}

// CreateItem обрабатывает создание новой вещи
func (s *ItemService) CreateItem(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	// Преобразуем userID в UUID
	ownerUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	// Извлекаем данные из запроса
	var requestData struct {
		Title          string `json:"title"`
		Description    string `json:"description"`
		PickupLocation string `json:"pickup_location"`
		Category       string `json:"category"`
		ImageURL       string `json:"image_url"`
		ContactInfo    string `json:"contact_info"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	// Валидация обязательных полей
	if strings.TrimSpace(requestData.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Название обязательно"})
	}
	if strings.TrimSpace(requestData.Description) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Описание обязательно"})
	}
	if strings.TrimSpace(requestData.PickupLocation) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Укажите место передачи"})
	}
	if strings.TrimSpace(requestData.ContactInfo) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Укажите контакт для связи"})
	}

	// Категория по умолчанию - Others
	if !models.ValidCategory(requestData.Category) {
		requestData.Category = "Others"
	}

	itemID := uuid.New()

	ctx, cancel := db.GetContext()
	defer cancel()

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO items (id, owner_id, title, description, pickup_location, category, image_url, contact_info, status)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, 'available')
	`, itemID, ownerUUID, requestData.Title, requestData.Description,
		requestData.PickupLocation, requestData.Category, requestData.ImageURL, requestData.ContactInfo)

	if err != nil {
		log.Printf("Ошибка вставки вещи: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения вещи"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"item_id": itemID,
		"message": "Вещь успешно добавлена",
	})
}

// GetPublicItems возвращает каталог доступных вещей.
// Вещи с одобренным запросом исключаются на стороне сервера.
func (s *ItemService) GetPublicItems(c fiber.Ctx) error {
	category := c.Query("category")
	q := strings.TrimSpace(c.Query("q"))

	query := `
		SELECT i.id, i.owner_id, i.title, i.description, i.pickup_location, i.category,
		       COALESCE(i.image_url, ''), i.status, i.created_at, i.updated_at
		FROM items i
		WHERE ` + availableCondition
	args := []interface{}{}

	if category != "" && category != "All" {
		args = append(args, category)
		query += ` AND i.category = $1`
	}

	if q != "" {
		args = append(args, searchPattern(q))
		if len(args) == 1 {
			query += ` AND (i.title ILIKE $1 OR i.description ILIKE $1 OR i.pickup_location ILIKE $1)`
		} else {
			query += ` AND (i.title ILIKE $2 OR i.description ILIKE $2 OR i.pickup_location ILIKE $2)`
		}
	}

	query += ` ORDER BY i.created_at DESC`

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Ошибка запроса каталога: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения каталога"})
	}
	defer rows.Close()

	items := scanItems(rows)

	return c.JSON(fiber.Map{
		"items": items,
		"count": len(items),
	})
}

// SearchItems выполняет поиск по названию и описанию среди доступных вещей
func (s *ItemService) SearchItems(c fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return c.JSON(fiber.Map{
			"items": []models.Item{},
			"count": 0,
		})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
		SELECT i.id, i.owner_id, i.title, i.description, i.pickup_location, i.category,
		       COALESCE(i.image_url, ''), i.status, i.created_at, i.updated_at
		FROM items i
		WHERE `+availableCondition+`
		  AND (i.title ILIKE $1 OR i.description ILIKE $1)
		ORDER BY i.created_at DESC
	`, searchPattern(q))

	if err != nil {
		log.Printf("Ошибка поиска вещей: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка поиска"})
	}
	defer rows.Close()

	items := scanItems(rows)

	return c.JSON(fiber.Map{
		"items": items,
		"count": len(items),
	})
}

// GetItem возвращает детальную информацию о вещи.
// contact_info попадает в ответ только владельцу или пользователю
// с одобренным запросом: проверка выполняется здесь, а не на клиенте.
func (s *ItemService) GetItem(c fiber.Ctx) error {
	itemID := c.Params("id")

	itemUUID, err := uuid.Parse(itemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID вещи"})
	}

	// Зритель может быть не авторизован
	var viewerUUID uuid.UUID
	viewerID, _ := c.Locals("userID").(string)
	if viewerID != "" {
		viewerUUID, err = uuid.Parse(viewerID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
		}
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var item models.Item
	var contactInfo string
	err = db.Pool.QueryRow(ctx, `
		SELECT id, owner_id, title, description, pickup_location, category,
		       COALESCE(image_url, ''), contact_info, status, created_at, updated_at
		FROM items
		WHERE id = $1
	`, itemUUID).Scan(
		&item.ID,
		&item.OwnerID,
		&item.Title,
		&item.Description,
		&item.PickupLocation,
		&item.Category,
		&item.ImageURL,
		&contactInfo,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Вещь не найдена"})
		}
		log.Printf("Ошибка получения вещи: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения вещи"})
	}

	item.Owner = getUserInfo(ctx, item.OwnerID)

	// Запрос зрителя на эту вещь, если он есть
	if viewerUUID != uuid.Nil && viewerUUID != item.OwnerID {
		var req models.Request
		err = db.Pool.QueryRow(ctx, `
			SELECT id, item_id, requester_id, status, created_at, updated_at
			FROM requests
			WHERE item_id = $1 AND requester_id = $2
		`, itemUUID, viewerUUID).Scan(
			&req.ID, &req.ItemID, &req.RequesterID, &req.Status, &req.CreatedAt, &req.UpdatedAt,
		)

		if err != nil && err != pgx.ErrNoRows {
			log.Printf("Ошибка получения запроса зрителя: %v", err)
		}
		if err == nil {
			req.Status = models.NormalizeRequestStatus(req.Status)
			item.MyRequest = &req
		}
	}

	// Контакт раскрываем владельцу и получателю с одобренным запросом
	requestStatus := ""
	if item.MyRequest != nil {
		requestStatus = item.MyRequest.Status
	}
	if models.RevealContact(viewerUUID, item.OwnerID, requestStatus) {
		item.ContactInfo = contactInfo
	}

	return c.JSON(fiber.Map{"item": item})
}

// GetMyItems возвращает список вещей текущего пользователя
func (s *ItemService) GetMyItems(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ownerUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
		SELECT i.id, i.owner_id, i.title, i.description, i.pickup_location, i.category,
		       COALESCE(i.image_url, ''), i.status, i.created_at, i.updated_at
		FROM items i
		WHERE i.owner_id = $1
		ORDER BY i.updated_at DESC
	`, ownerUUID)

	if err != nil {
		log.Printf("Ошибка запроса вещей пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения вещей"})
	}
	defer rows.Close()

	items := scanItems(rows)

	return c.JSON(fiber.Map{
		"items": items,
		"count": len(items),
	})
}

// DeleteItem удаляет вещь текущего пользователя
func (s *ItemService) DeleteItem(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	itemID := c.Params("id")

	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ownerUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	itemUUID, err := uuid.Parse(itemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID вещи"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM items WHERE id = $1 AND owner_id = $2
	`, itemUUID, ownerUUID)

	if err != nil {
		log.Printf("Ошибка удаления вещи: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления вещи"})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Вещь не найдена или принадлежит другому пользователю"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Вещь удалена",
	})
}

// scanItems читает строки каталога в список моделей
func scanItems(rows pgx.Rows) []models.Item {
	items := []models.Item{}
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(
			&item.ID,
			&item.OwnerID,
			&item.Title,
			&item.Description,
			&item.PickupLocation,
			&item.Category,
			&item.ImageURL,
			&item.Status,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования строки: %v", err)
			continue
		}
		items = append(items, item)
	}
	return items
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
