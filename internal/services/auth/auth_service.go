package auth

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"github.com/rajivgeraev/deklata-api/internal/config"
	"github.com/rajivgeraev/deklata-api/internal/db"
	"github.com/rajivgeraev/deklata-api/internal/utils"
)

// Время жизни magic-ссылки
const magicLinkTTL = 15 * time.Minute

// AuthService – структура для обработки авторизации
type AuthService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	mailer     *utils.Mailer
}

// NewAuthService – конструктор AuthService
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		mailer:     utils.NewMailer(cfg.SMTPConfig),
	}
}

// GetJWTService возвращает JWT сервис для middleware
func (s *AuthService) GetJWTService() *utils.JWTService {
	return s.jwtService
}

// RequestMagicLink создает одноразовый токен входа и отправляет ссылку на почту.
// Ответ всегда одинаковый, чтобы нельзя было перебором проверить наличие аккаунта.
func (s *AuthService) RequestMagicLink(c fiber.Ctx) error {
	var payload struct {
		Email string `json:"email"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" || !strings.Contains(email, "@") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Укажите корректный email"})
	}

	token := uuid.New()
	expiresAt := time.Now().Add(magicLinkTTL)

	ctx, cancel := db.GetContext()
	defer cancel()

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO login_tokens (token, email, expires_at)
		VALUES ($1, $2, $3)
	`, token, email, expiresAt)

	if err != nil {
		log.Printf("Ошибка создания токена входа: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания ссылки для входа"})
	}

	link := s.cfg.BaseURL + "/login/verify?token=" + token.String()

	if s.cfg.IsDev() {
		// В dev-режиме письмо не отправляем, ссылка уходит в лог
		log.Printf("🔗 Magic-ссылка для %s: %s", email, link)
	} else {
		if err := s.mailer.SendMagicLink(email, link); err != nil {
			log.Printf("Ошибка отправки письма на %s: %v", email, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка отправки письма"})
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Если email корректен, ссылка для входа отправлена",
	})
}

// VerifyMagicLink проверяет одноразовый токен и выдает JWT.
// Профиль пользователя создается при первом входе.
func (s *AuthService) VerifyMagicLink(c fiber.Ctx) error {
	var payload struct {
		Token string `json:"token"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	tokenUUID, err := uuid.Parse(payload.Token)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат токена"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Помечаем токен использованным атомарно: повторное использование невозможно
	var email string
	err = db.Pool.QueryRow(ctx, `
		UPDATE login_tokens
		SET used_at = CURRENT_TIMESTAMP
		WHERE token = $1 AND used_at IS NULL AND expires_at > CURRENT_TIMESTAMP
		RETURNING email
	`, tokenUUID).Scan(&email)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Ссылка недействительна или устарела"})
		}
		log.Printf("Ошибка проверки токена входа: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки токена"})
	}

	user, err := db.GetOrCreateUserByEmail(email)
	if err != nil {
		log.Printf("Ошибка создания пользователя %s: %v", email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка входа"})
	}

	jwtToken, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		log.Printf("Ошибка генерации JWT: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка генерации токена"})
	}

	return c.JSON(fiber.Map{
		"token": jwtToken,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}

// TelegramAuthHandler проверяет initData, создает JWT и возвращает его
func (s *AuthService) TelegramAuthHandler(c fiber.Ctx) error {
	if s.cfg.TelegramBotToken == "" {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "Вход через Telegram отключен"})
	}

	var payload struct {
		InitData string `json:"init_data"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	// Проверяем initData
	expiration := 24 * time.Hour
	if err := initdata.Validate(payload.InitData, s.cfg.TelegramBotToken, expiration); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Невалидные данные Telegram"})
	}

	// Парсим данные
	data, err := initdata.Parse(payload.InitData)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Ошибка разбора initData"})
	}

	user, err := db.CreateOrUpdateTelegramUser(
		data.User.ID,
		data.User.Username,
		data.User.FirstName,
		data.User.LastName,
		data.User.PhotoURL,
		data.User.IsPremium,
		data.User.LanguageCode,
		[]byte(payload.InitData),
	)
	if err != nil {
		log.Printf("Ошибка сохранения Telegram пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка входа"})
	}

	jwtToken, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		log.Printf("Ошибка генерации JWT: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка генерации токена"})
	}

	return c.JSON(fiber.Map{
		"token": jwtToken,
		"user": fiber.Map{
			"id":         user.ID,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"username":   user.Username,
			"photo_url":  user.AvatarURL,
		},
	})
}

// Me возвращает профиль текущего пользователя
func (s *AuthService) Me(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	user, err := db.GetUserByID(userUUID)
	if err != nil {
		log.Printf("Ошибка получения пользователя %s: %v", userID, err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Пользователь не найден"})
	}

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"id":         user.ID,
			"email":      user.Email,
			"username":   user.Username,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"avatar_url": user.AvatarURL,
		},
	})
}
