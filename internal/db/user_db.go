package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// User представляет пользователя в системе
type User struct {
	ID          uuid.UUID
	Email       string
	Username    string
	FirstName   string
	LastName    string
	AvatarURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt time.Time
	IsActive    bool
}

// TelegramUser представляет данные пользователя из Telegram
type TelegramUser struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	TelegramID   int64
	Username     string
	FirstName    string
	LastName     string
	PhotoURL     string
	IsPremium    bool
	LanguageCode string
	RawData      []byte // JSONB данные
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GetOrCreateUserByEmail находит пользователя по email или создает нового.
// Профиль создается при первом входе по magic-ссылке.
func GetOrCreateUserByEmail(email string) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	email = strings.ToLower(strings.TrimSpace(email))

	tx, err := Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var user User
	err = tx.QueryRow(ctx, `
		SELECT id, email, COALESCE(username, ''), created_at
		FROM users
		WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &user.Username, &user.CreatedAt)

	if err != nil && err != pgx.ErrNoRows {
		return nil, fmt.Errorf("ошибка при поиске пользователя: %w", err)
	}

	// Если пользователь не существует, создаем нового
	if err == pgx.ErrNoRows {
		err = tx.QueryRow(ctx, `
			INSERT INTO users (email, last_login_at)
			VALUES ($1, CURRENT_TIMESTAMP)
			RETURNING id, email, created_at
		`, email).Scan(&user.ID, &user.Email, &user.CreatedAt)

		if err != nil {
			return nil, fmt.Errorf("ошибка при создании пользователя: %w", err)
		}
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE users SET last_login_at = CURRENT_TIMESTAMP WHERE id = $1
		`, user.ID)
		if err != nil {
			return nil, fmt.Errorf("ошибка при обновлении времени входа: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return &user, nil
}

// GetUserByID возвращает пользователя по его ID
func GetUserByID(userID uuid.UUID) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	var user User
	err := Pool.QueryRow(ctx, `
		SELECT id, email, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
		       COALESCE(avatar_url, ''), created_at
		FROM users
		WHERE id = $1
	`, userID).Scan(&user.ID, &user.Email, &user.Username, &user.FirstName,
		&user.LastName, &user.AvatarURL, &user.CreatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("пользователь не найден")
		}
		return nil, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}

	return &user, nil
}

// CreateOrUpdateTelegramUser создает нового пользователя через Telegram или обновляет существующего
func CreateOrUpdateTelegramUser(telegramID int64, username, firstName, lastName, photoURL string,
	isPremium bool, languageCode string, rawData []byte) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	// Начинаем транзакцию
	tx, err := Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx) // Откатываем транзакцию в случае ошибки

	// Проверяем, существует ли пользователь Telegram
	var userID uuid.UUID

	err = tx.QueryRow(ctx, `
		SELECT user_id FROM telegram_users WHERE telegram_id = $1
	`, telegramID).Scan(&userID)

	if err != nil && err != pgx.ErrNoRows {
		return nil, fmt.Errorf("ошибка при проверке существования пользователя Telegram: %w", err)
	}

	// Если пользователь не существует, создаем нового
	if err == pgx.ErrNoRows {
		// Создаем запись в users
		err = tx.QueryRow(ctx, `
			INSERT INTO users (username, first_name, last_name, avatar_url, last_login_at)
			VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
			RETURNING id
		`, username, firstName, lastName, photoURL).Scan(&userID)

		if err != nil {
			return nil, fmt.Errorf("ошибка при создании пользователя: %w", err)
		}

		// Создаем запись в telegram_users
		_, err = tx.Exec(ctx, `
			INSERT INTO telegram_users (user_id, telegram_id, username, first_name, last_name, photo_url, is_premium, language_code, raw_data)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, userID, telegramID, username, firstName, lastName, photoURL, isPremium, languageCode, rawData)

		if err != nil {
			return nil, fmt.Errorf("ошибка при создании Telegram пользователя: %w", err)
		}
	} else {
		// Обновляем данные существующего пользователя
		_, err = tx.Exec(ctx, `
			UPDATE telegram_users
			SET username = $1, first_name = $2, last_name = $3, photo_url = $4,
			    is_premium = $5, language_code = $6, raw_data = $7, updated_at = CURRENT_TIMESTAMP
			WHERE telegram_id = $8
		`, username, firstName, lastName, photoURL, isPremium, languageCode, rawData, telegramID)

		if err != nil {
			return nil, fmt.Errorf("ошибка при обновлении Telegram пользователя: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE users SET last_login_at = CURRENT_TIMESTAMP WHERE id = $1
		`, userID)

		if err != nil {
			return nil, fmt.Errorf("ошибка при обновлении времени входа: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return GetUserByID(userID)
}
