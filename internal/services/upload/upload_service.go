package upload

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/deklata-api/internal/config"
	"github.com/rajivgeraev/deklata-api/internal/utils"
)

// UploadService предоставляет методы для загрузки изображений в Cloudinary
type UploadService struct {
	cfg          *config.Config
	jwtService   *utils.JWTService
	uploadFolder string
}

// NewUploadService создает новый экземпляр UploadService
func NewUploadService(cfg *config.Config) *UploadService {
	return &UploadService{
		cfg:          cfg,
		jwtService:   utils.NewJWTService(cfg.JWTSecret),
		uploadFolder: cfg.CloudinaryConfig.UploadFolder,
	}
}

// GenerateSignature создаёт корректную подпись для Cloudinary
func (s *UploadService) GenerateSignature(params map[string]string) string {
	// Сортируем ключи параметров
	var keys []string
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Формируем строку для подписи
	var signParts []string
	for _, k := range keys {
		signParts = append(signParts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	signatureString := strings.Join(signParts, "&")

	// Добавляем API-секрет в конец строки
	signatureString += s.cfg.CloudinaryConfig.APISecret

	// Создаем SHA-1 хеш
	h := sha1.New()
	h.Write([]byte(signatureString))

	// Возвращаем подпись в виде шестнадцатеричной строки
	return hex.EncodeToString(h.Sum(nil))
}

// PublicID формирует идентификатор файла из владельца, времени и имени файла
func PublicID(userID string, ts int64, fileName string) string {
	base := filepath.Base(fileName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("%s-%d-%s", userID, ts, base)
}

// GenerateUploadParams создаёт параметры для прямой загрузки изображений
func (s *UploadService) GenerateUploadParams(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	// Текущий timestamp
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	// Параметры для подписи
	params := map[string]string{
		"timestamp": timestamp,
		"folder":    s.uploadFolder,
	}

	// Генерируем подпись
	signature := s.GenerateSignature(params)

	// Возвращаем параметры
	return c.JSON(fiber.Map{
		"timestamp":  timestamp,
		"signature":  signature,
		"api_key":    s.cfg.CloudinaryConfig.APIKey,
		"cloud_name": s.cfg.CloudinaryConfig.CloudName,
		"folder":     s.uploadFolder,
	})
}

// UploadImage загружает изображение на сервере и возвращает публичный URL.
// При ошибке загрузки вещь не создается: клиент прерывает сценарий добавления.
func (s *UploadService) UploadImage(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Файл не передан"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("Ошибка открытия файла: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Не удалось прочитать файл"})
	}
	defer file.Close()

	cld, err := cloudinary.NewFromParams(
		s.cfg.CloudinaryConfig.CloudName,
		s.cfg.CloudinaryConfig.APIKey,
		s.cfg.CloudinaryConfig.APISecret,
	)
	if err != nil {
		log.Printf("Ошибка инициализации Cloudinary: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка загрузки изображения"})
	}

	publicID := PublicID(userID, time.Now().Unix(), fileHeader.Filename)

	resp, err := cld.Upload.Upload(c.Context(), file, uploader.UploadParams{
		PublicID: publicID,
		Folder:   s.uploadFolder,
	})
	if err != nil {
		log.Printf("Ошибка загрузки в Cloudinary: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Ошибка загрузки изображения"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":   true,
		"public_id": resp.PublicID,
		"url":       resp.SecureURL,
	})
}
