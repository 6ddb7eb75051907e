package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rajivgeraev/deklata-api/internal/config"
)

func newTestService() *UploadService {
	cfg := &config.Config{
		JWTSecret: "test-secret",
		CloudinaryConfig: config.CloudinaryConfig{
			CloudName:    "demo",
			APIKey:       "key",
			APISecret:    "top_secret",
			UploadFolder: "deklata_items",
		},
	}
	return NewUploadService(cfg)
}

func TestGenerateSignature(t *testing.T) {
	s := newTestService()

	// Подпись считается по отсортированным параметрам + API-секрет
	sig := s.GenerateSignature(map[string]string{
		"timestamp": "1700000000",
		"folder":    "deklata_items",
	})
	assert.Equal(t, "d55c9b887498402fe5b0db95e94593298c1f71e4", sig)

	sig = s.GenerateSignature(map[string]string{
		"timestamp": "1700000000",
	})
	assert.Equal(t, "8195c1056e70c7a18bd62d9b1a52f99fc1a52a6a", sig)
}

func TestGenerateSignatureOrderIndependent(t *testing.T) {
	s := newTestService()

	a := s.GenerateSignature(map[string]string{"b": "2", "a": "1", "c": "3"})
	b := s.GenerateSignature(map[string]string{"c": "3", "a": "1", "b": "2"})
	assert.Equal(t, a, b)
}

func TestPublicID(t *testing.T) {
	id := PublicID("7b8e1c52-0000-0000-0000-000000000000", 1700000000, "chair photo.jpg")
	assert.Equal(t, "7b8e1c52-0000-0000-0000-000000000000-1700000000-chair_photo", id)

	// Расширение и путь отбрасываются
	id = PublicID("u1", 42, "/tmp/../secret/desk.png")
	assert.Equal(t, "u1-42-desk", id)

	// Пустое имя файла не ломает идентификатор
	id = PublicID("u1", 42, ".jpg")
	assert.Equal(t, "u1-42-image", id)
}
