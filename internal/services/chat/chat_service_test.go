package chat

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// accessApp возвращает приложение, где обработчик завершается заданной ошибкой доступа
func accessApp(accessErr error) *fiber.App {
	app := fiber.New()
	app.Get("/messages", func(c fiber.Ctx) error {
		return accessError(c, accessErr)
	})
	return app
}

func TestAccessErrorChatNotFound(t *testing.T) {
	app := accessApp(pgx.ErrNoRows)

	// Несуществующий чат - это 404, а не отказ в доступе
	resp, err := app.Test(httptest.NewRequest("GET", "/messages", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAccessErrorNotParticipant(t *testing.T) {
	app := accessApp(errNotParticipant)

	resp, err := app.Test(httptest.NewRequest("GET", "/messages", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAccessErrorDatabaseFailure(t *testing.T) {
	app := accessApp(errors.New("connection reset"))

	resp, err := app.Test(httptest.NewRequest("GET", "/messages", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
