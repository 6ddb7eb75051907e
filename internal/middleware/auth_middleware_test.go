package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/deklata-api/internal/utils"
)

func newTestApp(handler fiber.Handler, mw fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/protected", handler, mw)
	return app
}

func whoami(c fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)
	return c.SendString(userID)
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	jwtService := utils.NewJWTService("test-secret")
	app := newTestApp(whoami, AuthMiddleware(jwtService))

	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareBadFormat(t *testing.T) {
	jwtService := utils.NewJWTService("test-secret")
	app := newTestApp(whoami, AuthMiddleware(jwtService))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	jwtService := utils.NewJWTService("test-secret")
	app := newTestApp(whoami, AuthMiddleware(jwtService))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	jwtService := utils.NewJWTService("test-secret")
	app := newTestApp(whoami, AuthMiddleware(jwtService))

	userID := uuid.New()
	token, err := jwtService.GenerateToken(userID)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), string(body))
}

func TestOptionalAuthMiddlewareNoToken(t *testing.T) {
	jwtService := utils.NewJWTService("test-secret")
	app := newTestApp(whoami, OptionalAuthMiddleware(jwtService))

	// Без токена запрос проходит, но пользователь не авторизован
	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, string(body))
}

func TestOptionalAuthMiddlewareWithToken(t *testing.T) {
	jwtService := utils.NewJWTService("test-secret")
	app := newTestApp(whoami, OptionalAuthMiddleware(jwtService))

	userID := uuid.New()
	token, err := jwtService.GenerateToken(userID)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), string(body))
}
