package websocket

import (
	"log"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rajivgeraev/deklata-api/internal/utils"
)

// Handler возвращает fiber-обработчик для подключения WebSocket клиентов.
// Токен передается в query-параметре, т.к. браузерный WebSocket API
// не позволяет выставить заголовок Authorization.
func (m *Manager) Handler(jwtService *utils.JWTService) fiber.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // CORS уже проверен на уровне приложения
		},
	}

	return adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "Missing token", http.StatusUnauthorized)
			return
		}

		userID, err := jwtService.ExtractUserID(token)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		if _, err := uuid.Parse(userID); err != nil {
			http.Error(w, "Invalid user ID", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		client := NewClient(userID, conn, m)
		client.Start()

		m.SendToUser(userID, Event{Type: EventConnected, UserID: userID})
	})
}
