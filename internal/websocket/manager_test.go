package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient создает клиента без реального соединения.
// SendToUser пишет в буферизованный канал и не трогает conn, пока есть место.
func newTestClient(m *Manager, userID string) *Client {
	return &Client{
		ID:        uuid.New(),
		UserID:    userID,
		send:      make(chan []byte, writeBufferSize),
		manager:   m,
		closeChan: make(chan struct{}),
	}
}

func TestManagerAddRemoveClient(t *testing.T) {
	m := NewManager()
	defer m.Shutdown()

	client := newTestClient(m, "user-1")
	m.AddClient(client)
	assert.True(t, m.IsUserOnline("user-1"))

	m.RemoveClient(client.ID)
	assert.False(t, m.IsUserOnline("user-1"))

	// Повторное удаление безопасно
	m.RemoveClient(client.ID)
}

func TestManagerRemovesUserAfterLastClient(t *testing.T) {
	m := NewManager()
	defer m.Shutdown()

	first := newTestClient(m, "user-1")
	second := newTestClient(m, "user-1")
	m.AddClient(first)
	m.AddClient(second)

	m.RemoveClient(first.ID)
	assert.True(t, m.IsUserOnline("user-1"))

	m.RemoveClient(second.ID)
	assert.False(t, m.IsUserOnline("user-1"))
}

func TestSendToUserDeliversToAllClients(t *testing.T) {
	m := NewManager()
	defer m.Shutdown()

	first := newTestClient(m, "user-1")
	second := newTestClient(m, "user-1")
	other := newTestClient(m, "user-2")
	m.AddClient(first)
	m.AddClient(second)
	m.AddClient(other)

	m.SendToUser("user-1", Event{
		Type:   EventRequestStatus,
		Status: "approved",
	})

	for _, c := range []*Client{first, second} {
		select {
		case payload := <-c.send:
			require.Contains(t, string(payload), `"request_status"`)
			require.Contains(t, string(payload), `"approved"`)
		case <-time.After(time.Second):
			t.Fatal("событие не доставлено клиенту")
		}
	}

	// Клиент другого пользователя ничего не получает
	select {
	case <-other.send:
		t.Fatal("событие доставлено чужому клиенту")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendToUserOffline(t *testing.T) {
	m := NewManager()
	defer m.Shutdown()

	// Отправка оффлайн-пользователю не паникует и ничего не делает
	m.SendToUser("ghost", Event{Type: EventNewMessage})
	m.SendToUser("", Event{Type: EventNewMessage})
}
