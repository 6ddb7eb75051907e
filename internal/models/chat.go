package models

import (
	"time"

	"github.com/google/uuid"
)

// Chat представляет переписку по конкретной вещи между владельцем и получателем
type Chat struct {
	ID          uuid.UUID `json:"id"`
	ItemID      uuid.UUID `json:"item_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Дополнительные поля для API
	Item      *Item            `json:"item,omitempty"`
	Messages  []Message        `json:"messages,omitempty"`
	Contacts  *ContactExchange `json:"contacts,omitempty"`
	Owner     *User            `json:"owner,omitempty"`
	Requester *User            `json:"requester,omitempty"`
}

// Message представляет сообщение в чате
type Message struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"chat_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// Дополнительные поля для API
	Sender *User `json:"sender,omitempty"`
}

// IsParticipant проверяет, что пользователь является участником чата
func (c *Chat) IsParticipant(userID uuid.UUID) bool {
	return c.OwnerID == userID || c.RequesterID == userID
}
