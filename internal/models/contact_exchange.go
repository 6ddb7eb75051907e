package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactExchange представляет добровольно переданные контакты
// между владельцем вещи и конкретным получателем.
// Запись уникальна по паре (item_id, requester_id).
type ContactExchange struct {
	ItemID      uuid.UUID `json:"item_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
