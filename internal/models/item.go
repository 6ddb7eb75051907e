package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы вещи. Вещь со статусом claimed больше не показывается в каталоге.
const (
	ItemStatusAvailable = "available"
	ItemStatusClaimed   = "claimed"
)

// Categories содержит допустимые категории вещей
var Categories = []string{"Books", "Electronics", "Furniture", "Clothing", "Others"}

// Item представляет вещь, отданную в каталог
type Item struct {
	ID             uuid.UUID `json:"id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	PickupLocation string    `json:"pickup_location"`
	Category       string    `json:"category"`
	ImageURL       string    `json:"image_url,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Контакт владельца. Заполняется только когда запрос зрителя одобрен
	// или зритель сам является владельцем.
	ContactInfo string `json:"contact_info,omitempty"`

	// Дополнительные поля для API
	Owner     *User    `json:"owner,omitempty"`
	MyRequest *Request `json:"my_request,omitempty"`
}

// RevealContact решает, показывать ли зрителю contact_info вещи.
// Контакт видят только владелец вещи и получатель с одобренным запросом,
// все остальные (включая неавторизованных) его не получают.
func RevealContact(viewerID, ownerID uuid.UUID, requestStatus string) bool {
	if viewerID == uuid.Nil {
		return false
	}
	if viewerID == ownerID {
		return true
	}
	return requestStatus == RequestStatusApproved
}

// ValidCategory проверяет, что категория входит в допустимый список
func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
