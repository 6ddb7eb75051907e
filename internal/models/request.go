package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы запроса на вещь
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// Request представляет запрос пользователя на получение вещи
type Request struct {
	ID          uuid.UUID `json:"id"`
	ItemID      uuid.UUID `json:"item_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Дополнительные поля для API
	Item      *Item      `json:"item,omitempty"`
	Requester *User      `json:"requester,omitempty"`
	ChatID    *uuid.UUID `json:"chat_id,omitempty"` // ID связанного чата
}

// ValidRequestStatus проверяет допустимость статуса запроса
func ValidRequestStatus(status string) bool {
	switch status {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

// NormalizeRequestStatus приводит пустой статус к pending
func NormalizeRequestStatus(status string) string {
	if status == "" {
		return RequestStatusPending
	}
	return status
}

// CanTransition проверяет допустимость перехода статуса.
// Единственные переходы: pending -> approved и pending -> rejected.
func CanTransition(from, to string) bool {
	if NormalizeRequestStatus(from) != RequestStatusPending {
		return false
	}
	return to == RequestStatusApproved || to == RequestStatusRejected
}

// CanApprove проверяет, что запрос можно одобрить: сам запрос в ожидании,
// а вещь еще доступна. Второй pending-запрос на уже отданную вещь
// одобрить нельзя, иначе по одной вещи появится два чата.
func CanApprove(requestStatus, itemStatus string) bool {
	return CanTransition(requestStatus, RequestStatusApproved) && itemStatus == ItemStatusAvailable
}
