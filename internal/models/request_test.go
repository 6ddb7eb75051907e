package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidRequestStatus(t *testing.T) {
	assert.True(t, ValidRequestStatus(RequestStatusPending))
	assert.True(t, ValidRequestStatus(RequestStatusApproved))
	assert.True(t, ValidRequestStatus(RequestStatusRejected))

	assert.False(t, ValidRequestStatus(""))
	assert.False(t, ValidRequestStatus("canceled"))
	assert.False(t, ValidRequestStatus("Approved"))
}

func TestNormalizeRequestStatus(t *testing.T) {
	// Отсутствующий статус показывается как pending
	assert.Equal(t, RequestStatusPending, NormalizeRequestStatus(""))
	assert.Equal(t, RequestStatusApproved, NormalizeRequestStatus(RequestStatusApproved))
	assert.Equal(t, RequestStatusRejected, NormalizeRequestStatus(RequestStatusRejected))
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"pending to approved", RequestStatusPending, RequestStatusApproved, true},
		{"pending to rejected", RequestStatusPending, RequestStatusRejected, true},
		{"empty treated as pending", "", RequestStatusApproved, true},
		{"approved is terminal", RequestStatusApproved, RequestStatusRejected, false},
		{"rejected is terminal", RequestStatusRejected, RequestStatusApproved, false},
		{"no transition back to pending", RequestStatusApproved, RequestStatusPending, false},
		{"pending to pending", RequestStatusPending, RequestStatusPending, false},
		{"unknown target", RequestStatusPending, "canceled", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestCanApprove(t *testing.T) {
	tests := []struct {
		name          string
		requestStatus string
		itemStatus    string
		want          bool
	}{
		{"pending request on available item", RequestStatusPending, ItemStatusAvailable, true},
		{"empty status treated as pending", "", ItemStatusAvailable, true},
		// Второй pending-запрос на уже отданную вещь одобрить нельзя
		{"pending request on claimed item", RequestStatusPending, ItemStatusClaimed, false},
		{"approved request is terminal", RequestStatusApproved, ItemStatusAvailable, false},
		{"rejected request is terminal", RequestStatusRejected, ItemStatusClaimed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanApprove(tt.requestStatus, tt.itemStatus))
		})
	}
}
