package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidCategory(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, ValidCategory(c), c)
	}

	assert.False(t, ValidCategory(""))
	assert.False(t, ValidCategory("books"))
	assert.False(t, ValidCategory("All"))
}

func TestRevealContact(t *testing.T) {
	owner := uuid.New()
	requester := uuid.New()
	stranger := uuid.New()

	tests := []struct {
		name          string
		viewerID      uuid.UUID
		requestStatus string
		want          bool
	}{
		{"owner always sees contact", owner, "", true},
		{"approved requester sees contact", requester, RequestStatusApproved, true},
		{"pending request hides contact", requester, RequestStatusPending, false},
		{"rejected request hides contact", requester, RequestStatusRejected, false},
		{"no request hides contact", stranger, "", false},
		{"anonymous viewer hides contact", uuid.Nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RevealContact(tt.viewerID, owner, tt.requestStatus))
		})
	}
}

func TestChatIsParticipant(t *testing.T) {
	owner := uuid.New()
	requester := uuid.New()
	stranger := uuid.New()

	chat := Chat{OwnerID: owner, RequesterID: requester}

	assert.True(t, chat.IsParticipant(owner))
	assert.True(t, chat.IsParticipant(requester))
	assert.False(t, chat.IsParticipant(stranger))
}
