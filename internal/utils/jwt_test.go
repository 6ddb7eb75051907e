package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")
	userID := uuid.New()

	token, err := svc.GenerateToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	extracted, err := svc.ExtractUserID(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), extracted)
}

func TestJWTWrongSecret(t *testing.T) {
	svc := NewJWTService("test-secret")
	other := NewJWTService("another-secret")

	token, err := svc.GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = other.ExtractUserID(token)
	assert.Error(t, err)
}

func TestJWTGarbageToken(t *testing.T) {
	svc := NewJWTService("test-secret")

	_, err := svc.ExtractUserID("not-a-jwt")
	assert.Error(t, err)

	_, err = svc.ExtractUserID("")
	assert.Error(t, err)
}
