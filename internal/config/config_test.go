package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("DEKLATA_TEST_STR", "value")
	assert.Equal(t, "value", getEnv("DEKLATA_TEST_STR", "default"))

	assert.Equal(t, "default", getEnv("DEKLATA_TEST_STR_MISSING", "default"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("DEKLATA_TEST_INT", "25")
	assert.Equal(t, 25, getEnvInt("DEKLATA_TEST_INT", 10))

	// Неразбираемое значение откатывается на дефолт
	t.Setenv("DEKLATA_TEST_INT", "not-a-number")
	assert.Equal(t, 10, getEnvInt("DEKLATA_TEST_INT", 10))

	assert.Equal(t, 7, getEnvInt("DEKLATA_TEST_INT_MISSING", 7))
}
